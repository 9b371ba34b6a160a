package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"bheem-chat/entity"
	"bheem-chat/enum"
)

type WaitingRoomRepository struct {
	Repository[entity.WaitingRoomEntry]
}

func NewWaitingRoomRepository() *WaitingRoomRepository {
	return &WaitingRoomRepository{}
}

// FindRoomByCode returns nil, nil when the room has not been created yet.
func (repository WaitingRoomRepository) FindRoomByCode(ctx context.Context, db *gorm.DB, roomCode string) (*entity.MeetingRoom, error) {
	var room entity.MeetingRoom
	err := db.WithContext(ctx).Where("room_code = ?", roomCode).Take(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (repository WaitingRoomRepository) CreateRoom(ctx context.Context, db *gorm.DB, room *entity.MeetingRoom) error {
	return db.WithContext(ctx).Create(room).Error
}

func (repository WaitingRoomRepository) SetWaitingRoomEnabled(ctx context.Context, db *gorm.DB, roomCode string, enabled bool) error {
	return db.WithContext(ctx).
		Model(&entity.MeetingRoom{}).
		Where("room_code = ?", roomCode).
		UpdateColumn("waiting_room_enabled", enabled).Error
}

func (repository WaitingRoomRepository) FindEntry(ctx context.Context, db *gorm.DB, roomCode, id string) (*entity.WaitingRoomEntry, error) {
	var entry entity.WaitingRoomEntry
	query := db.WithContext(ctx).Where("id = ?", id)
	if roomCode != "" {
		query = query.Where("room_code = ?", roomCode)
	}
	if err := query.Take(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindWaitingFor looks up the still-waiting row of a user (or, for guests, an email) in a room.
func (repository WaitingRoomRepository) FindWaitingFor(ctx context.Context, db *gorm.DB, roomCode string, userID *string, email string) (*entity.WaitingRoomEntry, error) {
	query := db.WithContext(ctx).
		Where("room_code = ? AND status = ?", roomCode, enum.WaitingPending)
	switch {
	case userID != nil:
		query = query.Where("user_id = ?", *userID)
	case email != "":
		query = query.Where("user_id IS NULL AND email = ?", strings.ToLower(email))
	default:
		return nil, nil
	}

	var entry entity.WaitingRoomEntry
	err := query.Order("requested_at ASC").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (repository WaitingRoomRepository) ListByStatus(ctx context.Context, db *gorm.DB, roomCode string, status enum.WaitingStatus) ([]entity.WaitingRoomEntry, error) {
	var entries []entity.WaitingRoomEntry
	err := db.WithContext(ctx).
		Where("room_code = ? AND status = ?", roomCode, status).
		Order("requested_at ASC").
		Find(&entries).Error
	return entries, err
}

// Resolve transitions a single waiting row. Rows no longer waiting are left untouched.
func (repository WaitingRoomRepository) Resolve(ctx context.Context, db *gorm.DB, roomCode, id string, status enum.WaitingStatus, actor, reason string, at time.Time) (int64, error) {
	changes := map[string]interface{}{"status": status, "updated_at": at}
	switch status {
	case enum.WaitingAdmitted:
		changes["admitted_at"] = at
		changes["admitted_by"] = actor
	case enum.WaitingRejected:
		changes["rejected_at"] = at
		changes["rejected_by"] = actor
		changes["rejection_reason"] = reason
	}

	result := db.WithContext(ctx).
		Model(&entity.WaitingRoomEntry{}).
		Where("id = ? AND room_code = ? AND status = ?", id, roomCode, enum.WaitingPending).
		UpdateColumns(changes)
	return result.RowsAffected, result.Error
}

func (repository WaitingRoomRepository) AdmitAll(ctx context.Context, db *gorm.DB, roomCode, actor string, at time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&entity.WaitingRoomEntry{}).
		Where("room_code = ? AND status = ?", roomCode, enum.WaitingPending).
		UpdateColumns(map[string]interface{}{
			"status":      enum.WaitingAdmitted,
			"admitted_at": at,
			"admitted_by": actor,
			"updated_at":  at,
		})
	return result.RowsAffected, result.Error
}

func (repository WaitingRoomRepository) DeleteIfWaiting(ctx context.Context, db *gorm.DB, roomCode, id string) (int64, error) {
	result := db.WithContext(ctx).
		Where("id = ? AND room_code = ? AND status = ?", id, roomCode, enum.WaitingPending).
		Delete(&entity.WaitingRoomEntry{})
	return result.RowsAffected, result.Error
}

func (repository WaitingRoomRepository) DeleteRequestedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Where("requested_at < ?", cutoff).
		Delete(&entity.WaitingRoomEntry{})
	return result.RowsAffected, result.Error
}
