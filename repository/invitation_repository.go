package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bheem-chat/entity"
	"bheem-chat/enum"
)

type InvitationRepository struct {
	Repository[entity.Invitation]
}

func NewInvitationRepository() *InvitationRepository {
	return &InvitationRepository{}
}

func (repository InvitationRepository) FindInvitationByID(ctx context.Context, db *gorm.DB, id string) (*entity.Invitation, error) {
	return repository.FindByID(ctx, db, id)
}

// Respond moves a pending invitation to a terminal status; zero rows means it was no longer pending.
func (repository InvitationRepository) Respond(ctx context.Context, db *gorm.DB, id string, status enum.InvitationStatus, userID string, at time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&entity.Invitation{}).
		Where("id = ? AND status = ?", id, enum.InvitationPending).
		UpdateColumns(map[string]interface{}{
			"status":       status,
			"responded_at": at,
			"responded_by": userID,
			"updated_at":   at,
		})
	return result.RowsAffected, result.Error
}

func (repository InvitationRepository) ExpirePending(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&entity.Invitation{}).
		Where("status = ? AND expires_at <= ?", enum.InvitationPending, now).
		UpdateColumns(map[string]interface{}{"status": enum.InvitationExpired, "updated_at": now})
	return result.RowsAffected, result.Error
}
