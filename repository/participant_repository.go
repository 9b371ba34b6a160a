package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bheem-chat/entity"
)

type UnreadSummary struct {
	ConversationID string `json:"conversationId"`
	UnreadCount    int    `json:"unreadCount"`
}

type ParticipantRepository struct {
	Repository[entity.Participant]
}

func NewParticipantRepository() *ParticipantRepository {
	return &ParticipantRepository{}
}

func (repository ParticipantRepository) FindActive(ctx context.Context, db *gorm.DB, conversationID, userID string) (*entity.Participant, error) {
	var participant entity.Participant
	err := db.WithContext(ctx).
		Scopes(ActiveParticipants).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Take(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// FindActiveForUpdate row-locks the caller's participant row so read positions are applied one at a time.
func (repository ParticipantRepository) FindActiveForUpdate(ctx context.Context, tx *gorm.DB, conversationID, userID string) (*entity.Participant, error) {
	var participant entity.Participant
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(ActiveParticipants).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Take(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (repository ParticipantRepository) FindActiveByContact(ctx context.Context, db *gorm.DB, conversationID, contactID string) (*entity.Participant, error) {
	var participant entity.Participant
	err := db.WithContext(ctx).
		Scopes(ActiveParticipants).
		Where("conversation_id = ? AND external_contact_id = ?", conversationID, contactID).
		Take(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (repository ParticipantRepository) ListActive(ctx context.Context, db *gorm.DB, conversationID string) ([]entity.Participant, error) {
	var participants []entity.Participant
	err := db.WithContext(ctx).
		Scopes(ActiveParticipants).
		Where("conversation_id = ?", conversationID).
		Order("joined_at ASC").
		Find(&participants).Error
	return participants, err
}

func (repository ParticipantRepository) CountActive(ctx context.Context, db *gorm.DB, conversationID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&entity.Participant{}).
		Scopes(ActiveParticipants).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	return count, err
}

// IncrementUnread bumps every active participant except the sender with a single
// row-level arithmetic update, so it composes with a concurrent MarkRead reset.
// Rows without a linked user (guests) are always bumped.
func (repository ParticipantRepository) IncrementUnread(ctx context.Context, tx *gorm.DB, conversationID, excludingUserID string) (int64, error) {
	result := tx.WithContext(ctx).
		Model(&entity.Participant{}).
		Scopes(ActiveParticipants).
		Where("conversation_id = ?", conversationID).
		Where("(user_id IS NULL OR user_id <> ?)", excludingUserID).
		UpdateColumn("unread_count", gorm.Expr("unread_count + ?", 1))
	return result.RowsAffected, result.Error
}

func (repository ParticipantRepository) MarkRead(ctx context.Context, db *gorm.DB, conversationID, userID string, messageID *string, at time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&entity.Participant{}).
		Scopes(ActiveParticipants).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		UpdateColumns(map[string]interface{}{
			"unread_count":         0,
			"last_read_at":         at,
			"last_read_message_id": messageID,
			"updated_at":           at,
		})
	return result.RowsAffected, result.Error
}

func (repository ParticipantRepository) Leave(ctx context.Context, db *gorm.DB, participantID string, at time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&entity.Participant{}).
		Scopes(ActiveParticipants).
		Where("id = ?", participantID).
		UpdateColumns(map[string]interface{}{"left_at": at, "updated_at": at})
	return result.RowsAffected, result.Error
}

func (repository ParticipantRepository) SetMuted(ctx context.Context, db *gorm.DB, participantID string, muted bool) error {
	return db.WithContext(ctx).
		Model(&entity.Participant{}).
		Where("id = ?", participantID).
		UpdateColumn("is_muted", muted).Error
}

func (repository ParticipantRepository) UnreadByUser(ctx context.Context, db *gorm.DB, userID string) ([]UnreadSummary, error) {
	var summaries []UnreadSummary
	err := db.WithContext(ctx).
		Model(&entity.Participant{}).
		Scopes(ActiveParticipants).
		Select("conversation_id, unread_count").
		Where("user_id = ? AND unread_count > 0", userID).
		Order("conversation_id").
		Scan(&summaries).Error
	return summaries, err
}
