package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bheem-chat/entity"
	"bheem-chat/enum"
)

type ConversationFilter struct {
	Archived *bool
	Scope    enum.ConversationScope
}

type ConversationRepository struct {
	Repository[entity.Conversation]
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{}
}

func (repository ConversationRepository) FindConversationByID(ctx context.Context, db *gorm.DB, id string) (*entity.Conversation, error) {
	return repository.FindByID(ctx, db, id)
}

// FindConversationForUpdate row-locks the conversation, serializing membership changes per conversation.
func (repository ConversationRepository) FindConversationForUpdate(ctx context.Context, tx *gorm.DB, id string) (*entity.Conversation, error) {
	var conversation entity.Conversation
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// FindDirectBetween returns the direct conversation where both users are still active, or nil.
func (repository ConversationRepository) FindDirectBetween(ctx context.Context, db *gorm.DB, userAID, userBID string) (*entity.Conversation, error) {
	memberOf := func(userID string) *gorm.DB {
		return db.Model(&entity.Participant{}).
			Scopes(ActiveParticipants).
			Select("conversation_id").
			Where("user_id = ?", userID)
	}

	var conversation entity.Conversation
	err := db.WithContext(ctx).
		Where("type = ?", enum.DIRECT).
		Where("id IN (?)", memberOf(userAID)).
		Where("id IN (?)", memberOf(userBID)).
		Order("created_at ASC").
		First(&conversation).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// FindAllByUserID lists the user's active conversations, newest activity first and
// conversations without messages last.
func (repository ConversationRepository) FindAllByUserID(ctx context.Context, db *gorm.DB, userID string, filter ConversationFilter) ([]entity.Conversation, error) {
	memberships := db.Model(&entity.Participant{}).
		Scopes(ActiveParticipants).
		Select("conversation_id").
		Where("user_id = ?", userID)

	query := db.WithContext(ctx).
		Model(&entity.Conversation{}).
		Where("id IN (?)", memberships)

	if filter.Archived != nil {
		query = query.Where("is_archived = ?", *filter.Archived)
	}
	if filter.Scope != "" {
		query = query.Where("scope = ?", filter.Scope)
	}

	var conversations []entity.Conversation
	err := query.
		Preload("Participants", ActiveParticipants).
		Order("last_message_at IS NULL").
		Order("last_message_at DESC").
		Order("created_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

func (repository ConversationRepository) UpdateLastMessage(ctx context.Context, tx *gorm.DB, message *entity.Message) error {
	senderID := message.SenderID
	return tx.WithContext(ctx).
		Model(&entity.Conversation{}).
		Where("id = ?", message.ConversationID).
		Updates(map[string]interface{}{
			"last_message_at":          message.CreatedAt,
			"last_message_preview":     message.Preview(),
			"last_message_sender_id":   &senderID,
			"last_message_sender_name": message.SenderName,
			"updated_at":               message.CreatedAt,
		}).Error
}

func (repository ConversationRepository) SetArchived(ctx context.Context, db *gorm.DB, id string, archived bool, at time.Time) error {
	return db.WithContext(ctx).
		Model(&entity.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_archived": archived, "updated_at": at}).Error
}

func (repository ConversationRepository) UpdateSettings(ctx context.Context, db *gorm.DB, id string, changes map[string]interface{}) error {
	if len(changes) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Model(&entity.Conversation{}).
		Where("id = ?", id).
		Updates(changes).Error
}
