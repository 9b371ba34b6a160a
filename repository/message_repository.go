package repository

import (
	"context"
	"errors"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bheem-chat/entity"
)

type PageQuery struct {
	Limit  int
	Before *time.Time
	After  *time.Time
}

type SenderStat struct {
	SenderID     string `json:"senderId"`
	SenderName   string `json:"senderName"`
	MessageCount int64  `json:"messageCount"`
}

type MessageRepository struct {
	Repository[entity.Message]
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

// FindMessageByID returns tombstoned messages too.
func (repository MessageRepository) FindMessageByID(ctx context.Context, db *gorm.DB, id string) (*entity.Message, error) {
	var message entity.Message
	err := db.WithContext(ctx).
		Preload("Attachments").
		Where("id = ?", id).
		Take(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// FindPage reads newest-first so Limit keeps the most recent window, then returns it chronologically.
func (repository MessageRepository) FindPage(ctx context.Context, db *gorm.DB, conversationID string, page PageQuery) ([]entity.Message, error) {
	query := db.WithContext(ctx).
		Preload("Attachments").
		Where("conversation_id = ?", conversationID)
	if page.Before != nil {
		query = query.Where("created_at < ?", *page.Before)
	}
	if page.After != nil {
		query = query.Where("created_at > ?", *page.After)
	}

	var messages []entity.Message
	err := query.
		Order("created_at DESC").
		Limit(page.Limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}

func (repository MessageRepository) Latest(ctx context.Context, db *gorm.DB, conversationID string) (*entity.Message, error) {
	var message entity.Message
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (repository MessageRepository) Search(ctx context.Context, db *gorm.DB, conversationID, term string, limit int) ([]entity.Message, error) {
	var messages []entity.Message
	err := db.WithContext(ctx).
		Scopes(LiveMessages).
		Where("conversation_id = ?", conversationID).
		Where("LOWER(content) LIKE LOWER(?)", "%"+term+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (repository MessageRepository) ListForExport(ctx context.Context, db *gorm.DB, conversationID string) ([]entity.Message, error) {
	var messages []entity.Message
	err := db.WithContext(ctx).
		Preload("Attachments").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// ListUnreceipted returns the messages in (since, upTo] not sent by userID, locked for update.
func (repository MessageRepository) ListUnreceipted(ctx context.Context, tx *gorm.DB, conversationID, userID string, since *time.Time, upTo time.Time) ([]entity.Message, error) {
	query := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("conversation_id = ? AND sender_id <> ?", conversationID, userID).
		Where("created_at <= ?", upTo)
	if since != nil {
		query = query.Where("created_at > ?", *since)
	}
	var messages []entity.Message
	err := query.Order("created_at ASC").Find(&messages).Error
	return messages, err
}

func (repository MessageRepository) UpdateReceipts(ctx context.Context, tx *gorm.DB, message *entity.Message) error {
	return tx.WithContext(ctx).
		Model(&entity.Message{}).
		Where("id = ?", message.ID).
		UpdateColumns(map[string]interface{}{
			"delivered_to": message.DeliveredTo,
			"read_by":      message.ReadBy,
		}).Error
}

func (repository MessageRepository) EditContent(ctx context.Context, db *gorm.DB, id, content string, at time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&entity.Message{}).
		Scopes(LiveMessages).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"content":    content,
			"is_edited":  true,
			"updated_at": at,
		})
	return result.RowsAffected, result.Error
}

// SoftDelete swaps the content for the placeholder and stamps deleted_at. The row and
// its attachments are kept. Zero rows means it was already deleted.
func (repository MessageRepository) SoftDelete(ctx context.Context, db *gorm.DB, id string, at time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&entity.Message{}).
		Scopes(LiveMessages).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"content":    entity.DeletedMessagePlaceholder,
			"deleted_at": at,
			"updated_at": at,
		})
	return result.RowsAffected, result.Error
}

// ToggleReaction flips membership of (message, user, emoji). A delete that removes
// nothing means the reaction was absent, so it is inserted instead.
func (repository MessageRepository) ToggleReaction(ctx context.Context, tx *gorm.DB, messageID, userID, emoji string) (added bool, err error) {
	result := tx.WithContext(ctx).
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Delete(&entity.MessageReaction{})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return false, nil
	}

	reaction := entity.MessageReaction{MessageID: messageID, UserID: userID, Emoji: emoji}
	result = tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&reaction)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReactionsFor groups reactions as message id -> emoji -> user ids in reaction order.
func (repository MessageRepository) ReactionsFor(ctx context.Context, db *gorm.DB, messageIDs []string) (map[string]map[string][]string, error) {
	grouped := make(map[string]map[string][]string, len(messageIDs))
	if len(messageIDs) == 0 {
		return grouped, nil
	}

	var reactions []entity.MessageReaction
	err := db.WithContext(ctx).
		Where("message_id IN ?", messageIDs).
		Order("created_at ASC").
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}

	for _, reaction := range reactions {
		byEmoji, ok := grouped[reaction.MessageID]
		if !ok {
			byEmoji = make(map[string][]string)
			grouped[reaction.MessageID] = byEmoji
		}
		byEmoji[reaction.Emoji] = append(byEmoji[reaction.Emoji], reaction.UserID)
	}
	return grouped, nil
}

func (repository MessageRepository) CountByConversation(ctx context.Context, db *gorm.DB, conversationID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	return count, err
}

func (repository MessageRepository) CountBySender(ctx context.Context, db *gorm.DB, conversationID string) ([]SenderStat, error) {
	var stats []SenderStat
	err := db.WithContext(ctx).
		Model(&entity.Message{}).
		Select("sender_id, MAX(sender_name) AS sender_name, COUNT(*) AS message_count").
		Where("conversation_id = ?", conversationID).
		Group("sender_id").
		Order("message_count DESC").
		Scan(&stats).Error
	return stats, err
}

func (repository MessageRepository) Bounds(ctx context.Context, db *gorm.DB, conversationID string) (first *entity.Message, last *entity.Message, err error) {
	inConversation := func() *gorm.DB {
		return db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	}

	var oldest, newest entity.Message
	err = inConversation().Order("created_at ASC").First(&oldest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if err = inConversation().Order("created_at DESC").First(&newest).Error; err != nil {
		return nil, nil, err
	}
	return &oldest, &newest, nil
}
