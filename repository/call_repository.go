package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bheem-chat/entity"
	"bheem-chat/enum"
)

type CallLogRepository struct {
	Repository[entity.CallLog]
}

func NewCallLogRepository() *CallLogRepository {
	return &CallLogRepository{}
}

func (repository CallLogRepository) FindCallForUpdate(ctx context.Context, tx *gorm.DB, id string) (*entity.CallLog, error) {
	var call entity.CallLog
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&call).Error
	if err != nil {
		return nil, err
	}
	return &call, nil
}

func (repository CallLogRepository) FindActiveCall(ctx context.Context, db *gorm.DB, conversationID string) (*entity.CallLog, error) {
	var call entity.CallLog
	err := db.WithContext(ctx).
		Where("conversation_id = ? AND status IN ?", conversationID, []enum.CallStatus{enum.CallRinging, enum.CallOngoing}).
		Order("created_at DESC").
		First(&call).Error
	if err != nil {
		return nil, err
	}
	return &call, nil
}

func (repository CallLogRepository) ExpireRinging(ctx context.Context, db *gorm.DB, startedBefore, now time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&entity.CallLog{}).
		Where("status = ? AND created_at < ?", enum.CallRinging, startedBefore).
		UpdateColumns(map[string]interface{}{
			"status":     enum.CallNoAnswer,
			"ended_at":   now,
			"end_reason": "timeout",
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}
