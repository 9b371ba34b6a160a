package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bheem-chat/entity"
	"bheem-chat/enum"
)

type ExternalContactRepository struct {
	Repository[entity.ExternalContact]
}

func NewExternalContactRepository() *ExternalContactRepository {
	return &ExternalContactRepository{}
}

func (repository ExternalContactRepository) FindContact(ctx context.Context, db *gorm.DB, tenantID, contactID string) (*entity.ExternalContact, error) {
	var contact entity.ExternalContact
	err := db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", contactID, tenantID).
		Take(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// StampLastContacted sets last_contacted_at on every contact that is an active guest of the conversation.
func (repository ExternalContactRepository) StampLastContacted(ctx context.Context, tx *gorm.DB, conversationID string, at time.Time) (int64, error) {
	guests := tx.Model(&entity.Participant{}).
		Scopes(ActiveParticipants).
		Select("external_contact_id").
		Where("conversation_id = ? AND participant_type = ? AND external_contact_id IS NOT NULL", conversationID, enum.ParticipantGuest)

	result := tx.WithContext(ctx).
		Model(&entity.ExternalContact{}).
		Where("id IN (?)", guests).
		UpdateColumns(map[string]interface{}{"last_contacted_at": at, "updated_at": at})
	return result.RowsAffected, result.Error
}
