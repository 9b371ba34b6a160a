package entity

import (
	"time"

	"bheem-chat/enum"
)

// Participant links a conversation to an internal user, an external authenticated user,
// or a guest backed by an ExternalContact. LeftAt is the soft-leave tombstone.
type Participant struct {
	BaseEntity
	ConversationID    string               `json:"conversationId" gorm:"type:varchar(255);not null;index;uniqueIndex:idx_participant_active_user,where:left_at IS NULL"`
	UserID            *string              `json:"userId,omitempty" gorm:"type:varchar(255);index;uniqueIndex:idx_participant_active_user,where:left_at IS NULL"`
	TenantID          *string              `json:"tenantId,omitempty" gorm:"type:varchar(255)"`
	ExternalTenantID  *string              `json:"externalTenantId,omitempty" gorm:"type:varchar(255)"`
	ExternalContactID *string              `json:"externalContactId,omitempty" gorm:"type:varchar(255);index"`
	DisplayName       string               `json:"displayName" gorm:"type:varchar(255)"`
	ParticipantType   enum.ParticipantType `json:"participantType" gorm:"type:varchar(20);not null"`
	Role              enum.ParticipantRole `json:"role" gorm:"type:varchar(10);not null"`

	LastReadAt        *time.Time `json:"lastReadAt"`
	LastReadMessageID *string    `json:"lastReadMessageId" gorm:"type:varchar(255)"`
	UnreadCount       int        `json:"unreadCount" gorm:"not null;default:0;check:chk_unread_non_negative,unread_count >= 0"`
	IsMuted           bool       `json:"isMuted" gorm:"not null"`

	InvitedBy *string    `json:"invitedBy,omitempty" gorm:"type:varchar(255)"`
	JoinedAt  time.Time  `json:"joinedAt"`
	LeftAt    *time.Time `json:"leftAt,omitempty" gorm:"index"`
}

func (p *Participant) IsActive() bool {
	return p.LeftAt == nil
}

// Is reports whether the participant row belongs to the given user.
func (p *Participant) Is(userID string) bool {
	return p.UserID != nil && *p.UserID == userID
}
