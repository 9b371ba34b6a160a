package entity

import (
	"time"

	"bheem-chat/enum"
)

type Conversation struct {
	BaseEntity
	TenantID  *string                `json:"tenantId,omitempty" gorm:"type:varchar(255);index"`
	Type      enum.ConversationType  `json:"type" gorm:"type:varchar(10);not null;check:chk_conversation_type,type IN ('direct','group')"`
	Scope     enum.ConversationScope `json:"scope" gorm:"type:varchar(20);not null;check:chk_conversation_scope,scope IN ('internal','external','cross_tenant')"`
	Name      string                 `json:"name" gorm:"type:varchar(255)"`
	AvatarURL string                 `json:"avatarUrl,omitempty" gorm:"type:text"`
	CreatedBy string                 `json:"createdBy" gorm:"type:varchar(255);not null"`

	LastMessageAt         *time.Time `json:"lastMessageAt" gorm:"index"`
	LastMessagePreview    string     `json:"lastMessagePreview" gorm:"type:varchar(255)"`
	LastMessageSenderID   *string    `json:"lastMessageSenderId" gorm:"type:varchar(255)"`
	LastMessageSenderName string     `json:"lastMessageSenderName" gorm:"type:varchar(255)"`

	IsArchived         bool `json:"isArchived" gorm:"not null"`
	AllowExternalFiles bool `json:"allowExternalFiles" gorm:"not null"`
	EnableLinkPreviews bool `json:"enableLinkPreviews" gorm:"not null"`

	Participants []Participant `json:"participants,omitempty" gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE;"`
	Messages     []Message     `json:"-" gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE;"`
}
