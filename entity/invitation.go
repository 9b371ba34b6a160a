package entity

import (
	"time"

	"bheem-chat/enum"
)

type Invitation struct {
	BaseEntity
	ConversationID  string                `json:"conversationId" gorm:"type:varchar(255);not null;index"`
	InviterID       string                `json:"inviterId" gorm:"type:varchar(255);not null"`
	InviterName     string                `json:"inviterName" gorm:"type:varchar(255)"`
	InviterTenantID *string               `json:"inviterTenantId,omitempty" gorm:"type:varchar(255)"`
	InviteeEmail    string                `json:"inviteeEmail" gorm:"type:varchar(320);not null"`
	TokenHash       string                `json:"-" gorm:"type:varchar(255);not null"`
	Status          enum.InvitationStatus `json:"status" gorm:"type:varchar(10);not null;index"`
	ExpiresAt       time.Time             `json:"expiresAt" gorm:"index"`
	RespondedAt     *time.Time            `json:"respondedAt,omitempty"`
	RespondedBy     *string               `json:"respondedBy,omitempty" gorm:"type:varchar(255)"`
}
