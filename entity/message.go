package entity

import (
	"time"

	"gorm.io/datatypes"

	"bheem-chat/enum"
)

const DeletedMessagePlaceholder = "This message was deleted"

type Message struct {
	BaseEntity
	ConversationID   string           `json:"conversationId" gorm:"type:varchar(255);not null;index:idx_message_history,priority:1"`
	SenderID         string           `json:"senderId" gorm:"type:varchar(255);not null;index"`
	SenderName       string           `json:"senderName" gorm:"type:varchar(255)"`
	SenderAvatar     string           `json:"senderAvatar,omitempty" gorm:"type:text"`
	SenderTenantID   *string          `json:"senderTenantId,omitempty" gorm:"type:varchar(255)"`
	IsExternalSender bool             `json:"isExternalSender" gorm:"not null"`
	Content          string           `json:"content" gorm:"type:text"`
	MessageType      enum.MessageType `json:"messageType" gorm:"type:varchar(10);not null"`
	ReplyToID        *string          `json:"replyToId,omitempty" gorm:"type:varchar(255)"`
	IsEdited         bool             `json:"isEdited" gorm:"not null"`
	DeletedAt        *time.Time       `json:"deletedAt,omitempty" gorm:"index"`
	CallLogID        *string          `json:"callLogId,omitempty" gorm:"type:varchar(255)"`

	DeliveredTo datatypes.JSONSlice[string] `json:"deliveredTo"`
	ReadBy      datatypes.JSONSlice[string] `json:"readBy"`

	ReplyTo     *Message          `json:"-" gorm:"foreignKey:ReplyToID;references:ID;constraint:OnDelete:SET NULL;"`
	Attachments []Attachment      `json:"attachments" gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE;"`
	Reactions   []MessageReaction `json:"-" gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE;"`
}

func (m *Message) IsDeleted() bool {
	return m.DeletedAt != nil
}

// Preview renders the conversation list summary for this message.
func (m *Message) Preview() string {
	switch m.MessageType {
	case enum.MessageCall:
		return "Audio call"
	case enum.MessageImage:
		return "Sent an image"
	case enum.MessageFile:
		return "Sent a file"
	case enum.MessageSystem:
		return m.Content
	}
	runes := []rune(m.Content)
	if len(runes) > 200 {
		return string(runes[:200])
	}
	return m.Content
}

type Attachment struct {
	BaseEntity
	MessageID    string `json:"messageId" gorm:"type:varchar(255);not null;index"`
	FileName     string `json:"fileName" gorm:"type:varchar(255);not null"`
	MimeType     string `json:"mimeType" gorm:"type:varchar(255)"`
	Size         int64  `json:"size"`
	URL          string `json:"url" gorm:"type:text;not null"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty" gorm:"type:text"`
	Width        *int   `json:"width,omitempty"`
	Height       *int   `json:"height,omitempty"`
}

// MessageReaction is one (message, user, emoji) membership; presence means reacted.
type MessageReaction struct {
	MessageID string    `json:"messageId" gorm:"primaryKey;type:varchar(255)"`
	UserID    string    `json:"userId" gorm:"primaryKey;type:varchar(255)"`
	Emoji     string    `json:"emoji" gorm:"primaryKey;type:varchar(32)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
