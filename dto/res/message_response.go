package res

import (
	"time"

	"bheem-chat/entity"
)

type MessageResponse struct {
	ID               string              `json:"id"`
	ConversationID   string              `json:"conversationId"`
	SenderID         string              `json:"senderId"`
	SenderName       string              `json:"senderName"`
	SenderAvatar     string              `json:"senderAvatar,omitempty"`
	IsExternalSender bool                `json:"isExternalSender"`
	Content          string              `json:"content"`
	MessageType      string              `json:"messageType"`
	ReplyToID        *string             `json:"replyToId,omitempty"`
	Reactions        map[string][]string `json:"reactions"`
	IsEdited         bool                `json:"isEdited"`
	IsDeleted        bool                `json:"isDeleted"`
	DeliveredTo      []string            `json:"deliveredTo"`
	ReadBy           []string            `json:"readBy"`
	CallLogID        *string             `json:"callLogId,omitempty"`
	Attachments      []entity.Attachment `json:"attachments"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

func NewMessageResponse(message *entity.Message, reactions map[string][]string) MessageResponse {
	if reactions == nil {
		reactions = map[string][]string{}
	}
	response := MessageResponse{
		ID:               message.ID,
		ConversationID:   message.ConversationID,
		SenderID:         message.SenderID,
		SenderName:       message.SenderName,
		SenderAvatar:     message.SenderAvatar,
		IsExternalSender: message.IsExternalSender,
		Content:          message.Content,
		MessageType:      string(message.MessageType),
		ReplyToID:        message.ReplyToID,
		Reactions:        reactions,
		IsEdited:         message.IsEdited,
		IsDeleted:        message.IsDeleted(),
		DeliveredTo:      nonNil(message.DeliveredTo),
		ReadBy:           nonNil(message.ReadBy),
		CallLogID:        message.CallLogID,
		Attachments:      message.Attachments,
		CreatedAt:        message.CreatedAt,
		UpdatedAt:        message.UpdatedAt,
	}
	if response.Attachments == nil {
		response.Attachments = []entity.Attachment{}
	}
	return response
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

type ReactionResponse struct {
	MessageID string              `json:"messageId"`
	Emoji     string              `json:"emoji"`
	Action    string              `json:"action"`
	Reactions map[string][]string `json:"reactions"`
}

type DeleteMessageResponse struct {
	MessageID string `json:"messageId"`
	IsDeleted bool   `json:"isDeleted"`
}
