package res

import (
	"time"

	"bheem-chat/entity"
	"bheem-chat/enum"
)

type ConversationResponse struct {
	ID                    string               `json:"id"`
	Type                  string               `json:"type"`
	Scope                 string               `json:"scope"`
	Name                  string               `json:"name"`
	AvatarURL             string               `json:"avatarUrl,omitempty"`
	CreatedBy             string               `json:"createdBy"`
	LastMessageAt         *time.Time           `json:"lastMessageAt"`
	LastMessagePreview    string               `json:"lastMessagePreview"`
	LastMessageSenderID   *string              `json:"lastMessageSenderId"`
	LastMessageSenderName string               `json:"lastMessageSenderName"`
	IsArchived            bool                 `json:"isArchived"`
	AllowExternalFiles    bool                 `json:"allowExternalFiles"`
	EnableLinkPreviews    bool                 `json:"enableLinkPreviews"`
	UnreadCount           int                  `json:"unreadCount"`
	IsMuted               bool                 `json:"isMuted"`
	Participants          []entity.Participant `json:"participants"`
	CreatedAt             time.Time            `json:"createdAt"`
}

// NewConversationResponse renders a conversation from the viewpoint of viewerID; direct
// conversations without a name take the other member's display name.
func NewConversationResponse(conversation *entity.Conversation, participants []entity.Participant, viewerID string) ConversationResponse {
	response := ConversationResponse{
		ID:                    conversation.ID,
		Type:                  string(conversation.Type),
		Scope:                 string(conversation.Scope),
		Name:                  conversation.Name,
		AvatarURL:             conversation.AvatarURL,
		CreatedBy:             conversation.CreatedBy,
		LastMessageAt:         conversation.LastMessageAt,
		LastMessagePreview:    conversation.LastMessagePreview,
		LastMessageSenderID:   conversation.LastMessageSenderID,
		LastMessageSenderName: conversation.LastMessageSenderName,
		IsArchived:            conversation.IsArchived,
		AllowExternalFiles:    conversation.AllowExternalFiles,
		EnableLinkPreviews:    conversation.EnableLinkPreviews,
		Participants:          participants,
		CreatedAt:             conversation.CreatedAt,
	}
	if response.Participants == nil {
		response.Participants = []entity.Participant{}
	}

	for i := range participants {
		participant := &participants[i]
		if participant.Is(viewerID) {
			response.UnreadCount = participant.UnreadCount
			response.IsMuted = participant.IsMuted
			continue
		}
		if conversation.Type == enum.DIRECT && response.Name == "" {
			response.Name = participant.DisplayName
		}
	}
	return response
}

type UnreadResponse struct {
	Total         int            `json:"total"`
	Conversations map[string]int `json:"conversations"`
}

type ReadResponse struct {
	ConversationID    string    `json:"conversationId"`
	LastReadMessageID *string   `json:"lastReadMessageId"`
	LastReadAt        time.Time `json:"lastReadAt"`
	UnreadCount       int       `json:"unreadCount"`
}

type InvitationResponse struct {
	Invitation *entity.Invitation `json:"invitation"`
	Token      string             `json:"token,omitempty"`
}

type StatsResponse struct {
	ConversationID string       `json:"conversationId"`
	MessageCount   int64        `json:"messageCount"`
	BySender       []SenderStat `json:"bySender"`
	FirstMessageAt *time.Time   `json:"firstMessageAt"`
	LastMessageAt  *time.Time   `json:"lastMessageAt"`
}

type SenderStat struct {
	SenderID     string `json:"senderId"`
	SenderName   string `json:"senderName"`
	MessageCount int64  `json:"messageCount"`
}
