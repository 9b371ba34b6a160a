package usecase

import (
	"context"

	"bheem-chat/dto/req"
	"bheem-chat/dto/res"
	"bheem-chat/entity"
	"bheem-chat/security"
)

type ParticipantUsecase interface {
	ListParticipants(ctx context.Context, user security.CurrentUser, conversationID string) ([]entity.Participant, error)
	AddParticipant(ctx context.Context, actor security.CurrentUser, conversationID string, request *req.AddParticipantRequest) (*entity.Participant, error)
	RemoveParticipant(ctx context.Context, actor security.CurrentUser, conversationID, userID string) error
	MarkRead(ctx context.Context, user security.CurrentUser, conversationID, upToMessageID string) (res.ReadResponse, error)
	ToggleMute(ctx context.Context, user security.CurrentUser, conversationID string) (*entity.Participant, error)
	GetUnread(ctx context.Context, user security.CurrentUser) (res.UnreadResponse, error)
}
