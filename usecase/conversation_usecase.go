package usecase

import (
	"context"

	"bheem-chat/dto/req"
	"bheem-chat/dto/res"
	"bheem-chat/repository"
	"bheem-chat/security"
)

type ConversationUsecase interface {
	CreateConversation(ctx context.Context, creator security.CurrentUser, request *req.CreateConversationRequest) (res.ConversationResponse, error)
	GetConversation(ctx context.Context, user security.CurrentUser, conversationID string) (res.ConversationResponse, error)
	GetConversationsForUser(ctx context.Context, user security.CurrentUser, filter repository.ConversationFilter) ([]res.ConversationResponse, error)
	UpdateConversation(ctx context.Context, actor security.CurrentUser, conversationID string, request *req.UpdateConversationRequest) (res.ConversationResponse, error)
	ArchiveConversation(ctx context.Context, actor security.CurrentUser, conversationID string) error
	UnarchiveConversation(ctx context.Context, actor security.CurrentUser, conversationID string) error
}
