package usecase

import (
	"context"

	"bheem-chat/dto/req"
	"bheem-chat/dto/res"
	"bheem-chat/security"
	"bheem-chat/storage"
)

type MessageUsecase interface {
	SendMessage(ctx context.Context, sender security.CurrentUser, conversationID string, request *req.SendMessageRequest) (res.MessageResponse, error)
	EditMessage(ctx context.Context, actor security.CurrentUser, messageID string, request *req.EditMessageRequest) (res.MessageResponse, error)
	DeleteMessage(ctx context.Context, actor security.CurrentUser, messageID string) (res.DeleteMessageResponse, error)
	ToggleReaction(ctx context.Context, user security.CurrentUser, messageID string, request *req.ReactRequest) (res.ReactionResponse, error)
	GetMessages(ctx context.Context, user security.CurrentUser, conversationID string, page req.MessagePageRequest) ([]res.MessageResponse, error)
	GetMessage(ctx context.Context, user security.CurrentUser, messageID string) (res.MessageResponse, error)
	SearchMessages(ctx context.Context, user security.CurrentUser, conversationID, term string, limit int) ([]res.MessageResponse, error)
	UploadAttachment(ctx context.Context, user security.CurrentUser, conversationID string, data []byte, meta storage.AttachmentMeta) (storage.StoredAttachment, error)
}
