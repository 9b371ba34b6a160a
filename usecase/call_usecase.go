package usecase

import (
	"context"
	"time"

	"bheem-chat/dto/req"
	"bheem-chat/entity"
	"bheem-chat/security"
)

type CallUsecase interface {
	StartCall(ctx context.Context, caller security.CurrentUser, conversationID string, request *req.StartCallRequest) (*entity.CallLog, error)
	JoinCall(ctx context.Context, user security.CurrentUser, callID string) (*entity.CallLog, error)
	DeclineCall(ctx context.Context, user security.CurrentUser, callID string) (*entity.CallLog, error)
	EndCall(ctx context.Context, user security.CurrentUser, callID string, request *req.EndCallRequest) (*entity.CallLog, error)
	ExpireRingingCalls(ctx context.Context, timeout time.Duration) (int64, error)
}
