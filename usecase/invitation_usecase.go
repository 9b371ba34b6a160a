package usecase

import (
	"context"

	"bheem-chat/dto/req"
	"bheem-chat/dto/res"
	"bheem-chat/entity"
	"bheem-chat/security"
)

type InvitationUsecase interface {
	Invite(ctx context.Context, inviter security.CurrentUser, conversationID string, request *req.InviteRequest) (res.InvitationResponse, error)
	AcceptInvitation(ctx context.Context, user security.CurrentUser, token string) (*entity.Participant, error)
	DeclineInvitation(ctx context.Context, user security.CurrentUser, token string) error
	ExpireInvitations(ctx context.Context) (int64, error)
}
