package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bheem-chat/dto/req"
	"bheem-chat/dto/res"
	"bheem-chat/entity"
	"bheem-chat/enum"
	"bheem-chat/realtime"
	"bheem-chat/security"
)

type InvitationUsecaseImpl struct {
	*Repositories
	*validator.Validate
	*gorm.DB
	*logrus.Logger
	Publisher realtime.Publisher
	TTL       time.Duration
	Now       Clock
}

func NewInvitationUsecase(repositories *Repositories, validate *validator.Validate, DB *gorm.DB, logger *logrus.Logger, publisher realtime.Publisher, ttl time.Duration) *InvitationUsecaseImpl {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &InvitationUsecaseImpl{Repositories: repositories, Validate: validate, DB: DB, Logger: logger, Publisher: publisher, TTL: ttl, Now: SystemClock}
}

// Invite issues a one-time token for a group conversation. The plain token is only
// returned here; the stored row keeps a bcrypt hash of its secret.
func (uc *InvitationUsecaseImpl) Invite(ctx context.Context, inviter security.CurrentUser, conversationID string, request *req.InviteRequest) (res.InvitationResponse, error) {
	if err := uc.Validate.Struct(request); err != nil {
		uc.Logger.WithError(err).Errorf("failed to validate request : %v", err)
		return res.InvitationResponse{}, err
	}
	conversation, participant, err := uc.membership(ctx, uc.DB, conversationID, inviter.ID)
	if err != nil {
		return res.InvitationResponse{}, err
	}
	if conversation.Type == enum.DIRECT {
		return res.InvitationResponse{}, fmt.Errorf("%w: direct conversations take no invitations", ErrCapacity)
	}
	if !participant.Role.CanModerate() {
		return res.InvitationResponse{}, fmt.Errorf("%w: only owners and admins can invite", ErrPermission)
	}

	now := uc.Now()
	invitation := &entity.Invitation{
		ConversationID:  conversationID,
		InviterID:       inviter.ID,
		InviterName:     inviter.Name,
		InviterTenantID: inviter.TenantRef(),
		InviteeEmail:    strings.ToLower(strings.TrimSpace(request.Email)),
		Status:          enum.InvitationPending,
		ExpiresAt:       now.Add(uc.TTL),
	}
	invitation.ID = uuid.New().String()

	token, hash, err := security.NewOpaqueToken(invitation.ID)
	if err != nil {
		return res.InvitationResponse{}, fmt.Errorf("generate invitation token: %w", err)
	}
	invitation.TokenHash = hash

	if err := uc.Invitations.Save(ctx, uc.DB, invitation); err != nil {
		uc.Logger.WithError(err).Errorf("failed to save invitation : %v", err)
		return res.InvitationResponse{}, persistence(err)
	}
	uc.Logger.WithFields(logrus.Fields{"conversationId": conversationID, "invitationId": invitation.ID}).Info("invitation sent")
	return res.InvitationResponse{Invitation: invitation, Token: token}, nil
}

// resolve finds the invitation a token refers to. Unknown ids and wrong secrets look the same.
func (uc *InvitationUsecaseImpl) resolve(ctx context.Context, db *gorm.DB, token string) (*entity.Invitation, error) {
	id, secret, err := security.SplitOpaqueToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: invitation", ErrNotFound)
	}
	invitation, err := uc.Invitations.FindInvitationByID(ctx, db, id)
	if err != nil {
		return nil, notFound("invitation", err)
	}
	if !security.CompareOpaqueSecret(invitation.TokenHash, secret) {
		return nil, fmt.Errorf("%w: invitation", ErrNotFound)
	}
	return invitation, nil
}

func (uc *InvitationUsecaseImpl) checkPending(ctx context.Context, invitation *entity.Invitation, now time.Time) error {
	if invitation.Status != enum.InvitationPending {
		return fmt.Errorf("%w: invitation is %s", ErrConflict, invitation.Status)
	}
	if !invitation.ExpiresAt.After(now) {
		if _, err := uc.Invitations.ExpirePending(ctx, uc.DB, now); err != nil {
			uc.Logger.WithError(err).Warn("failed to expire invitations")
		}
		return fmt.Errorf("%w: invitation expired", ErrConflict)
	}
	return nil
}

// AcceptInvitation joins the caller to the conversation. Callers from another tenant
// join as external users. Accepting while already a member keeps the existing row.
func (uc *InvitationUsecaseImpl) AcceptInvitation(ctx context.Context, user security.CurrentUser, token string) (*entity.Participant, error) {
	now := uc.Now()
	invitation, err := uc.resolve(ctx, uc.DB, token)
	if err != nil {
		return nil, err
	}
	if err := uc.checkPending(ctx, invitation, now); err != nil {
		return nil, err
	}

	trx := uc.DB.WithContext(ctx).Begin()
	defer trx.Rollback()

	conversation, err := uc.Conversations.FindConversationForUpdate(ctx, trx, invitation.ConversationID)
	if err != nil {
		return nil, notFound("conversation", err)
	}
	affected, err := uc.Invitations.Respond(ctx, trx, invitation.ID, enum.InvitationAccepted, user.ID, now)
	if err != nil {
		return nil, persistence(err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: invitation already answered", ErrConflict)
	}

	existing, err := uc.Participants.FindActive(ctx, trx, conversation.ID, user.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, persistence(err)
	}
	participant := existing
	if participant == nil {
		ownerTenant := ""
		if conversation.TenantID != nil {
			ownerTenant = *conversation.TenantID
		} else if invitation.InviterTenantID != nil {
			ownerTenant = *invitation.InviterTenantID
		}
		input := req.ParticipantInput{UserID: user.ID, TenantID: user.TenantID, DisplayName: user.Name}
		participant, err = buildParticipant(ctx, trx, uc.Repositories, ownerTenant, input, enum.RoleMember, now)
		if err != nil {
			return nil, err
		}
		inviter := invitation.InviterID
		participant.InvitedBy = &inviter
		if err := addToConversation(ctx, trx, uc.Repositories, conversation, participant); err != nil {
			return nil, err
		}
	}
	if err := trx.Commit().Error; err != nil {
		return nil, persistence(err)
	}

	if existing == nil {
		publish(ctx, uc.Publisher, uc.Logger, realtime.ConversationTopic(conversation.ID),
			conversationEvent(realtime.EventParticipantJoined, conversation.ID, participant, now))
	}
	return participant, nil
}

func (uc *InvitationUsecaseImpl) DeclineInvitation(ctx context.Context, user security.CurrentUser, token string) error {
	now := uc.Now()
	invitation, err := uc.resolve(ctx, uc.DB, token)
	if err != nil {
		return err
	}
	if err := uc.checkPending(ctx, invitation, now); err != nil {
		return err
	}
	affected, err := uc.Invitations.Respond(ctx, uc.DB, invitation.ID, enum.InvitationDeclined, user.ID, now)
	if err != nil {
		return persistence(err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: invitation already answered", ErrConflict)
	}
	return nil
}

func (uc *InvitationUsecaseImpl) ExpireInvitations(ctx context.Context) (int64, error) {
	expired, err := uc.Invitations.ExpirePending(ctx, uc.DB, uc.Now())
	if err != nil {
		return 0, persistence(err)
	}
	return expired, nil
}
