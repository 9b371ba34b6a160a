package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bheem-chat/dto/req"
	"bheem-chat/dto/res"
	"bheem-chat/entity"
	"bheem-chat/enum"
	"bheem-chat/realtime"
	"bheem-chat/repository"
	"bheem-chat/security"
)

type ConversationUsecaseImpl struct {
	*Repositories
	*validator.Validate
	*gorm.DB
	*logrus.Logger
	Publisher realtime.Publisher
	Now       Clock
}

func NewConversationUsecase(repositories *Repositories, validate *validator.Validate, DB *gorm.DB, logger *logrus.Logger, publisher realtime.Publisher) *ConversationUsecaseImpl {
	return &ConversationUsecaseImpl{Repositories: repositories, Validate: validate, DB: DB, Logger: logger, Publisher: publisher, Now: SystemClock}
}

// CreateConversation adds the creator as owner. The request lists the other members; a
// direct conversation must end up with exactly two, and a direct pair that already
// talks returns the existing conversation.
func (uc *ConversationUsecaseImpl) CreateConversation(ctx context.Context, creator security.CurrentUser, request *req.CreateConversationRequest) (res.ConversationResponse, error) {
	if err := uc.Validate.Struct(request); err != nil {
		uc.Logger.WithError(err).Errorf("failed to validate request : %v", err)
		return res.ConversationResponse{}, err
	}

	conversationType := enum.ConversationType(request.Type)
	scope := enum.ConversationScope(request.Scope)
	if scope == "" {
		scope = enum.ScopeInternal
	}
	now := uc.Now()

	participants, err := uc.resolveParticipants(ctx, creator, request.Participants, now)
	if err != nil {
		return res.ConversationResponse{}, err
	}

	if conversationType == enum.DIRECT && len(participants) != 2 {
		return res.ConversationResponse{}, invalid("a direct conversation needs exactly two participants, got %d", len(participants))
	}
	if scope == enum.ScopeInternal {
		for _, participant := range participants {
			if participant.ParticipantType != enum.ParticipantInternal {
				return res.ConversationResponse{}, fmt.Errorf("%w: %s", ErrScopeMismatch, participant.DisplayName)
			}
		}
	}

	if conversationType == enum.DIRECT && participants[1].UserID != nil {
		existing, err := uc.Conversations.FindDirectBetween(ctx, uc.DB, creator.ID, *participants[1].UserID)
		if err != nil {
			return res.ConversationResponse{}, persistence(err)
		}
		if existing != nil {
			return uc.render(ctx, existing, creator.ID)
		}
	}

	conversation := &entity.Conversation{
		Type:               conversationType,
		Scope:              scope,
		Name:               request.Name,
		AvatarURL:          request.AvatarURL,
		CreatedBy:          creator.ID,
		AllowExternalFiles: true,
		EnableLinkPreviews: true,
	}
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	if scope != enum.ScopeCrossTenant {
		conversation.TenantID = creator.TenantRef()
	}

	trx := uc.DB.WithContext(ctx).Begin()
	defer trx.Rollback()

	if err := uc.Conversations.Save(ctx, trx, conversation); err != nil {
		uc.Logger.WithError(err).Errorf("failed to save conversation : %v", err)
		return res.ConversationResponse{}, persistence(err)
	}
	for i := range participants {
		participants[i].ConversationID = conversation.ID
	}
	if err := uc.Participants.SaveAll(ctx, trx, participants); err != nil {
		uc.Logger.WithError(err).Errorf("failed to save participants : %v", err)
		return res.ConversationResponse{}, persistence(err)
	}
	if err := trx.Commit().Error; err != nil {
		uc.Logger.WithError(err).Errorf("failed to commit conversation : %v", err)
		return res.ConversationResponse{}, persistence(err)
	}

	uc.Logger.WithFields(logrus.Fields{
		"conversationId": conversation.ID,
		"type":           conversation.Type,
		"participants":   len(participants),
	}).Info("conversation created")

	return res.NewConversationResponse(conversation, participants, creator.ID), nil
}

func (uc *ConversationUsecaseImpl) resolveParticipants(ctx context.Context, creator security.CurrentUser, inputs []req.ParticipantInput, now time.Time) ([]entity.Participant, error) {
	creatorID := creator.ID
	participants := []entity.Participant{{
		UserID:          &creatorID,
		TenantID:        creator.TenantRef(),
		DisplayName:     creator.Name,
		ParticipantType: enum.ParticipantInternal,
		Role:            enum.RoleOwner,
		JoinedAt:        now,
	}}

	seen := map[string]bool{"user:" + creator.ID: true}
	for _, input := range inputs {
		participant, err := buildParticipant(ctx, uc.DB, uc.Repositories, creator.TenantID, input, enum.RoleMember, now)
		if err != nil {
			return nil, err
		}
		key := identityKey(participant)
		if seen[key] {
			continue
		}
		seen[key] = true
		invitedBy := creator.ID
		participant.InvitedBy = &invitedBy
		participants = append(participants, *participant)
	}
	return participants, nil
}

func (uc *ConversationUsecaseImpl) GetConversation(ctx context.Context, user security.CurrentUser, conversationID string) (res.ConversationResponse, error) {
	conversation, _, err := uc.membership(ctx, uc.DB, conversationID, user.ID)
	if err != nil {
		return res.ConversationResponse{}, err
	}
	return uc.render(ctx, conversation, user.ID)
}

func (uc *ConversationUsecaseImpl) GetConversationsForUser(ctx context.Context, user security.CurrentUser, filter repository.ConversationFilter) ([]res.ConversationResponse, error) {
	conversations, err := uc.Conversations.FindAllByUserID(ctx, uc.DB, user.ID, filter)
	if err != nil {
		uc.Logger.WithError(err).Error("Failed to get conversations by user ID")
		return nil, persistence(err)
	}

	responses := make([]res.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		responses = append(responses, res.NewConversationResponse(&conversations[i], conversations[i].Participants, user.ID))
	}
	return responses, nil
}

func (uc *ConversationUsecaseImpl) UpdateConversation(ctx context.Context, actor security.CurrentUser, conversationID string, request *req.UpdateConversationRequest) (res.ConversationResponse, error) {
	if err := uc.Validate.Struct(request); err != nil {
		return res.ConversationResponse{}, err
	}
	conversation, participant, err := uc.membership(ctx, uc.DB, conversationID, actor.ID)
	if err != nil {
		return res.ConversationResponse{}, err
	}
	if !participant.Role.CanModerate() {
		return res.ConversationResponse{}, fmt.Errorf("%w: only owners and admins can change conversation settings", ErrPermission)
	}

	changes := map[string]interface{}{}
	if request.Name != nil {
		changes["name"] = *request.Name
	}
	if request.AvatarURL != nil {
		changes["avatar_url"] = *request.AvatarURL
	}
	if request.AllowExternalFiles != nil {
		changes["allow_external_files"] = *request.AllowExternalFiles
	}
	if request.EnableLinkPreviews != nil {
		changes["enable_link_previews"] = *request.EnableLinkPreviews
	}
	if len(changes) > 0 {
		changes["updated_at"] = uc.Now()
	}
	if err := uc.Conversations.UpdateSettings(ctx, uc.DB, conversation.ID, changes); err != nil {
		return res.ConversationResponse{}, persistence(err)
	}
	if conversation, err = uc.Conversations.FindConversationByID(ctx, uc.DB, conversationID); err != nil {
		return res.ConversationResponse{}, notFound("conversation", err)
	}

	response, err := uc.render(ctx, conversation, actor.ID)
	if err == nil {
		publish(ctx, uc.Publisher, uc.Logger, realtime.ConversationTopic(conversation.ID),
			conversationEvent(realtime.EventConversationUpdate, conversation.ID, response, uc.Now()))
	}
	return response, err
}

// ArchiveConversation is idempotent; only owners and admins may archive.
func (uc *ConversationUsecaseImpl) ArchiveConversation(ctx context.Context, actor security.CurrentUser, conversationID string) error {
	return uc.setArchived(ctx, actor, conversationID, true)
}

func (uc *ConversationUsecaseImpl) UnarchiveConversation(ctx context.Context, actor security.CurrentUser, conversationID string) error {
	return uc.setArchived(ctx, actor, conversationID, false)
}

func (uc *ConversationUsecaseImpl) setArchived(ctx context.Context, actor security.CurrentUser, conversationID string, archived bool) error {
	conversation, participant, err := uc.membership(ctx, uc.DB, conversationID, actor.ID)
	if err != nil {
		return err
	}
	if !participant.Role.CanModerate() {
		return fmt.Errorf("%w: only owners and admins can archive", ErrPermission)
	}
	if conversation.IsArchived == archived {
		return nil
	}
	if err := uc.Conversations.SetArchived(ctx, uc.DB, conversation.ID, archived, uc.Now()); err != nil {
		uc.Logger.WithError(err).Errorf("failed to archive conversation %s", conversation.ID)
		return persistence(err)
	}
	uc.Logger.WithField("conversationId", conversation.ID).Infof("conversation archived=%v by %s", archived, actor.ID)
	return nil
}

func (uc *ConversationUsecaseImpl) render(ctx context.Context, conversation *entity.Conversation, viewerID string) (res.ConversationResponse, error) {
	participants, err := uc.Participants.ListActive(ctx, uc.DB, conversation.ID)
	if err != nil {
		return res.ConversationResponse{}, persistence(err)
	}
	return res.NewConversationResponse(conversation, participants, viewerID), nil
}
