package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bheem-chat/dto/req"
	"bheem-chat/dto/res"
	"bheem-chat/entity"
	"bheem-chat/enum"
	"bheem-chat/realtime"
	"bheem-chat/security"
)

type ParticipantUsecaseImpl struct {
	*Repositories
	*validator.Validate
	*gorm.DB
	*logrus.Logger
	Publisher realtime.Publisher
	Now       Clock
}

func NewParticipantUsecase(repositories *Repositories, validate *validator.Validate, DB *gorm.DB, logger *logrus.Logger, publisher realtime.Publisher) *ParticipantUsecaseImpl {
	return &ParticipantUsecaseImpl{Repositories: repositories, Validate: validate, DB: DB, Logger: logger, Publisher: publisher, Now: SystemClock}
}

func identityKey(participant *entity.Participant) string {
	if participant.UserID != nil {
		return "user:" + *participant.UserID
	}
	if participant.ExternalContactID != nil {
		return "contact:" + *participant.ExternalContactID
	}
	return "participant:" + participant.ID
}

// buildParticipant classifies an identity relative to the owning tenant: external
// contacts become guests, users of another tenant become external users.
func buildParticipant(ctx context.Context, db *gorm.DB, repositories *Repositories, ownerTenantID string, input req.ParticipantInput, role enum.ParticipantRole, now time.Time) (*entity.Participant, error) {
	participant := &entity.Participant{Role: role, JoinedAt: now, DisplayName: input.DisplayName}

	if input.ExternalContactID != "" {
		contact, err := repositories.Contacts.FindContact(ctx, db, ownerTenantID, input.ExternalContactID)
		if err != nil {
			return nil, notFound("external contact", err)
		}
		contactID := contact.ID
		participant.ExternalContactID = &contactID
		participant.ParticipantType = enum.ParticipantGuest
		if participant.DisplayName == "" {
			participant.DisplayName = contact.Name
		}
		return participant, nil
	}

	if input.UserID == "" {
		return nil, invalid("participant needs a userId or an externalContactId")
	}
	userID := input.UserID
	participant.UserID = &userID
	if participant.DisplayName == "" {
		participant.DisplayName = userID
	}

	tenant := input.TenantID
	if tenant == "" {
		tenant = ownerTenantID
	}
	if tenant != "" {
		participant.TenantID = &tenant
	}
	participant.ParticipantType = enum.ParticipantInternal
	if tenant != ownerTenantID {
		participant.ParticipantType = enum.ParticipantExternalUser
		participant.ExternalTenantID = &tenant
	}
	return participant, nil
}

// addToConversation enforces the active-duplicate, direct-capacity and scope rules under
// the conversation row lock held by tx.
func addToConversation(ctx context.Context, tx *gorm.DB, repositories *Repositories, conversation *entity.Conversation, participant *entity.Participant) error {
	var existing *entity.Participant
	var err error
	switch {
	case participant.UserID != nil:
		existing, err = repositories.Participants.FindActive(ctx, tx, conversation.ID, *participant.UserID)
	case participant.ExternalContactID != nil:
		existing, err = repositories.Participants.FindActiveByContact(ctx, tx, conversation.ID, *participant.ExternalContactID)
	default:
		return invalid("participant has no identity")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return persistence(err)
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateParticipant, identityKey(participant))
	}

	if conversation.Type == enum.DIRECT {
		count, err := repositories.Participants.CountActive(ctx, tx, conversation.ID)
		if err != nil {
			return persistence(err)
		}
		if count >= 2 {
			return fmt.Errorf("%w: direct conversation already has two participants", ErrCapacity)
		}
	}
	if conversation.Scope == enum.ScopeInternal && participant.ParticipantType != enum.ParticipantInternal {
		return fmt.Errorf("%w: %s", ErrScopeMismatch, identityKey(participant))
	}

	participant.ConversationID = conversation.ID
	if err := repositories.Participants.Save(ctx, tx, participant); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateParticipant, identityKey(participant))
		}
		return persistence(err)
	}
	return nil
}

func (uc *ParticipantUsecaseImpl) ListParticipants(ctx context.Context, user security.CurrentUser, conversationID string) ([]entity.Participant, error) {
	if _, _, err := uc.membership(ctx, uc.DB, conversationID, user.ID); err != nil {
		return nil, err
	}
	participants, err := uc.Participants.ListActive(ctx, uc.DB, conversationID)
	if err != nil {
		return nil, persistence(err)
	}
	return participants, nil
}

func (uc *ParticipantUsecaseImpl) AddParticipant(ctx context.Context, actor security.CurrentUser, conversationID string, request *req.AddParticipantRequest) (*entity.Participant, error) {
	if err := uc.Validate.Struct(request); err != nil {
		uc.Logger.WithError(err).Errorf("failed to validate request : %v", err)
		return nil, err
	}
	now := uc.Now()

	trx := uc.DB.WithContext(ctx).Begin()
	defer trx.Rollback()

	conversation, err := uc.Conversations.FindConversationForUpdate(ctx, trx, conversationID)
	if err != nil {
		return nil, notFound("conversation", err)
	}
	inviter, err := uc.Participants.FindActive(ctx, trx, conversationID, actor.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotAMember, conversationID)
	}
	if err != nil {
		return nil, persistence(err)
	}
	if conversation.Type == enum.GROUP && !inviter.Role.CanModerate() {
		return nil, fmt.Errorf("%w: only owners and admins can add participants", ErrPermission)
	}

	ownerTenant := actor.TenantID
	if conversation.TenantID != nil {
		ownerTenant = *conversation.TenantID
	}
	role := enum.ParticipantRole(request.Role)
	if role == "" {
		role = enum.RoleMember
	}
	participant, err := buildParticipant(ctx, trx, uc.Repositories, ownerTenant, request.ParticipantInput, role, now)
	if err != nil {
		return nil, err
	}
	invitedBy := actor.ID
	participant.InvitedBy = &invitedBy

	if err := addToConversation(ctx, trx, uc.Repositories, conversation, participant); err != nil {
		return nil, err
	}
	if err := trx.Commit().Error; err != nil {
		uc.Logger.WithError(err).Errorf("failed to commit participant : %v", err)
		return nil, persistence(err)
	}

	publish(ctx, uc.Publisher, uc.Logger, realtime.ConversationTopic(conversationID),
		conversationEvent(realtime.EventParticipantJoined, conversationID, participant, now))
	return participant, nil
}

// RemoveParticipant soft-leaves the member. Members may leave themselves; removing
// someone else takes an owner or admin.
func (uc *ParticipantUsecaseImpl) RemoveParticipant(ctx context.Context, actor security.CurrentUser, conversationID, userID string) error {
	now := uc.Now()

	trx := uc.DB.WithContext(ctx).Begin()
	defer trx.Rollback()

	if _, err := uc.Conversations.FindConversationForUpdate(ctx, trx, conversationID); err != nil {
		return notFound("conversation", err)
	}
	target, err := uc.Participants.FindActive(ctx, trx, conversationID, userID)
	if err != nil {
		return notFound("participant", err)
	}
	if actor.ID != userID {
		remover, err := uc.Participants.FindActive(ctx, trx, conversationID, actor.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrPermission, conversationID)
		}
		if err != nil {
			return persistence(err)
		}
		if !remover.Role.CanModerate() {
			return fmt.Errorf("%w: only owners and admins can remove other participants", ErrPermission)
		}
	}

	if _, err := uc.Participants.Leave(ctx, trx, target.ID, now); err != nil {
		return persistence(err)
	}
	if err := trx.Commit().Error; err != nil {
		return persistence(err)
	}

	uc.Logger.WithFields(logrus.Fields{"conversationId": conversationID, "userId": userID, "by": actor.ID}).Info("participant left")
	publish(ctx, uc.Publisher, uc.Logger, realtime.ConversationTopic(conversationID),
		conversationEvent(realtime.EventParticipantLeft, conversationID, map[string]string{"userId": userID}, now))
	return nil
}

// MarkRead resets the unread counter, records the read position and stamps read_by and
// delivered_to on the messages between the previous and the new position. Without an
// explicit message the newest one is used. The read position only moves forward: a
// receipt for a message older than the current position changes nothing.
func (uc *ParticipantUsecaseImpl) MarkRead(ctx context.Context, user security.CurrentUser, conversationID, upToMessageID string) (res.ReadResponse, error) {
	now := uc.Now()

	trx := uc.DB.WithContext(ctx).Begin()
	defer trx.Rollback()

	if _, _, err := uc.membership(ctx, trx, conversationID, user.ID); err != nil {
		return res.ReadResponse{}, err
	}
	participant, err := uc.Participants.FindActiveForUpdate(ctx, trx, conversationID, user.ID)
	if err != nil {
		return res.ReadResponse{}, persistence(err)
	}

	var upTo *entity.Message
	if upToMessageID != "" {
		upTo, err = uc.Messages.FindMessageByID(ctx, trx, upToMessageID)
		if err != nil {
			return res.ReadResponse{}, notFound("message", err)
		}
		if upTo.ConversationID != conversationID {
			return res.ReadResponse{}, invalid("message %s is not in conversation %s", upToMessageID, conversationID)
		}
	} else {
		upTo, err = uc.Messages.Latest(ctx, trx, conversationID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return res.ReadResponse{}, persistence(err)
		}
	}

	stale, err := uc.behindReadPosition(ctx, trx, participant, upTo)
	if err != nil {
		return res.ReadResponse{}, err
	}
	if stale {
		response := res.ReadResponse{
			ConversationID:    conversationID,
			LastReadMessageID: participant.LastReadMessageID,
			UnreadCount:       participant.UnreadCount,
		}
		if participant.LastReadAt != nil {
			response.LastReadAt = *participant.LastReadAt
		}
		return response, nil
	}

	var upToID *string
	if upTo != nil {
		id := upTo.ID
		upToID = &id
		if err := uc.stampReceipts(ctx, trx, participant, upTo); err != nil {
			return res.ReadResponse{}, err
		}
	}

	if _, err := uc.Participants.MarkRead(ctx, trx, conversationID, user.ID, upToID, now); err != nil {
		uc.Logger.WithError(err).Errorf("failed to mark conversation %s read", conversationID)
		return res.ReadResponse{}, persistence(err)
	}
	if err := trx.Commit().Error; err != nil {
		return res.ReadResponse{}, persistence(err)
	}

	response := res.ReadResponse{ConversationID: conversationID, LastReadMessageID: upToID, LastReadAt: now}
	publish(ctx, uc.Publisher, uc.Logger, realtime.ConversationTopic(conversationID),
		conversationEvent(realtime.EventReadUpdated, conversationID, map[string]interface{}{
			"userId":            user.ID,
			"lastReadMessageId": upToID,
			"lastReadAt":        now,
		}, now))
	return response, nil
}

// behindReadPosition reports whether upTo is strictly older than the stored read position.
func (uc *ParticipantUsecaseImpl) behindReadPosition(ctx context.Context, tx *gorm.DB, participant *entity.Participant, upTo *entity.Message) (bool, error) {
	if participant.LastReadMessageID == nil {
		return false, nil
	}
	if upTo == nil {
		return true, nil
	}
	if *participant.LastReadMessageID == upTo.ID {
		return false, nil
	}
	current, err := uc.Messages.FindMessageByID(ctx, tx, *participant.LastReadMessageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, persistence(err)
	}
	return upTo.CreatedAt.Before(current.CreatedAt), nil
}

func (uc *ParticipantUsecaseImpl) stampReceipts(ctx context.Context, tx *gorm.DB, participant *entity.Participant, upTo *entity.Message) error {
	var since *time.Time
	if participant.LastReadMessageID != nil {
		previous, err := uc.Messages.FindMessageByID(ctx, tx, *participant.LastReadMessageID)
		if err == nil && previous.CreatedAt.Before(upTo.CreatedAt) {
			since = &previous.CreatedAt
		}
	}

	userID := *participant.UserID
	messages, err := uc.Messages.ListUnreceipted(ctx, tx, upTo.ConversationID, userID, since, upTo.CreatedAt)
	if err != nil {
		return persistence(err)
	}
	for i := range messages {
		message := &messages[i]
		changed := false
		if !slices.Contains(message.DeliveredTo, userID) {
			message.DeliveredTo = append(message.DeliveredTo, userID)
			changed = true
		}
		if !slices.Contains(message.ReadBy, userID) {
			message.ReadBy = append(message.ReadBy, userID)
			changed = true
		}
		if !changed {
			continue
		}
		if err := uc.Messages.UpdateReceipts(ctx, tx, message); err != nil {
			return persistence(err)
		}
	}
	return nil
}

func (uc *ParticipantUsecaseImpl) ToggleMute(ctx context.Context, user security.CurrentUser, conversationID string) (*entity.Participant, error) {
	_, participant, err := uc.membership(ctx, uc.DB, conversationID, user.ID)
	if err != nil {
		return nil, err
	}
	participant.IsMuted = !participant.IsMuted
	if err := uc.Participants.SetMuted(ctx, uc.DB, participant.ID, participant.IsMuted); err != nil {
		return nil, persistence(err)
	}
	return participant, nil
}

func (uc *ParticipantUsecaseImpl) GetUnread(ctx context.Context, user security.CurrentUser) (res.UnreadResponse, error) {
	summaries, err := uc.Participants.UnreadByUser(ctx, uc.DB, user.ID)
	if err != nil {
		return res.UnreadResponse{}, persistence(err)
	}
	response := res.UnreadResponse{Conversations: make(map[string]int, len(summaries))}
	for _, summary := range summaries {
		response.Total += summary.UnreadCount
		response.Conversations[summary.ConversationID] = summary.UnreadCount
	}
	return response, nil
}
