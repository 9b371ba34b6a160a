package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bheem-chat/entity"
	"bheem-chat/realtime"
	"bheem-chat/repository"
)

type Repositories struct {
	Conversations *repository.ConversationRepository
	Participants  *repository.ParticipantRepository
	Messages      *repository.MessageRepository
	Contacts      *repository.ExternalContactRepository
	Invitations   *repository.InvitationRepository
	Calls         *repository.CallLogRepository
	WaitingRoom   *repository.WaitingRoomRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Conversations: repository.NewConversationRepository(),
		Participants:  repository.NewParticipantRepository(),
		Messages:      repository.NewMessageRepository(),
		Contacts:      repository.NewExternalContactRepository(),
		Invitations:   repository.NewInvitationRepository(),
		Calls:         repository.NewCallLogRepository(),
		WaitingRoom:   repository.NewWaitingRoomRepository(),
	}
}

type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

// membership resolves the conversation and the caller's active participant row.
// A missing conversation is ErrNotFound; a missing or left participant is ErrNotAMember.
func (r *Repositories) membership(ctx context.Context, db *gorm.DB, conversationID, userID string) (*entity.Conversation, *entity.Participant, error) {
	conversation, err := r.Conversations.FindConversationByID(ctx, db, conversationID)
	if err != nil {
		return nil, nil, notFound("conversation", err)
	}
	participant, err := r.Participants.FindActive(ctx, db, conversationID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return conversation, nil, fmt.Errorf("%w: %s", ErrNotAMember, conversationID)
	}
	if err != nil {
		return nil, nil, persistence(err)
	}
	return conversation, participant, nil
}

// publish is best-effort: delivery failures are logged and never alter stored state.
func publish(ctx context.Context, publisher realtime.Publisher, log *logrus.Logger, topic string, event realtime.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, topic, event); err != nil {
		log.WithError(err).WithField("topic", topic).Warnf("failed to publish %s", event.Type)
	}
}

func conversationEvent(eventType, conversationID string, data interface{}, at time.Time) realtime.Event {
	return realtime.Event{Type: eventType, ConversationID: conversationID, Data: data, At: at}
}
