// Package realtime carries chat and waiting-room events from the usecases to
// connected websocket clients, possibly on another instance.
package realtime

import (
	"context"
	"encoding/json"
	"time"
)

const (
	EventMessageCreated     = "message.created"
	EventMessageUpdated     = "message.updated"
	EventMessageDeleted     = "message.deleted"
	EventReactionToggled    = "reaction.toggled"
	EventReadUpdated        = "read.updated"
	EventParticipantJoined  = "participant.joined"
	EventParticipantLeft    = "participant.left"
	EventConversationUpdate = "conversation.updated"
	EventCallUpdated        = "call.updated"
	EventWaitingRequested   = "waiting.requested"
	EventWaitingResolved    = "waiting.resolved"
)

type Event struct {
	Type           string      `json:"type"`
	ConversationID string      `json:"conversationId,omitempty"`
	RoomCode       string      `json:"roomCode,omitempty"`
	Data           interface{} `json:"data"`
	At             time.Time   `json:"at"`
}

func ConversationTopic(conversationID string) string {
	return "chat:conversation:" + conversationID
}

func WaitingRoomTopic(roomCode string) string {
	return "chat:waiting-room:" + roomCode
}

type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
}

type Broker interface {
	Publisher
	Subscribe(ctx context.Context, topic string) (*Subscription, error)
	Close() error
}

// Subscription delivers raw JSON-encoded events. Close must be called once the consumer is done.
type Subscription struct {
	C     <-chan []byte
	close func()
}

func (s *Subscription) Close() {
	if s.close != nil {
		s.close()
	}
}

func encode(event Event) ([]byte, error) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	return json.Marshal(event)
}
