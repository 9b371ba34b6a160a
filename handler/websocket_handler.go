package handler

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"bheem-chat/config/logger"
	"bheem-chat/middleware"
	"bheem-chat/realtime"
	"bheem-chat/security"
	"bheem-chat/usecase"
)

const pingInterval = 30 * time.Second

// WebSocketHandler streams broker events to connected clients. Clients only listen;
// writes go through the REST endpoints so every change passes the same checks.
type WebSocketHandler struct {
	sync.Mutex
	Broker        realtime.Broker
	Conversations usecase.ConversationUsecase
	WaitingRoom   usecase.WaitingRoomUsecase
	Log           *logger.AppLogger
	Clients       map[string]int
}

func NewWebSocketHandler(broker realtime.Broker, conversations usecase.ConversationUsecase, waitingRoom usecase.WaitingRoomUsecase, log *logger.AppLogger) *WebSocketHandler {
	return &WebSocketHandler{
		Broker:        broker,
		Conversations: conversations,
		WaitingRoom:   waitingRoom,
		Log:           log,
		Clients:       make(map[string]int),
	}
}

// Upgrade rejects plain HTTP requests on the websocket routes.
func (handler *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// AuthorizeConversation runs before the upgrade so a non-member gets a plain 403/404.
func (handler *WebSocketHandler) AuthorizeConversation(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if _, err := handler.Conversations.GetConversation(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.Next()
}

func (handler *WebSocketHandler) AuthorizeWaitingRoomHost(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := handler.WaitingRoom.AuthorizeHost(c.UserContext(), user, c.Params("code")); err != nil {
		return err
	}
	return c.Next()
}

// recheck re-authorizes an open socket. A nil payload means a periodic check;
// otherwise it is the raw event about to be forwarded.
type recheck func(ctx context.Context, payload []byte) error

func (handler *WebSocketHandler) StreamConversation(conn *websocket.Conn) {
	user, _ := conn.Locals(middleware.CurrentUserKey).(security.CurrentUser)
	conversationID := conn.Params("id")
	handler.stream(conn, realtime.ConversationTopic(conversationID), handler.memberCheck(user, conversationID))
}

func (handler *WebSocketHandler) StreamWaitingRoom(conn *websocket.Conn) {
	user, _ := conn.Locals(middleware.CurrentUserKey).(security.CurrentUser)
	roomCode := conn.Params("code")
	handler.stream(conn, realtime.WaitingRoomTopic(roomCode), handler.hostCheck(user, roomCode))
}

// memberCheck looks the caller up again on every participant.left event and on
// every ping, so a socket does not outlive its membership.
func (handler *WebSocketHandler) memberCheck(user security.CurrentUser, conversationID string) recheck {
	return func(ctx context.Context, payload []byte) error {
		if payload != nil && eventType(payload) != realtime.EventParticipantLeft {
			return nil
		}
		_, err := handler.Conversations.GetConversation(ctx, user, conversationID)
		return err
	}
}

func (handler *WebSocketHandler) hostCheck(user security.CurrentUser, roomCode string) recheck {
	return func(ctx context.Context, payload []byte) error {
		if payload != nil {
			return nil
		}
		return handler.WaitingRoom.AuthorizeHost(ctx, user, roomCode)
	}
}

func eventType(payload []byte) string {
	var event struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return ""
	}
	return event.Type
}

func (handler *WebSocketHandler) stream(conn *websocket.Conn, topic string, authorized recheck) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subscription, err := handler.Broker.Subscribe(ctx, topic)
	if err != nil {
		handler.Log.WS.Error.Error().Err(err).Str("topic", topic).Msg("failed to subscribe")
		_ = conn.Close()
		return
	}

	handler.registerClient(topic)
	defer func() {
		subscription.Close()
		handler.removeClient(topic)
		_ = conn.Close()
	}()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	revoke := func(err error) {
		handler.Log.WS.Info.Info().Err(err).Str("topic", topic).Msg("closing revoked socket")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "access revoked"),
			time.Now().Add(5*time.Second))
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authorized(ctx, nil); err != nil {
				revoke(err)
				return
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case payload, ok := <-subscription.C:
			if !ok {
				return
			}
			if err := authorized(ctx, payload); err != nil {
				revoke(err)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				handler.Log.WS.Warning.Warn().Err(err).Str("topic", topic).Msg("error writing event")
				return
			}
		}
	}
}

func (handler *WebSocketHandler) registerClient(topic string) {
	handler.Mutex.Lock()
	defer handler.Mutex.Unlock()

	handler.Clients[topic]++
	handler.Log.WS.Info.Info().Str("topic", topic).Int("total", handler.Clients[topic]).Msg("client subscribed")
}

func (handler *WebSocketHandler) removeClient(topic string) {
	handler.Mutex.Lock()
	defer handler.Mutex.Unlock()

	if handler.Clients[topic] <= 1 {
		delete(handler.Clients, topic)
	} else {
		handler.Clients[topic]--
	}
	handler.Log.WS.Info.Info().Str("topic", topic).Msg("client left")
}
