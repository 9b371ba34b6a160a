package usecase

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bheem-chat/dto/req"
	"bheem-chat/entity"
	"bheem-chat/realtime"
	"bheem-chat/security"
	"bheem-chat/storage"
)

var (
	alice = security.CurrentUser{ID: "alice", TenantID: "acme", Name: "Alice"}
	bob   = security.CurrentUser{ID: "bob", TenantID: "acme", Name: "Bob"}
	carol = security.CurrentUser{ID: "carol", TenantID: "acme", Name: "Carol"}
	dave  = security.CurrentUser{ID: "dave", TenantID: "globex", Name: "Dave"}
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

// Now advances one second per call so every row gets a distinct timestamp.
func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db            *gorm.DB
	clock         *testClock
	broker        *realtime.MemoryBroker
	conversations *ConversationUsecaseImpl
	participants  *ParticipantUsecaseImpl
	messages      *MessageUsecaseImpl
	exports       *ExportUsecaseImpl
	invitations   *InvitationUsecaseImpl
	calls         *CallUsecaseImpl
	waitingRoom   *WaitingRoomUsecaseImpl
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NamingStrategy: entity.NamingStrategy,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	conn, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	if err := entity.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	broker := realtime.NewMemoryBroker()
	t.Cleanup(func() { _ = broker.Close() })

	store, err := storage.NewLocalStore(t.TempDir(), "/files", 1<<20)
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	clock := &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	repositories := NewRepositories()

	f := &fixture{
		db:            db,
		clock:         clock,
		broker:        broker,
		conversations: NewConversationUsecase(repositories, validate, db, log, broker),
		participants:  NewParticipantUsecase(repositories, validate, db, log, broker),
		messages:      NewMessageUsecase(repositories, validate, db, log, broker, store, 50),
		exports:       NewExportUsecase(repositories, db, log),
		invitations:   NewInvitationUsecase(repositories, validate, db, log, broker, 24*time.Hour),
		calls:         NewCallUsecase(repositories, validate, db, log, broker),
		waitingRoom:   NewWaitingRoomUsecase(repositories, validate, db, log, broker),
	}
	f.conversations.Now = clock.Now
	f.participants.Now = clock.Now
	f.messages.Now = clock.Now
	f.invitations.Now = clock.Now
	f.calls.Now = clock.Now
	f.exports.Now = clock.Now
	f.waitingRoom.Now = clock.Now
	return f
}

func (f *fixture) group(t *testing.T, owner security.CurrentUser, members ...security.CurrentUser) string {
	t.Helper()
	return f.create(t, owner, "group", "internal", members...)
}

func (f *fixture) create(t *testing.T, owner security.CurrentUser, conversationType, scope string, members ...security.CurrentUser) string {
	t.Helper()
	request := &req.CreateConversationRequest{Type: conversationType, Scope: scope, Name: ""}
	if conversationType == "group" {
		request.Name = "Team"
	}
	for _, member := range members {
		request.Participants = append(request.Participants, req.ParticipantInput{
			UserID:      member.ID,
			TenantID:    member.TenantID,
			DisplayName: member.Name,
		})
	}
	conversation, err := f.conversations.CreateConversation(context.Background(), owner, request)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	return conversation.ID
}

func (f *fixture) send(t *testing.T, sender security.CurrentUser, conversationID, content string) string {
	t.Helper()
	message, err := f.messages.SendMessage(context.Background(), sender, conversationID, &req.SendMessageRequest{Content: content})
	if err != nil {
		t.Fatalf("send %q: %v", content, err)
	}
	return message.ID
}

func (f *fixture) unread(t *testing.T, user security.CurrentUser, conversationID string) int {
	t.Helper()
	participant, err := f.participants.Participants.FindActive(context.Background(), f.db, conversationID, user.ID)
	if err != nil {
		t.Fatalf("participant %s: %v", user.ID, err)
	}
	return participant.UnreadCount
}

func (f *fixture) conversation(t *testing.T, conversationID string) *entity.Conversation {
	t.Helper()
	conversation, err := f.conversations.Conversations.FindConversationByID(context.Background(), f.db, conversationID)
	if err != nil {
		t.Fatalf("conversation %s: %v", conversationID, err)
	}
	return conversation
}
