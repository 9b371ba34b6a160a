package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"bheem-chat/dto/req"
	"bheem-chat/entity"
	"bheem-chat/enum"
	"bheem-chat/realtime"
	"bheem-chat/security"
)

func TestEndToEndGroupScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.group(t, alice, bob, carol)

	f.send(t, alice, id, "hello")
	if got := f.unread(t, bob, id); got != 1 {
		t.Fatalf("bob unread = %d, want 1", got)
	}
	if got := f.unread(t, carol, id); got != 1 {
		t.Fatalf("carol unread = %d, want 1", got)
	}
	if got := f.unread(t, alice, id); got != 0 {
		t.Fatalf("alice unread = %d, want 0", got)
	}
	if got := f.conversation(t, id).LastMessagePreview; got != "hello" {
		t.Fatalf("preview = %q, want hello", got)
	}

	if _, err := f.participants.MarkRead(ctx, bob, id, ""); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if got := f.unread(t, bob, id); got != 0 {
		t.Fatalf("bob unread after read = %d, want 0", got)
	}

	_, err := f.messages.SendMessage(ctx, alice, id, &req.SendMessageRequest{Content: "image.png", MessageType: "image"})
	if err != nil {
		t.Fatalf("send image: %v", err)
	}
	conversation := f.conversation(t, id)
	if conversation.LastMessagePreview != "Sent an image" {
		t.Fatalf("preview = %q, want Sent an image", conversation.LastMessagePreview)
	}
	if conversation.LastMessageSenderID == nil || *conversation.LastMessageSenderID != alice.ID {
		t.Fatalf("last sender = %v, want alice", conversation.LastMessageSenderID)
	}
	if got := f.unread(t, bob, id); got != 1 {
		t.Fatalf("bob unread = %d, want 1", got)
	}
	if got := f.unread(t, carol, id); got != 2 {
		t.Fatalf("carol unread = %d, want 2", got)
	}
}

func TestSendMessage_ReturnsFreshMessage(t *testing.T) {
	f := newFixture(t)
	id := f.group(t, alice, bob)

	message, err := f.messages.SendMessage(context.Background(), alice, id, &req.SendMessageRequest{Content: "hi"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if message.MessageType != string(enum.MessageText) {
		t.Fatalf("type = %q, want text", message.MessageType)
	}
	if message.IsEdited || message.IsDeleted {
		t.Fatalf("fresh message flagged edited=%v deleted=%v", message.IsEdited, message.IsDeleted)
	}
	if message.Reactions == nil || len(message.Reactions) != 0 {
		t.Fatalf("reactions = %v, want empty map", message.Reactions)
	}
	if message.SenderName != "Alice" {
		t.Fatalf("sender name = %q", message.SenderName)
	}
}

func TestSendMessage_Membership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.group(t, alice, bob)

	_, err := f.messages.SendMessage(ctx, carol, id, &req.SendMessageRequest{Content: "let me in"})
	if !errors.Is(err, ErrNotAMember) {
		t.Fatalf("outsider send err = %v, want ErrNotAMember", err)
	}

	_, err = f.messages.SendMessage(ctx, alice, "missing-conversation", &req.SendMessageRequest{Content: "hi"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown conversation err = %v, want ErrNotFound", err)
	}

	if err := f.participants.RemoveParticipant(ctx, bob, id, bob.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	_, err = f.messages.SendMessage(ctx, bob, id, &req.SendMessageRequest{Content: "still here?"})
	if !errors.Is(err, ErrNotAMember) {
		t.Fatalf("left member send err = %v, want ErrNotAMember", err)
	}
}

func TestSendMessage_RejectsCrossConversationReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.group(t, alice, bob)
	second := f.group(t, alice, carol)
	foreign := f.send(t, alice, second, "elsewhere")

	_, err := f.messages.SendMessage(ctx, alice, first, &req.SendMessageRequest{Content: "re", ReplyToID: foreign})
	if !errors.Is(err, ErrInvalidReply) {
		t.Fatalf("err = %v, want ErrInvalidReply", err)
	}
	_, err = f.messages.SendMessage(ctx, alice, first, &req.SendMessageRequest{Content: "re", ReplyToID: "nope"})
	if !errors.Is(err, ErrInvalidReply) {
		t.Fatalf("err = %v, want ErrInvalidReply", err)
	}

	parent := f.send(t, bob, first, "question")
	reply, err := f.messages.SendMessage(ctx, alice, first, &req.SendMessageRequest{Content: "answer", ReplyToID: parent})
	if err != nil {
		t.Fatalf("valid reply: %v", err)
	}
	if reply.ReplyToID == nil || *reply.ReplyToID != parent {
		t.Fatalf("reply_to = %v, want %s", reply.ReplyToID, parent)
	}
}

func TestSendMessage_StampsGuestContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	contact := &entity.ExternalContact{TenantID: "acme", Name: "Client Co", Email: "client@example.com"}
	if err := f.db.Create(contact).Error; err != nil {
		t.Fatalf("contact: %v", err)
	}
	conversation, err := f.conversations.CreateConversation(ctx, alice, &req.CreateConversationRequest{
		Type:         "group",
		Scope:        "external",
		Name:         "Client",
		Participants: []req.ParticipantInput{{ExternalContactID: contact.ID}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	message, err := f.messages.SendMessage(ctx, alice, conversation.ID, &req.SendMessageRequest{Content: "welcome"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	var stored entity.ExternalContact
	if err := f.db.Where("id = ?", contact.ID).Take(&stored).Error; err != nil {
		t.Fatalf("reload contact: %v", err)
	}
	if stored.LastContactedAt == nil || !stored.LastContactedAt.Equal(message.CreatedAt) {
		t.Fatalf("last contacted = %v, want %v", stored.LastContactedAt, message.CreatedAt)
	}

	var guest entity.Participant
	if err := f.db.Where("conversation_id = ? AND external_contact_id = ?", conversation.ID, contact.ID).Take(&guest).Error; err != nil {
		t.Fatalf("guest row: %v", err)
	}
	if guest.ParticipantType != enum.ParticipantGuest || guest.UnreadCount != 1 {
		t.Fatalf("guest = %s unread %d, want guest with 1 unread", guest.ParticipantType, guest.UnreadCount)
	}
}

func TestToggleReaction_TwiceRestoresState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.group(t, alice, bob, carol)
	messageID := f.send(t, alice, id, "ship it")

	added, err := f.messages.ToggleReaction(ctx, bob, messageID, &req.ReactRequest{Emoji: "👍"})
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if added.Action != "added" || !slices.Equal(added.Reactions["👍"], []string{"bob"}) {
		t.Fatalf("first toggle = %+v", added)
	}

	if _, err := f.messages.ToggleReaction(ctx, carol, messageID, &req.ReactRequest{Emoji: "👍"}); err != nil {
		t.Fatalf("carol toggle: %v", err)
	}

	removed, err := f.messages.ToggleReaction(ctx, bob, messageID, &req.ReactRequest{Emoji: "👍"})
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if removed.Action != "removed" || !slices.Equal(removed.Reactions["👍"], []string{"carol"}) {
		t.Fatalf("second toggle = %+v", removed)
	}

	last, err := f.messages.ToggleReaction(ctx, carol, messageID, &req.ReactRequest{Emoji: "👍"})
	if err != nil {
		t.Fatalf("carol untoggle: %v", err)
	}
	if _, ok := last.Reactions["👍"]; ok || len(last.Reactions) != 0 {
		t.Fatalf("reactions = %v, want empty", last.Reactions)
	}

	_, err = f.messages.ToggleReaction(ctx, dave, messageID, &req.ReactRequest{Emoji: "👍"})
	if !errors.Is(err, ErrNotAMember) {
		t.Fatalf("outsider err = %v, want ErrNotAMember", err)
	}
}

func TestDeleteMessage_KeepsRowAndAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.group(t, alice, bob, carol)

	sent, err := f.messages.SendMessage(ctx, bob, id, &req.SendMessageRequest{
		Content:     "report",
		MessageType: "file",
		Attachments: []req.AttachmentInput{{FileName: "report.pdf", MimeType: "application/pdf", Size: 42, URL: "/files/report.pdf"}},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := f.messages.DeleteMessage(ctx, carol, sent.ID); !errors.Is(err, ErrPermission) {
		t.Fatalf("member delete err = %v, want ErrPermission", err)
	}

	deleted, err := f.messages.DeleteMessage(ctx, alice, sent.ID)
	if err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if !deleted.IsDeleted {
		t.Fatal("delete response not flagged deleted")
	}
	if _, err := f.messages.DeleteMessage(ctx, bob, sent.ID); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}

	audit, err := f.messages.GetMessage(ctx, alice, sent.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if !audit.IsDeleted || audit.Content != entity.DeletedMessagePlaceholder {
		t.Fatalf("deleted message = %+v", audit)
	}
	if len(audit.Attachments) != 1 || audit.Attachments[0].FileName != "report.pdf" {
		t.Fatalf("attachments = %+v, want report.pdf kept", audit.Attachments)
	}

	var count int64
	f.db.Model(&entity.Attachment{}).Where("message_id = ?", sent.ID).Count(&count)
	if count != 1 {
		t.Fatalf("attachment rows = %d, want 1", count)
	}

	page, err := f.messages.GetMessages(ctx, bob, id, req.MessagePageRequest{})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 1 || !page[0].IsDeleted || len(page[0].Attachments) != 0 {
		t.Fatalf("page = %+v, want one deleted message without attachments", page)
	}
}

func TestEditMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.group(t, alice, bob)
	messageID := f.send(t, alice, id, "helo")

	if _, err := f.messages.EditMessage(ctx, bob, messageID, &req.EditMessageRequest{Content: "hijack"}); !errors.Is(err, ErrPermission) {
		t.Fatalf("bob edit err = %v, want ErrPermission", err)
	}
	if _, err := f.messages.EditMessage(ctx, alice, "missing", &req.EditMessageRequest{Content: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing edit err = %v, want ErrNotFound", err)
	}

	edited, err := f.messages.EditMessage(ctx, alice, messageID, &req.EditMessageRequest{Content: "hello"})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !edited.IsEdited || edited.Content != "hello" {
		t.Fatalf("edited = %+v", edited)
	}

	if _, err := f.messages.DeleteMessage(ctx, alice, messageID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.messages.EditMessage(ctx, alice, messageID, &req.EditMessageRequest{Content: "back"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("edit deleted err = %v, want ErrConflict", err)
	}
}

func TestGetMessages_ChronologicalPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.group(t, alice, bob)

	var ids []string
	for _, content := range []string{"m1", "m2", "m3", "m4", "m5"} {
		ids = append(ids, f.send(t, alice, id, content))
	}

	contents := func(page req.MessagePageRequest) []string {
		t.Helper()
		messages, err := f.messages.GetMessages(ctx, bob, id, page)
		if err != nil {
			t.Fatalf("page %+v: %v", page, err)
		}
		var out []string
		for _, message := range messages {
			out = append(out, message.Content)
		}
		return out
	}

	tests := []struct {
		name string
		page req.MessagePageRequest
		want []string
	}{
		{"latest window", req.MessagePageRequest{Limit: 2}, []string{"m4", "m5"}},
		{"before cursor", req.MessagePageRequest{Limit: 2, Before: ids[3]}, []string{"m2", "m3"}},
		{"after cursor", req.MessagePageRequest{After: ids[1]}, []string{"m3", "m4", "m5"}},
		{"between cursors", req.MessagePageRequest{After: ids[0], Before: ids[4]}, []string{"m2", "m3", "m4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contents(tt.page); !slices.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := f.messages.GetMessages(ctx, bob, id, req.MessagePageRequest{Before: "not-a-cursor"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad cursor err = %v, want ErrValidation", err)
	}
}

func TestSearchMessages_SkipsDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.group(t, alice, bob)
	f.send(t, alice, id, "Quarterly Report draft")
	gone := f.send(t, alice, id, "report typo")
	f.send(t, bob, id, "lunch?")
	if _, err := f.messages.DeleteMessage(ctx, alice, gone); err != nil {
		t.Fatalf("delete: %v", err)
	}

	found, err := f.messages.SearchMessages(ctx, bob, id, "report", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].Content != "Quarterly Report draft" {
		t.Fatalf("found = %+v", found)
	}
}

func TestSendMessage_PublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.group(t, alice, bob)

	subscription, err := f.broker.Subscribe(ctx, realtime.ConversationTopic(id))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer subscription.Close()

	messageID := f.send(t, alice, id, "ping")

	select {
	case payload := <-subscription.C:
		var event struct {
			Type string `json:"type"`
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if event.Type != realtime.EventMessageCreated || event.Data.ID != messageID {
			t.Fatalf("event = %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestSendMessage_ExternalFilesToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation, err := f.conversations.CreateConversation(ctx, alice, &req.CreateConversationRequest{
		Type:         "group",
		Scope:        "cross_tenant",
		Name:         "Partners",
		Participants: []req.ParticipantInput{{UserID: dave.ID, TenantID: dave.TenantID}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	off := false
	if _, err := f.conversations.UpdateConversation(ctx, alice, conversation.ID, &req.UpdateConversationRequest{AllowExternalFiles: &off}); err != nil {
		t.Fatalf("update: %v", err)
	}

	withFile := &req.SendMessageRequest{
		Content:     "contract",
		Attachments: []req.AttachmentInput{{FileName: "c.pdf", URL: "/files/c.pdf"}},
	}
	if _, err := f.messages.SendMessage(ctx, dave, conversation.ID, withFile); !errors.Is(err, ErrPermission) {
		t.Fatalf("external file err = %v, want ErrPermission", err)
	}
	if _, err := f.messages.SendMessage(ctx, alice, conversation.ID, withFile); err != nil {
		t.Fatalf("internal file: %v", err)
	}
}

func TestToggleReaction_ConcurrentUsersKeepEveryReaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const reactors = 8
	users := make([]security.CurrentUser, reactors)
	for i := range users {
		users[i] = security.CurrentUser{ID: fmt.Sprintf("member%d", i), TenantID: "acme", Name: fmt.Sprintf("Member %d", i)}
	}
	id := f.group(t, alice, users...)
	messageID := f.send(t, alice, id, "vote")

	var wg sync.WaitGroup
	for _, user := range users {
		wg.Add(1)
		go func(user security.CurrentUser) {
			defer wg.Done()
			response, err := f.messages.ToggleReaction(ctx, user, messageID, &req.ReactRequest{Emoji: "👍"})
			if err != nil {
				t.Errorf("%s toggle: %v", user.ID, err)
				return
			}
			if response.Action != "added" {
				t.Errorf("%s action = %s, want added", user.ID, response.Action)
			}
		}(user)
	}
	wg.Wait()

	grouped, err := f.messages.Messages.ReactionsFor(ctx, f.db, []string{messageID})
	if err != nil {
		t.Fatalf("load reactions: %v", err)
	}
	voters := grouped[messageID]["👍"]
	if len(voters) != reactors {
		t.Fatalf("voters = %v, want %d distinct users", voters, reactors)
	}
	for _, user := range users {
		if !slices.Contains(voters, user.ID) {
			t.Fatalf("reaction of %s was lost: %v", user.ID, voters)
		}
	}
}
