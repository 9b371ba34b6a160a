package usecase

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"bheem-chat/dto/req"
	"bheem-chat/entity"
	"bheem-chat/enum"
)

func TestStartCall_DeliversCallMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.group(t, alice, bob, carol)

	call, err := f.calls.StartCall(ctx, alice, id, &req.StartCallRequest{CallType: "audio"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if call.Status != enum.CallRinging || !slices.Equal([]string(call.JoinedParticipants), []string{alice.ID}) {
		t.Fatalf("call = %+v", call)
	}

	conversation := f.conversation(t, id)
	if conversation.LastMessagePreview != "Audio call" {
		t.Fatalf("preview = %q, want Audio call", conversation.LastMessagePreview)
	}
	if got := f.unread(t, bob, id); got != 1 {
		t.Fatalf("bob unread = %d, want 1", got)
	}

	var message entity.Message
	if err := f.db.Where("call_log_id = ?", call.ID).Take(&message).Error; err != nil {
		t.Fatalf("call message: %v", err)
	}
	if message.MessageType != enum.MessageCall {
		t.Fatalf("message type = %s", message.MessageType)
	}

	if _, err := f.calls.StartCall(ctx, bob, id, &req.StartCallRequest{CallType: "video"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("second start err = %v, want ErrConflict", err)
	}
	if _, err := f.calls.StartCall(ctx, dave, id, &req.StartCallRequest{CallType: "audio"}); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("outsider start err = %v, want ErrNotAMember", err)
	}
}

func TestCallLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.group(t, alice, bob)

	call, err := f.calls.StartCall(ctx, alice, id, &req.StartCallRequest{CallType: "video"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	joined, err := f.calls.JoinCall(ctx, bob, call.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.Status != enum.CallOngoing || joined.StartedAt == nil || len(joined.JoinedParticipants) != 2 {
		t.Fatalf("joined = %+v", joined)
	}
	if _, err := f.calls.DeclineCall(ctx, bob, call.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("decline ongoing err = %v, want ErrConflict", err)
	}

	f.clock.Advance(90 * time.Second)
	ended, err := f.calls.EndCall(ctx, alice, call.ID, &req.EndCallRequest{})
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Status != enum.CallEnded || ended.EndReason != "completed" {
		t.Fatalf("ended = %+v", ended)
	}
	if ended.DurationSeconds < 90 {
		t.Fatalf("duration = %d, want at least 90", ended.DurationSeconds)
	}

	if _, err := f.calls.JoinCall(ctx, bob, call.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("join ended err = %v, want ErrConflict", err)
	}
	if _, err := f.calls.StartCall(ctx, bob, id, &req.StartCallRequest{CallType: "audio"}); err != nil {
		t.Fatalf("start after end: %v", err)
	}
}

func TestEndRingingCallIsMissed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.group(t, alice, bob)

	call, err := f.calls.StartCall(ctx, alice, id, &req.StartCallRequest{CallType: "audio"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ended, err := f.calls.EndCall(ctx, alice, call.ID, &req.EndCallRequest{Reason: "cancelled"})
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Status != enum.CallMissed || ended.DurationSeconds != 0 {
		t.Fatalf("ended = %+v", ended)
	}
}

func TestDeclineCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.group(t, alice, bob)

	call, err := f.calls.StartCall(ctx, alice, id, &req.StartCallRequest{CallType: "audio"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.calls.DeclineCall(ctx, alice, call.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("caller decline err = %v, want ErrConflict", err)
	}
	declined, err := f.calls.DeclineCall(ctx, bob, call.ID)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.Status != enum.CallDeclined || declined.EndedAt == nil {
		t.Fatalf("declined = %+v", declined)
	}
	if _, err := f.calls.JoinCall(ctx, carol, call.ID); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("outsider join err = %v, want ErrNotAMember", err)
	}
}

func TestExpireRingingCalls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.group(t, alice, bob)

	call, err := f.calls.StartCall(ctx, alice, id, &req.StartCallRequest{CallType: "audio"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if n, err := f.calls.ExpireRingingCalls(ctx, time.Minute); err != nil || n != 0 {
		t.Fatalf("early expire = %d, %v", n, err)
	}

	f.clock.Advance(2 * time.Minute)
	if n, err := f.calls.ExpireRingingCalls(ctx, time.Minute); err != nil || n != 1 {
		t.Fatalf("expire = %d, %v; want 1", n, err)
	}

	var stored entity.CallLog
	if err := f.db.Where("id = ?", call.ID).Take(&stored).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != enum.CallNoAnswer {
		t.Fatalf("status = %s, want no_answer", stored.Status)
	}
}
