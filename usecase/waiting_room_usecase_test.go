package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"bheem-chat/dto/req"
	"bheem-chat/entity"
	"bheem-chat/enum"
	"bheem-chat/security"
)

func (f *fixture) room(t *testing.T, gated bool) string {
	t.Helper()
	room, err := f.waitingRoom.CreateRoom(context.Background(), alice, &req.CreateRoomRequest{Title: "Standup", WaitingRoomEnabled: gated})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room.RoomCode
}

func TestRequestJoin_Bypass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gated := f.room(t, true)
	open := f.room(t, false)

	tests := []struct {
		name string
		code string
		user bool
	}{
		{"host of a gated room", gated, true},
		{"ungated room", open, false},
		{"unknown room", "zzz-zzzz-zzz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var user *security.CurrentUser
			if tt.user {
				user = &alice
			}
			joined, err := f.waitingRoom.RequestJoin(ctx, user, tt.code, &req.JoinWaitingRoomRequest{DisplayName: "Guest"})
			if err != nil {
				t.Fatalf("join: %v", err)
			}
			if !joined.Bypassed || joined.Status != string(enum.WaitingAdmitted) || joined.WaitingID != "" {
				t.Fatalf("joined = %+v, want bypass", joined)
			}
		})
	}

	list, err := f.waitingRoom.ListParticipants(ctx, alice, gated)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Waiting) != 0 || len(list.Admitted) != 0 {
		t.Fatalf("bypass created rows: %+v", list)
	}
}

func TestRequestJoin_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := f.room(t, true)

	first, err := f.waitingRoom.RequestJoin(ctx, &bob, code, &req.JoinWaitingRoomRequest{})
	if err != nil {
		t.Fatalf("bob join: %v", err)
	}
	again, err := f.waitingRoom.RequestJoin(ctx, &bob, code, &req.JoinWaitingRoomRequest{DisplayName: "Robert"})
	if err != nil {
		t.Fatalf("bob rejoin: %v", err)
	}
	if first.WaitingID == "" || again.WaitingID != first.WaitingID || first.Status != string(enum.WaitingPending) {
		t.Fatalf("first = %+v, again = %+v", first, again)
	}

	guest := &req.JoinWaitingRoomRequest{DisplayName: "Pat", Email: "Pat@Example.com"}
	guestFirst, err := f.waitingRoom.RequestJoin(ctx, nil, code, guest)
	if err != nil {
		t.Fatalf("guest join: %v", err)
	}
	guestAgain, err := f.waitingRoom.RequestJoin(ctx, nil, code, &req.JoinWaitingRoomRequest{DisplayName: "Pat", Email: "pat@example.com"})
	if err != nil {
		t.Fatalf("guest rejoin: %v", err)
	}
	if guestAgain.WaitingID != guestFirst.WaitingID {
		t.Fatalf("guest got %s then %s", guestFirst.WaitingID, guestAgain.WaitingID)
	}

	if _, err := f.waitingRoom.RequestJoin(ctx, nil, code, &req.JoinWaitingRoomRequest{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("nameless guest err = %v, want ErrValidation", err)
	}

	list, err := f.waitingRoom.ListParticipants(ctx, alice, code)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Waiting) != 2 {
		t.Fatalf("waiting = %d, want 2", len(list.Waiting))
	}
	if list.Waiting[0].DisplayName != "Bob" {
		t.Fatalf("first waiting = %q, want Bob", list.Waiting[0].DisplayName)
	}
}

func TestWaitingRoomEntry_OneWaitingRowPerIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := f.room(t, true)

	joined, err := f.waitingRoom.RequestJoin(ctx, &bob, code, &req.JoinWaitingRoomRequest{})
	if err != nil {
		t.Fatalf("bob join: %v", err)
	}
	if _, err := f.waitingRoom.RequestJoin(ctx, nil, code, &req.JoinWaitingRoomRequest{DisplayName: "Pat", Email: "Pat@Example.com"}); err != nil {
		t.Fatalf("guest join: %v", err)
	}

	bobID := bob.ID
	duplicates := []struct {
		name  string
		entry entity.WaitingRoomEntry
	}{
		{"same user", entity.WaitingRoomEntry{RoomCode: code, UserID: &bobID, DisplayName: "Bob", Status: enum.WaitingPending}},
		{"same guest email", entity.WaitingRoomEntry{RoomCode: code, DisplayName: "Pat", Email: "pat@example.com", Status: enum.WaitingPending}},
	}
	for _, tt := range duplicates {
		t.Run(tt.name, func(t *testing.T) {
			entry := tt.entry
			entry.RequestedAt = f.clock.Now()
			if err := f.waitingRoom.WaitingRoom.Save(ctx, f.db, &entry); !errors.Is(err, gorm.ErrDuplicatedKey) {
				t.Fatalf("err = %v, want ErrDuplicatedKey", err)
			}
		})
	}

	if _, err := f.waitingRoom.RequestJoin(ctx, nil, code, &req.JoinWaitingRoomRequest{DisplayName: "Walk-in"}); err != nil {
		t.Fatalf("first guest without email: %v", err)
	}
	if _, err := f.waitingRoom.RequestJoin(ctx, nil, code, &req.JoinWaitingRoomRequest{DisplayName: "Walk-in"}); err != nil {
		t.Fatalf("second guest without email: %v", err)
	}

	if _, err := f.waitingRoom.Admit(ctx, alice, code, joined.WaitingID); err != nil {
		t.Fatalf("admit: %v", err)
	}
	rejoined, err := f.waitingRoom.RequestJoin(ctx, &bob, code, &req.JoinWaitingRoomRequest{})
	if err != nil {
		t.Fatalf("rejoin after admission: %v", err)
	}
	if rejoined.WaitingID == "" || rejoined.WaitingID == joined.WaitingID {
		t.Fatalf("rejoin = %+v, want a fresh waiting row", rejoined)
	}
}

func TestAdmitAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := f.room(t, true)

	for i := 0; i < 5; i++ {
		request := &req.JoinWaitingRoomRequest{DisplayName: fmt.Sprintf("Guest %d", i), Email: fmt.Sprintf("guest%d@example.com", i)}
		if _, err := f.waitingRoom.RequestJoin(ctx, nil, code, request); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}

	if _, err := f.waitingRoom.AdmitAll(ctx, bob, code); !errors.Is(err, ErrPermission) {
		t.Fatalf("non host err = %v, want ErrPermission", err)
	}
	admitted, err := f.waitingRoom.AdmitAll(ctx, alice, code)
	if err != nil {
		t.Fatalf("admit all: %v", err)
	}
	if admitted.AdmittedCount != 5 {
		t.Fatalf("admitted = %d, want 5", admitted.AdmittedCount)
	}

	list, err := f.waitingRoom.ListParticipants(ctx, alice, code)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Waiting) != 0 || len(list.Admitted) != 5 {
		t.Fatalf("waiting = %d admitted = %d", len(list.Waiting), len(list.Admitted))
	}

	again, err := f.waitingRoom.AdmitAll(ctx, alice, code)
	if err != nil {
		t.Fatalf("admit all again: %v", err)
	}
	if again.AdmittedCount != 0 {
		t.Fatalf("second admit all = %d, want 0", again.AdmittedCount)
	}
}

func TestAdmitRejectAndPoll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := f.room(t, true)

	bobJoin, err := f.waitingRoom.RequestJoin(ctx, &bob, code, &req.JoinWaitingRoomRequest{})
	if err != nil {
		t.Fatalf("bob join: %v", err)
	}
	carolJoin, err := f.waitingRoom.RequestJoin(ctx, &carol, code, &req.JoinWaitingRoomRequest{})
	if err != nil {
		t.Fatalf("carol join: %v", err)
	}

	if _, err := f.waitingRoom.Admit(ctx, bob, code, bobJoin.WaitingID); !errors.Is(err, ErrPermission) {
		t.Fatalf("self admit err = %v, want ErrPermission", err)
	}

	entry, err := f.waitingRoom.Admit(ctx, alice, code, bobJoin.WaitingID)
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if entry.Status != enum.WaitingAdmitted || entry.AdmittedBy == nil || *entry.AdmittedBy != alice.ID {
		t.Fatalf("admitted entry = %+v", entry)
	}
	if _, err := f.waitingRoom.Admit(ctx, alice, code, bobJoin.WaitingID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("re-admit err = %v, want ErrNotFound", err)
	}

	if _, err := f.waitingRoom.Reject(ctx, alice, code, carolJoin.WaitingID, "full"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	status, err := f.waitingRoom.PollStatus(ctx, carolJoin.WaitingID)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if status.Status != string(enum.WaitingRejected) || status.RejectionReason != "full" {
		t.Fatalf("status = %+v", status)
	}

	if _, err := f.waitingRoom.PollStatus(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing poll err = %v, want ErrNotFound", err)
	}
}

func TestLeaveAndSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := f.room(t, true)

	joined, err := f.waitingRoom.RequestJoin(ctx, &bob, code, &req.JoinWaitingRoomRequest{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := f.waitingRoom.Leave(ctx, "other-room", joined.WaitingID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("wrong room leave err = %v, want ErrNotFound", err)
	}
	if err := f.waitingRoom.Leave(ctx, code, joined.WaitingID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := f.waitingRoom.Leave(ctx, code, joined.WaitingID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second leave err = %v, want ErrNotFound", err)
	}

	if _, err := f.waitingRoom.RequestJoin(ctx, &carol, code, &req.JoinWaitingRoomRequest{}); err != nil {
		t.Fatalf("carol join: %v", err)
	}
	f.clock.Advance(2 * time.Hour)
	fresh, err := f.waitingRoom.RequestJoin(ctx, &dave, code, &req.JoinWaitingRoomRequest{})
	if err != nil {
		t.Fatalf("dave join: %v", err)
	}

	swept, err := f.waitingRoom.SweepStale(ctx, time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != 1 {
		t.Fatalf("swept = %d, want 1", swept)
	}
	if _, err := f.waitingRoom.PollStatus(ctx, fresh.WaitingID); err != nil {
		t.Fatalf("fresh entry swept: %v", err)
	}
}

func TestSetWaitingRoomEnabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := f.room(t, false)

	if _, err := f.waitingRoom.SetWaitingRoomEnabled(ctx, bob, code, true); !errors.Is(err, ErrPermission) {
		t.Fatalf("non host err = %v, want ErrPermission", err)
	}
	if _, err := f.waitingRoom.SetWaitingRoomEnabled(ctx, alice, code, true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	joined, err := f.waitingRoom.RequestJoin(ctx, &bob, code, &req.JoinWaitingRoomRequest{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.Bypassed || joined.Status != string(enum.WaitingPending) {
		t.Fatalf("joined = %+v, want waiting", joined)
	}
}
