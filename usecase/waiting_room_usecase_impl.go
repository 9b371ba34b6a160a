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

type WaitingRoomUsecaseImpl struct {
	*Repositories
	*validator.Validate
	*gorm.DB
	*logrus.Logger
	Publisher realtime.Publisher
	Now       Clock
}

func NewWaitingRoomUsecase(repositories *Repositories, validate *validator.Validate, DB *gorm.DB, logger *logrus.Logger, publisher realtime.Publisher) *WaitingRoomUsecaseImpl {
	return &WaitingRoomUsecaseImpl{Repositories: repositories, Validate: validate, DB: DB, Logger: logger, Publisher: publisher, Now: SystemClock}
}

const roomCodeAlphabet = "abcdefghijkmnopqrstuvwxyz"

// newRoomCode renders a random uuid as a meet style "abc-defg-hij" code.
func newRoomCode() string {
	id := uuid.New()
	var b strings.Builder
	for i, group := range []int{3, 4, 3} {
		if i > 0 {
			b.WriteByte('-')
		}
		for j := 0; j < group; j++ {
			b.WriteByte(roomCodeAlphabet[int(id[b.Len()%len(id)])%len(roomCodeAlphabet)])
		}
	}
	return b.String()
}

func (uc *WaitingRoomUsecaseImpl) CreateRoom(ctx context.Context, host security.CurrentUser, request *req.CreateRoomRequest) (*entity.MeetingRoom, error) {
	if err := uc.Validate.Struct(request); err != nil {
		uc.Logger.WithError(err).Errorf("failed to validate request : %v", err)
		return nil, err
	}
	room := &entity.MeetingRoom{
		RoomCode:           newRoomCode(),
		Title:              request.Title,
		HostID:             host.ID,
		HostTenantID:       host.TenantRef(),
		WaitingRoomEnabled: request.WaitingRoomEnabled,
	}
	if err := uc.WaitingRoom.CreateRoom(ctx, uc.DB, room); err != nil {
		uc.Logger.WithError(err).Errorf("failed to create room : %v", err)
		return nil, persistence(err)
	}
	uc.Logger.WithFields(logrus.Fields{"roomCode": room.RoomCode, "hostId": host.ID}).Info("meeting room created")
	return room, nil
}

func (uc *WaitingRoomUsecaseImpl) SetWaitingRoomEnabled(ctx context.Context, host security.CurrentUser, roomCode string, enabled bool) (*entity.MeetingRoom, error) {
	room, err := uc.WaitingRoom.FindRoomByCode(ctx, uc.DB, roomCode)
	if err != nil {
		return nil, persistence(err)
	}
	if room == nil {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, roomCode)
	}
	if room.HostID != host.ID {
		return nil, fmt.Errorf("%w: only the host can change the waiting room", ErrPermission)
	}
	if err := uc.WaitingRoom.SetWaitingRoomEnabled(ctx, uc.DB, roomCode, enabled); err != nil {
		return nil, persistence(err)
	}
	room.WaitingRoomEnabled = enabled
	return room, nil
}

// RequestJoin admits the host and anyone joining an ungated or unknown room straight
// away without creating a row. Otherwise a caller already waiting gets the same entry back.
func (uc *WaitingRoomUsecaseImpl) RequestJoin(ctx context.Context, user *security.CurrentUser, roomCode string, request *req.JoinWaitingRoomRequest) (res.JoinResponse, error) {
	if err := uc.Validate.Struct(request); err != nil {
		return res.JoinResponse{}, err
	}
	room, err := uc.WaitingRoom.FindRoomByCode(ctx, uc.DB, roomCode)
	if err != nil {
		return res.JoinResponse{}, persistence(err)
	}

	bypass := res.JoinResponse{Status: string(enum.WaitingAdmitted), RoomCode: roomCode, Bypassed: true}
	if user != nil && room != nil && room.HostID == user.ID {
		return bypass, nil
	}
	if room == nil || !room.WaitingRoomEnabled {
		return bypass, nil
	}

	var userID *string
	displayName := strings.TrimSpace(request.DisplayName)
	if user != nil {
		id := user.ID
		userID = &id
		if displayName == "" {
			displayName = user.Name
		}
	}
	if displayName == "" {
		return res.JoinResponse{}, invalid("displayName is required")
	}

	email := strings.ToLower(strings.TrimSpace(request.Email))
	existing, err := uc.WaitingRoom.FindWaitingFor(ctx, uc.DB, roomCode, userID, email)
	if err != nil {
		return res.JoinResponse{}, persistence(err)
	}
	if existing != nil {
		return res.JoinResponse{WaitingID: existing.ID, Status: string(existing.Status), RoomCode: roomCode}, nil
	}

	entry := &entity.WaitingRoomEntry{
		RoomCode:    roomCode,
		UserID:      userID,
		DisplayName: displayName,
		Email:       email,
		Status:      enum.WaitingPending,
		RequestedAt: uc.Now(),
	}
	if err := uc.WaitingRoom.Save(ctx, uc.DB, entry); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent request for the same identity won the insert.
			winner, findErr := uc.WaitingRoom.FindWaitingFor(ctx, uc.DB, roomCode, userID, email)
			if findErr == nil && winner != nil {
				return res.JoinResponse{WaitingID: winner.ID, Status: string(winner.Status), RoomCode: roomCode}, nil
			}
		}
		uc.Logger.WithError(err).Errorf("failed to save waiting entry : %v", err)
		return res.JoinResponse{}, persistence(err)
	}

	publish(ctx, uc.Publisher, uc.Logger, realtime.WaitingRoomTopic(roomCode), realtime.Event{
		Type: realtime.EventWaitingRequested, RoomCode: roomCode, Data: entry, At: entry.RequestedAt,
	})
	return res.JoinResponse{WaitingID: entry.ID, Status: string(entry.Status), RoomCode: roomCode}, nil
}

// AuthorizeHost passes the room host. A room that has not been created yet has no host
// and lets any authenticated caller through.
func (uc *WaitingRoomUsecaseImpl) AuthorizeHost(ctx context.Context, user security.CurrentUser, roomCode string) error {
	room, err := uc.WaitingRoom.FindRoomByCode(ctx, uc.DB, roomCode)
	if err != nil {
		return persistence(err)
	}
	if room != nil && room.HostID != user.ID {
		return fmt.Errorf("%w: only the host can manage the waiting room", ErrPermission)
	}
	return nil
}

func (uc *WaitingRoomUsecaseImpl) ListParticipants(ctx context.Context, host security.CurrentUser, roomCode string) (res.WaitingListResponse, error) {
	if err := uc.AuthorizeHost(ctx, host, roomCode); err != nil {
		return res.WaitingListResponse{}, err
	}
	waiting, err := uc.WaitingRoom.ListByStatus(ctx, uc.DB, roomCode, enum.WaitingPending)
	if err != nil {
		return res.WaitingListResponse{}, persistence(err)
	}
	admitted, err := uc.WaitingRoom.ListByStatus(ctx, uc.DB, roomCode, enum.WaitingAdmitted)
	if err != nil {
		return res.WaitingListResponse{}, persistence(err)
	}
	if waiting == nil {
		waiting = []entity.WaitingRoomEntry{}
	}
	if admitted == nil {
		admitted = []entity.WaitingRoomEntry{}
	}
	return res.WaitingListResponse{RoomCode: roomCode, Waiting: waiting, Admitted: admitted}, nil
}

func (uc *WaitingRoomUsecaseImpl) Admit(ctx context.Context, host security.CurrentUser, roomCode, waitingID string) (*entity.WaitingRoomEntry, error) {
	return uc.resolve(ctx, host, roomCode, waitingID, enum.WaitingAdmitted, "")
}

func (uc *WaitingRoomUsecaseImpl) Reject(ctx context.Context, host security.CurrentUser, roomCode, waitingID, reason string) (*entity.WaitingRoomEntry, error) {
	return uc.resolve(ctx, host, roomCode, waitingID, enum.WaitingRejected, reason)
}

func (uc *WaitingRoomUsecaseImpl) resolve(ctx context.Context, host security.CurrentUser, roomCode, waitingID string, status enum.WaitingStatus, reason string) (*entity.WaitingRoomEntry, error) {
	if err := uc.AuthorizeHost(ctx, host, roomCode); err != nil {
		return nil, err
	}
	now := uc.Now()
	affected, err := uc.WaitingRoom.Resolve(ctx, uc.DB, roomCode, waitingID, status, host.ID, reason, now)
	if err != nil {
		uc.Logger.WithError(err).Errorf("failed to resolve waiting entry %s", waitingID)
		return nil, persistence(err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: no waiting entry %s in room %s", ErrNotFound, waitingID, roomCode)
	}
	entry, err := uc.WaitingRoom.FindEntry(ctx, uc.DB, roomCode, waitingID)
	if err != nil {
		return nil, notFound("waiting entry", err)
	}

	publish(ctx, uc.Publisher, uc.Logger, realtime.WaitingRoomTopic(roomCode), realtime.Event{
		Type: realtime.EventWaitingResolved, RoomCode: roomCode, Data: entry, At: now,
	})
	return entry, nil
}

func (uc *WaitingRoomUsecaseImpl) AdmitAll(ctx context.Context, host security.CurrentUser, roomCode string) (res.AdmitAllResponse, error) {
	if err := uc.AuthorizeHost(ctx, host, roomCode); err != nil {
		return res.AdmitAllResponse{}, err
	}
	now := uc.Now()
	admitted, err := uc.WaitingRoom.AdmitAll(ctx, uc.DB, roomCode, host.ID, now)
	if err != nil {
		return res.AdmitAllResponse{}, persistence(err)
	}

	response := res.AdmitAllResponse{RoomCode: roomCode, AdmittedCount: admitted}
	if admitted > 0 {
		publish(ctx, uc.Publisher, uc.Logger, realtime.WaitingRoomTopic(roomCode), realtime.Event{
			Type: realtime.EventWaitingResolved, RoomCode: roomCode, Data: response, At: now,
		})
	}
	return response, nil
}

// PollStatus needs no session; the waiting id is the bearer secret.
func (uc *WaitingRoomUsecaseImpl) PollStatus(ctx context.Context, waitingID string) (res.WaitingStatusResponse, error) {
	entry, err := uc.WaitingRoom.FindEntry(ctx, uc.DB, "", waitingID)
	if err != nil {
		return res.WaitingStatusResponse{}, notFound("waiting entry", err)
	}
	return res.WaitingStatusResponse{
		WaitingID:       entry.ID,
		Status:          string(entry.Status),
		RejectionReason: entry.RejectionReason,
	}, nil
}

func (uc *WaitingRoomUsecaseImpl) Leave(ctx context.Context, roomCode, waitingID string) error {
	deleted, err := uc.WaitingRoom.DeleteIfWaiting(ctx, uc.DB, roomCode, waitingID)
	if err != nil {
		return persistence(err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: no waiting entry %s in room %s", ErrNotFound, waitingID, roomCode)
	}
	return nil
}

func (uc *WaitingRoomUsecaseImpl) SweepStale(ctx context.Context, ttl time.Duration) (int64, error) {
	deleted, err := uc.WaitingRoom.DeleteRequestedBefore(ctx, uc.DB, uc.Now().Add(-ttl))
	if err != nil {
		return 0, persistence(err)
	}
	return deleted, nil
}
