package usecase

import (
	"context"
	"time"

	"bheem-chat/dto/req"
	"bheem-chat/dto/res"
	"bheem-chat/entity"
	"bheem-chat/security"
)

type WaitingRoomUsecase interface {
	CreateRoom(ctx context.Context, host security.CurrentUser, request *req.CreateRoomRequest) (*entity.MeetingRoom, error)
	SetWaitingRoomEnabled(ctx context.Context, host security.CurrentUser, roomCode string, enabled bool) (*entity.MeetingRoom, error)
	RequestJoin(ctx context.Context, user *security.CurrentUser, roomCode string, request *req.JoinWaitingRoomRequest) (res.JoinResponse, error)
	ListParticipants(ctx context.Context, host security.CurrentUser, roomCode string) (res.WaitingListResponse, error)
	Admit(ctx context.Context, host security.CurrentUser, roomCode, waitingID string) (*entity.WaitingRoomEntry, error)
	Reject(ctx context.Context, host security.CurrentUser, roomCode, waitingID, reason string) (*entity.WaitingRoomEntry, error)
	AdmitAll(ctx context.Context, host security.CurrentUser, roomCode string) (res.AdmitAllResponse, error)
	PollStatus(ctx context.Context, waitingID string) (res.WaitingStatusResponse, error)
	Leave(ctx context.Context, roomCode, waitingID string) error
	AuthorizeHost(ctx context.Context, user security.CurrentUser, roomCode string) error
	SweepStale(ctx context.Context, ttl time.Duration) (int64, error)
}
