// Package worker runs the periodic chat sweeps on asynq: invitation expiry, stale
// waiting-room cleanup and the unanswered-call timeout.
package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"bheem-chat/config/common"
	"bheem-chat/config/logger"
	"bheem-chat/usecase"
)

const (
	TypeExpireInvitations = "chat:invitations:expire"
	TypeSweepWaitingRoom  = "chat:waiting-room:sweep"
	TypeExpireRinging     = "chat:calls:expire-ringing"

	QueueName = "chat"
)

// Handlers binds each sweep task to the usecase that performs it.
type Handlers struct {
	Invitations usecase.InvitationUsecase
	WaitingRoom usecase.WaitingRoomUsecase
	Calls       usecase.CallUsecase
	Chat        common.ChatConfig
	Log         logger.CommonLogger
}

func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeExpireInvitations, h.HandleExpireInvitations)
	mux.HandleFunc(TypeSweepWaitingRoom, h.HandleSweepWaitingRoom)
	mux.HandleFunc(TypeExpireRinging, h.HandleExpireRinging)
}

func (h *Handlers) HandleExpireInvitations(ctx context.Context, task *asynq.Task) error {
	expired, err := h.Invitations.ExpireInvitations(ctx)
	return h.report(task, expired, err)
}

func (h *Handlers) HandleSweepWaitingRoom(ctx context.Context, task *asynq.Task) error {
	ttl := h.Chat.WaitingRoomTTL
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	deleted, err := h.WaitingRoom.SweepStale(ctx, ttl)
	return h.report(task, deleted, err)
}

func (h *Handlers) HandleExpireRinging(ctx context.Context, task *asynq.Task) error {
	timeout := h.Chat.CallRingTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	expired, err := h.Calls.ExpireRingingCalls(ctx, timeout)
	return h.report(task, expired, err)
}

func (h *Handlers) report(task *asynq.Task, affected int64, err error) error {
	if err != nil {
		h.Log.Error.Error().Err(err).Str("task", task.Type()).Msg("sweep failed")
		return err
	}
	if affected > 0 {
		h.Log.Info.Info().Str("task", task.Type()).Int64("affected", affected).Msg("sweep done")
	}
	return nil
}
