package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bheem-chat/dto/req"
	"bheem-chat/dto/res"
	"bheem-chat/entity"
	"bheem-chat/enum"
	"bheem-chat/realtime"
	"bheem-chat/security"
)

type CallUsecaseImpl struct {
	*Repositories
	*validator.Validate
	*gorm.DB
	*logrus.Logger
	Publisher realtime.Publisher
	Now       Clock
}

func NewCallUsecase(repositories *Repositories, validate *validator.Validate, DB *gorm.DB, logger *logrus.Logger, publisher realtime.Publisher) *CallUsecaseImpl {
	return &CallUsecaseImpl{Repositories: repositories, Validate: validate, DB: DB, Logger: logger, Publisher: publisher, Now: SystemClock}
}

// StartCall rings the conversation. The call message goes through the regular delivery
// fan-out in the same transaction as the call log.
func (uc *CallUsecaseImpl) StartCall(ctx context.Context, caller security.CurrentUser, conversationID string, request *req.StartCallRequest) (*entity.CallLog, error) {
	if err := uc.Validate.Struct(request); err != nil {
		uc.Logger.WithError(err).Errorf("failed to validate request : %v", err)
		return nil, err
	}
	now := uc.Now()

	trx := uc.DB.WithContext(ctx).Begin()
	defer trx.Rollback()

	if _, err := uc.Conversations.FindConversationForUpdate(ctx, trx, conversationID); err != nil {
		return nil, notFound("conversation", err)
	}
	_, participant, err := uc.membership(ctx, trx, conversationID, caller.ID)
	if err != nil {
		return nil, err
	}
	active, err := uc.Calls.FindActiveCall(ctx, trx, conversationID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, persistence(err)
	}
	if active != nil {
		return nil, fmt.Errorf("%w: call %s is still %s", ErrConflict, active.ID, active.Status)
	}

	call := &entity.CallLog{
		ConversationID:     conversationID,
		CallType:           enum.CallType(request.CallType),
		RoomName:           "bheem-" + uuid.New().String(),
		CallerID:           caller.ID,
		CallerName:         caller.Name,
		Status:             enum.CallRinging,
		JoinedParticipants: datatypes.JSONSlice[string]{caller.ID},
	}
	call.CreatedAt = now
	call.UpdatedAt = now
	if err := uc.Calls.Save(ctx, trx, call); err != nil {
		uc.Logger.WithError(err).Errorf("failed to save call : %v", err)
		return nil, persistence(err)
	}

	content := "Audio call"
	if call.CallType == enum.CallVideo {
		content = "Video call"
	}
	message := newMessage(conversationID, caller, participant, content, enum.MessageCall, now)
	callID := call.ID
	message.CallLogID = &callID
	if err := deliver(ctx, trx, uc.Repositories, message); err != nil {
		uc.Logger.WithError(err).Errorf("failed to deliver call message to %s", conversationID)
		return nil, persistence(err)
	}
	if err := trx.Commit().Error; err != nil {
		return nil, persistence(err)
	}

	topic := realtime.ConversationTopic(conversationID)
	publish(ctx, uc.Publisher, uc.Logger, topic, conversationEvent(realtime.EventMessageCreated, conversationID, res.NewMessageResponse(message, nil), now))
	publish(ctx, uc.Publisher, uc.Logger, topic, conversationEvent(realtime.EventCallUpdated, conversationID, call, now))
	return call, nil
}

// transition loads the call under lock, checks membership and applies change unless the
// call already reached a terminal status.
func (uc *CallUsecaseImpl) transition(ctx context.Context, user security.CurrentUser, callID string, change func(call *entity.CallLog, now time.Time) error) (*entity.CallLog, error) {
	now := uc.Now()

	trx := uc.DB.WithContext(ctx).Begin()
	defer trx.Rollback()

	call, err := uc.Calls.FindCallForUpdate(ctx, trx, callID)
	if err != nil {
		return nil, notFound("call", err)
	}
	if _, _, err := uc.membership(ctx, trx, call.ConversationID, user.ID); err != nil {
		return nil, err
	}
	if call.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: call is already %s", ErrConflict, call.Status)
	}
	if err := change(call, now); err != nil {
		return nil, err
	}
	call.UpdatedAt = now
	if err := uc.Calls.Update(ctx, trx, call); err != nil {
		uc.Logger.WithError(err).Errorf("failed to update call %s", callID)
		return nil, persistence(err)
	}
	if err := trx.Commit().Error; err != nil {
		return nil, persistence(err)
	}

	uc.Logger.WithFields(logrus.Fields{"callId": call.ID, "status": call.Status, "by": user.ID}).Info("call updated")
	publish(ctx, uc.Publisher, uc.Logger, realtime.ConversationTopic(call.ConversationID),
		conversationEvent(realtime.EventCallUpdated, call.ConversationID, call, now))
	return call, nil
}

func (uc *CallUsecaseImpl) JoinCall(ctx context.Context, user security.CurrentUser, callID string) (*entity.CallLog, error) {
	return uc.transition(ctx, user, callID, func(call *entity.CallLog, now time.Time) error {
		if call.Status == enum.CallRinging {
			call.Status = enum.CallOngoing
			call.StartedAt = &now
		}
		if !slices.Contains(call.JoinedParticipants, user.ID) {
			call.JoinedParticipants = append(call.JoinedParticipants, user.ID)
		}
		return nil
	})
}

func (uc *CallUsecaseImpl) DeclineCall(ctx context.Context, user security.CurrentUser, callID string) (*entity.CallLog, error) {
	return uc.transition(ctx, user, callID, func(call *entity.CallLog, now time.Time) error {
		if call.Status != enum.CallRinging {
			return fmt.Errorf("%w: only a ringing call can be declined", ErrConflict)
		}
		if call.CallerID == user.ID {
			return fmt.Errorf("%w: the caller cannot decline their own call", ErrConflict)
		}
		call.Status = enum.CallDeclined
		call.EndedAt = &now
		call.EndReason = "declined"
		return nil
	})
}

// EndCall finishes an ongoing call with its duration; ending a call nobody picked up marks it missed.
func (uc *CallUsecaseImpl) EndCall(ctx context.Context, user security.CurrentUser, callID string, request *req.EndCallRequest) (*entity.CallLog, error) {
	if err := uc.Validate.Struct(request); err != nil {
		return nil, err
	}
	return uc.transition(ctx, user, callID, func(call *entity.CallLog, now time.Time) error {
		call.EndedAt = &now
		call.EndReason = request.Reason
		if call.Status == enum.CallRinging {
			call.Status = enum.CallMissed
			return nil
		}
		call.Status = enum.CallEnded
		if call.StartedAt != nil {
			call.DurationSeconds = int(now.Sub(*call.StartedAt).Seconds())
		}
		if call.EndReason == "" {
			call.EndReason = "completed"
		}
		return nil
	})
}

func (uc *CallUsecaseImpl) ExpireRingingCalls(ctx context.Context, timeout time.Duration) (int64, error) {
	now := uc.Now()
	expired, err := uc.Calls.ExpireRinging(ctx, uc.DB, now.Add(-timeout), now)
	if err != nil {
		return 0, persistence(err)
	}
	return expired, nil
}
