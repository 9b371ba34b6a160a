package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bheem-chat/dto/req"
	"bheem-chat/dto/res"
	"bheem-chat/entity"
	"bheem-chat/enum"
	"bheem-chat/realtime"
	"bheem-chat/repository"
	"bheem-chat/security"
	"bheem-chat/storage"
)

const maxPageLimit = 200

type MessageUsecaseImpl struct {
	*Repositories
	*validator.Validate
	*gorm.DB
	*logrus.Logger
	Publisher realtime.Publisher
	Store     storage.AttachmentStore
	PageLimit int
	Now       Clock
}

func NewMessageUsecase(repositories *Repositories, validate *validator.Validate, DB *gorm.DB, logger *logrus.Logger, publisher realtime.Publisher, store storage.AttachmentStore, pageLimit int) *MessageUsecaseImpl {
	if pageLimit <= 0 || pageLimit > maxPageLimit {
		pageLimit = 50
	}
	return &MessageUsecaseImpl{
		Repositories: repositories,
		Validate:     validate,
		DB:           DB,
		Logger:       logger,
		Publisher:    publisher,
		Store:        store,
		PageLimit:    pageLimit,
		Now:          SystemClock,
	}
}

// deliver persists the message and applies its fan-out on tx: conversation preview,
// unread counters of everyone but the sender, and last-contacted stamps of guest contacts.
// Callers commit or roll back all of it together.
func deliver(ctx context.Context, tx *gorm.DB, repositories *Repositories, message *entity.Message) error {
	if err := repositories.Messages.Save(ctx, tx, message); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if err := repositories.Conversations.UpdateLastMessage(ctx, tx, message); err != nil {
		return fmt.Errorf("update preview: %w", err)
	}
	if _, err := repositories.Participants.IncrementUnread(ctx, tx, message.ConversationID, message.SenderID); err != nil {
		return fmt.Errorf("increment unread: %w", err)
	}
	if _, err := repositories.Contacts.StampLastContacted(ctx, tx, message.ConversationID, message.CreatedAt); err != nil {
		return fmt.Errorf("stamp contacts: %w", err)
	}
	return nil
}

func newMessage(conversationID string, sender security.CurrentUser, participant *entity.Participant, content string, messageType enum.MessageType, at time.Time) *entity.Message {
	name := sender.Name
	if name == "" {
		name = participant.DisplayName
	}
	message := &entity.Message{
		ConversationID:   conversationID,
		SenderID:         sender.ID,
		SenderName:       name,
		SenderAvatar:     sender.Avatar,
		SenderTenantID:   sender.TenantRef(),
		IsExternalSender: participant.ParticipantType != enum.ParticipantInternal,
		Content:          content,
		MessageType:      messageType,
		DeliveredTo:      datatypes.JSONSlice[string]{},
		ReadBy:           datatypes.JSONSlice[string]{},
	}
	message.CreatedAt = at
	message.UpdatedAt = at
	return message
}

// SendMessage requires the conversation to exist and the sender to be an active member.
func (uc *MessageUsecaseImpl) SendMessage(ctx context.Context, sender security.CurrentUser, conversationID string, request *req.SendMessageRequest) (res.MessageResponse, error) {
	if err := uc.Validate.Struct(request); err != nil {
		uc.Logger.WithError(err).Errorf("failed to validate request : %v", err)
		return res.MessageResponse{}, err
	}
	messageType := enum.MessageType(request.MessageType)
	if messageType == "" {
		messageType = enum.MessageText
	}
	if messageType == enum.MessageCall {
		return res.MessageResponse{}, invalid("call messages are created by starting a call")
	}
	now := uc.Now()

	trx := uc.DB.WithContext(ctx).Begin()
	defer trx.Rollback()

	conversation, participant, err := uc.membership(ctx, trx, conversationID, sender.ID)
	if err != nil {
		return res.MessageResponse{}, err
	}

	message := newMessage(conversationID, sender, participant, request.Content, messageType, now)

	if request.ReplyToID != "" {
		parent, err := uc.Messages.FindMessageByID(ctx, trx, request.ReplyToID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && parent.ConversationID != conversationID) {
			return res.MessageResponse{}, fmt.Errorf("%w: %s", ErrInvalidReply, request.ReplyToID)
		}
		if err != nil {
			return res.MessageResponse{}, persistence(err)
		}
		replyTo := parent.ID
		message.ReplyToID = &replyTo
	}

	if len(request.Attachments) > 0 {
		if message.IsExternalSender && !conversation.AllowExternalFiles {
			return res.MessageResponse{}, fmt.Errorf("%w: external participants cannot share files here", ErrPermission)
		}
		for _, input := range request.Attachments {
			message.Attachments = append(message.Attachments, entity.Attachment{
				FileName:     input.FileName,
				MimeType:     input.MimeType,
				Size:         input.Size,
				URL:          input.URL,
				ThumbnailURL: input.ThumbnailURL,
				Width:        input.Width,
				Height:       input.Height,
			})
		}
	}

	if err := deliver(ctx, trx, uc.Repositories, message); err != nil {
		uc.Logger.WithError(err).Errorf("failed to deliver message to %s", conversationID)
		return res.MessageResponse{}, persistence(err)
	}
	if err := trx.Commit().Error; err != nil {
		uc.Logger.WithError(err).Errorf("failed to commit message : %v", err)
		return res.MessageResponse{}, persistence(err)
	}

	response := res.NewMessageResponse(message, nil)
	publish(ctx, uc.Publisher, uc.Logger, realtime.ConversationTopic(conversationID),
		conversationEvent(realtime.EventMessageCreated, conversationID, response, now))
	return response, nil
}

func (uc *MessageUsecaseImpl) EditMessage(ctx context.Context, actor security.CurrentUser, messageID string, request *req.EditMessageRequest) (res.MessageResponse, error) {
	if err := uc.Validate.Struct(request); err != nil {
		return res.MessageResponse{}, err
	}
	message, err := uc.Messages.FindMessageByID(ctx, uc.DB, messageID)
	if err != nil {
		return res.MessageResponse{}, notFound("message", err)
	}
	if message.SenderID != actor.ID {
		return res.MessageResponse{}, fmt.Errorf("%w: only the sender can edit a message", ErrPermission)
	}
	if message.IsDeleted() {
		return res.MessageResponse{}, fmt.Errorf("%w: message %s is deleted", ErrConflict, messageID)
	}

	now := uc.Now()
	affected, err := uc.Messages.EditContent(ctx, uc.DB, messageID, request.Content, now)
	if err != nil {
		uc.Logger.WithError(err).Errorf("failed to edit message %s", messageID)
		return res.MessageResponse{}, persistence(err)
	}
	if affected == 0 {
		return res.MessageResponse{}, fmt.Errorf("%w: message %s is deleted", ErrConflict, messageID)
	}
	message.Content = request.Content
	message.IsEdited = true
	message.UpdatedAt = now

	response, err := uc.render(ctx, message)
	if err != nil {
		return res.MessageResponse{}, err
	}
	publish(ctx, uc.Publisher, uc.Logger, realtime.ConversationTopic(message.ConversationID),
		conversationEvent(realtime.EventMessageUpdated, message.ConversationID, response, now))
	return response, nil
}

// DeleteMessage is allowed for the sender and for owners or admins of the conversation.
// Deleting an already deleted message succeeds without changes.
func (uc *MessageUsecaseImpl) DeleteMessage(ctx context.Context, actor security.CurrentUser, messageID string) (res.DeleteMessageResponse, error) {
	message, err := uc.Messages.FindMessageByID(ctx, uc.DB, messageID)
	if err != nil {
		return res.DeleteMessageResponse{}, notFound("message", err)
	}
	if message.SenderID != actor.ID {
		participant, err := uc.Participants.FindActive(ctx, uc.DB, message.ConversationID, actor.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return res.DeleteMessageResponse{}, persistence(err)
		}
		if participant == nil || !participant.Role.CanModerate() {
			return res.DeleteMessageResponse{}, fmt.Errorf("%w: only the sender or a conversation owner can delete", ErrPermission)
		}
	}

	response := res.DeleteMessageResponse{MessageID: messageID, IsDeleted: true}
	if message.IsDeleted() {
		return response, nil
	}

	now := uc.Now()
	affected, err := uc.Messages.SoftDelete(ctx, uc.DB, messageID, now)
	if err != nil {
		uc.Logger.WithError(err).Errorf("failed to delete message %s", messageID)
		return res.DeleteMessageResponse{}, persistence(err)
	}
	if affected > 0 {
		uc.Logger.WithFields(logrus.Fields{"messageId": messageID, "by": actor.ID}).Info("message deleted")
		publish(ctx, uc.Publisher, uc.Logger, realtime.ConversationTopic(message.ConversationID),
			conversationEvent(realtime.EventMessageDeleted, message.ConversationID, response, now))
	}
	return response, nil
}

func (uc *MessageUsecaseImpl) ToggleReaction(ctx context.Context, user security.CurrentUser, messageID string, request *req.ReactRequest) (res.ReactionResponse, error) {
	if err := uc.Validate.Struct(request); err != nil {
		return res.ReactionResponse{}, err
	}
	emoji := strings.TrimSpace(request.Emoji)
	if emoji == "" {
		return res.ReactionResponse{}, invalid("emoji is empty")
	}

	trx := uc.DB.WithContext(ctx).Begin()
	defer trx.Rollback()

	message, err := uc.Messages.FindMessageByID(ctx, trx, messageID)
	if err != nil {
		return res.ReactionResponse{}, notFound("message", err)
	}
	if _, _, err := uc.membership(ctx, trx, message.ConversationID, user.ID); err != nil {
		return res.ReactionResponse{}, err
	}
	if message.IsDeleted() {
		return res.ReactionResponse{}, fmt.Errorf("%w: message %s is deleted", ErrConflict, messageID)
	}

	added, err := uc.Messages.ToggleReaction(ctx, trx, messageID, user.ID, emoji)
	if err != nil {
		uc.Logger.WithError(err).Errorf("failed to toggle reaction on %s", messageID)
		return res.ReactionResponse{}, persistence(err)
	}
	grouped, err := uc.Messages.ReactionsFor(ctx, trx, []string{messageID})
	if err != nil {
		return res.ReactionResponse{}, persistence(err)
	}
	if err := trx.Commit().Error; err != nil {
		return res.ReactionResponse{}, persistence(err)
	}

	response := res.ReactionResponse{MessageID: messageID, Emoji: emoji, Action: "removed", Reactions: grouped[messageID]}
	if added {
		response.Action = "added"
	}
	if response.Reactions == nil {
		response.Reactions = map[string][]string{}
	}
	publish(ctx, uc.Publisher, uc.Logger, realtime.ConversationTopic(message.ConversationID),
		conversationEvent(realtime.EventReactionToggled, message.ConversationID, response, uc.Now()))
	return response, nil
}

func (uc *MessageUsecaseImpl) GetMessages(ctx context.Context, user security.CurrentUser, conversationID string, page req.MessagePageRequest) ([]res.MessageResponse, error) {
	if _, _, err := uc.membership(ctx, uc.DB, conversationID, user.ID); err != nil {
		return nil, err
	}

	query := repository.PageQuery{Limit: uc.limit(page.Limit)}
	var err error
	if query.Before, err = uc.cursor(ctx, conversationID, page.Before); err != nil {
		return nil, err
	}
	if query.After, err = uc.cursor(ctx, conversationID, page.After); err != nil {
		return nil, err
	}

	messages, err := uc.Messages.FindPage(ctx, uc.DB, conversationID, query)
	if err != nil {
		uc.Logger.WithError(err).Errorf("failed to load messages of %s", conversationID)
		return nil, persistence(err)
	}
	return uc.renderAll(ctx, messages)
}

// GetMessage returns deleted messages with their attachments for moderation.
func (uc *MessageUsecaseImpl) GetMessage(ctx context.Context, user security.CurrentUser, messageID string) (res.MessageResponse, error) {
	message, err := uc.Messages.FindMessageByID(ctx, uc.DB, messageID)
	if err != nil {
		return res.MessageResponse{}, notFound("message", err)
	}
	if _, _, err := uc.membership(ctx, uc.DB, message.ConversationID, user.ID); err != nil {
		return res.MessageResponse{}, err
	}
	return uc.render(ctx, message)
}

func (uc *MessageUsecaseImpl) SearchMessages(ctx context.Context, user security.CurrentUser, conversationID, term string, limit int) ([]res.MessageResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, invalid("search term is empty")
	}
	if _, _, err := uc.membership(ctx, uc.DB, conversationID, user.ID); err != nil {
		return nil, err
	}
	messages, err := uc.Messages.Search(ctx, uc.DB, conversationID, term, uc.limit(limit))
	if err != nil {
		return nil, persistence(err)
	}
	return uc.renderAll(ctx, messages)
}

func (uc *MessageUsecaseImpl) UploadAttachment(ctx context.Context, user security.CurrentUser, conversationID string, data []byte, meta storage.AttachmentMeta) (storage.StoredAttachment, error) {
	conversation, participant, err := uc.membership(ctx, uc.DB, conversationID, user.ID)
	if err != nil {
		return storage.StoredAttachment{}, err
	}
	if participant.ParticipantType != enum.ParticipantInternal && !conversation.AllowExternalFiles {
		return storage.StoredAttachment{}, fmt.Errorf("%w: external participants cannot share files here", ErrPermission)
	}
	if len(data) == 0 {
		return storage.StoredAttachment{}, invalid("file is empty")
	}

	meta.ConversationID = conversationID
	stored, err := uc.Store.Store(ctx, data, meta)
	if errors.Is(err, storage.ErrTooLarge) {
		return storage.StoredAttachment{}, invalid("%v", err)
	}
	if err != nil {
		uc.Logger.WithError(err).Errorf("failed to store attachment for %s", conversationID)
		return storage.StoredAttachment{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return stored, nil
}

func (uc *MessageUsecaseImpl) limit(requested int) int {
	if requested <= 0 {
		return uc.PageLimit
	}
	if requested > maxPageLimit {
		return maxPageLimit
	}
	return requested
}

// cursor accepts either a message id from the same conversation or an RFC 3339 timestamp.
func (uc *MessageUsecaseImpl) cursor(ctx context.Context, conversationID, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if at, err := time.Parse(time.RFC3339Nano, value); err == nil {
		at = at.UTC()
		return &at, nil
	}
	message, err := uc.Messages.FindMessageByID(ctx, uc.DB, value)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && message.ConversationID != conversationID) {
		return nil, invalid("cursor %q is neither a timestamp nor a message of this conversation", value)
	}
	if err != nil {
		return nil, persistence(err)
	}
	return &message.CreatedAt, nil
}

func (uc *MessageUsecaseImpl) render(ctx context.Context, message *entity.Message) (res.MessageResponse, error) {
	grouped, err := uc.Messages.ReactionsFor(ctx, uc.DB, []string{message.ID})
	if err != nil {
		return res.MessageResponse{}, persistence(err)
	}
	return res.NewMessageResponse(message, grouped[message.ID]), nil
}

// renderAll hides attachments of deleted messages; GetMessage still exposes them.
func (uc *MessageUsecaseImpl) renderAll(ctx context.Context, messages []entity.Message) ([]res.MessageResponse, error) {
	ids := make([]string, 0, len(messages))
	for _, message := range messages {
		ids = append(ids, message.ID)
	}
	grouped, err := uc.Messages.ReactionsFor(ctx, uc.DB, ids)
	if err != nil {
		return nil, persistence(err)
	}

	responses := make([]res.MessageResponse, 0, len(messages))
	for i := range messages {
		message := &messages[i]
		if message.IsDeleted() {
			message.Attachments = nil
		}
		responses = append(responses, res.NewMessageResponse(message, grouped[message.ID]))
	}
	return responses, nil
}
