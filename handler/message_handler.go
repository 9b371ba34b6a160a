package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"bheem-chat/dto/req"
	"bheem-chat/storage"
	"bheem-chat/usecase"
)

type MessageHandler struct {
	usecase.MessageUsecase
	*logrus.Logger
	MaxUploadBytes int64
}

func NewMessageHandler(messageUsecase usecase.MessageUsecase, logger *logrus.Logger, maxUploadBytes int64) *MessageHandler {
	return &MessageHandler{MessageUsecase: messageUsecase, Logger: logger, MaxUploadBytes: maxUploadBytes}
}

func (handler *MessageHandler) SendMessage(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	payload := new(req.SendMessageRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}

	message, err := handler.MessageUsecase.SendMessage(c.UserContext(), user, c.Params("id"), payload)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to send message: %v", err)
		return err
	}
	handler.Logger.Infof("Message %s sent to %s", message.ID, message.ConversationID)
	return respond(c, fiber.StatusCreated, "Message sent", message)
}

// GetMessages returns one page in chronological order. ?limit&before&after, where the
// cursors are message ids or RFC 3339 timestamps.
func (handler *MessageHandler) GetMessages(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	page := req.MessagePageRequest{}
	if err := c.QueryParser(&page); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid paging parameters")
	}
	messages, err := handler.MessageUsecase.GetMessages(c.UserContext(), user, c.Params("id"), page)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to get messages by conversation ID")
		return err
	}
	return respond(c, fiber.StatusOK, "Successfully to Get Messages", messages)
}

func (handler *MessageHandler) SearchMessages(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	messages, err := handler.MessageUsecase.SearchMessages(c.UserContext(), user, c.Params("id"), c.Query("q"), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Successfully to Search Messages", messages)
}

func (handler *MessageHandler) GetMessage(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	message, err := handler.MessageUsecase.GetMessage(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Successfully to Get Message", message)
}

func (handler *MessageHandler) EditMessage(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	payload := new(req.EditMessageRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	message, err := handler.MessageUsecase.EditMessage(c.UserContext(), user, c.Params("id"), payload)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Message updated", message)
}

func (handler *MessageHandler) DeleteMessage(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	deleted, err := handler.MessageUsecase.DeleteMessage(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Message deleted", deleted)
}

func (handler *MessageHandler) ToggleReaction(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	payload := new(req.ReactRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	reaction, err := handler.MessageUsecase.ToggleReaction(c.UserContext(), user, c.Params("id"), payload)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Reaction "+reaction.Action, reaction)
}

// UploadAttachment takes a multipart "file" field and returns metadata for sendMessage.
func (handler *MessageHandler) UploadAttachment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	if handler.MaxUploadBytes > 0 && header.Size > handler.MaxUploadBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, storage.ErrTooLarge.Error())
	}

	file, err := header.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "cannot read file")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "cannot read file")
	}

	stored, err := handler.MessageUsecase.UploadAttachment(c.UserContext(), user, c.Params("id"), data, storage.AttachmentMeta{
		FileName: header.Filename,
		MimeType: header.Header.Get(fiber.HeaderContentType),
	})
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to upload attachment: %v", err)
		return err
	}
	return respond(c, fiber.StatusCreated, "Attachment uploaded", stored)
}
