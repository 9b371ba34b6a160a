package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"bheem-chat/dto/req"
	"bheem-chat/dto/res"
	"bheem-chat/entity"
	"bheem-chat/enum"
	"bheem-chat/repository"
	"bheem-chat/usecase"
)

type ConversationHandler struct {
	usecase.ConversationUsecase
	usecase.ParticipantUsecase
	usecase.ExportUsecase
	*logrus.Logger
}

func NewConversationHandler(conversationUsecase usecase.ConversationUsecase, participantUsecase usecase.ParticipantUsecase, exportUsecase usecase.ExportUsecase, logger *logrus.Logger) *ConversationHandler {
	return &ConversationHandler{
		ConversationUsecase: conversationUsecase,
		ParticipantUsecase:  participantUsecase,
		ExportUsecase:       exportUsecase,
		Logger:              logger,
	}
}

func (handler *ConversationHandler) CreateConversation(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	payload := new(req.CreateConversationRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}

	conversation, err := handler.ConversationUsecase.CreateConversation(c.UserContext(), user, payload)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to create conversation: %v", err)
		return err
	}
	return respond(c, fiber.StatusCreated, "Successfully created conversation", conversation)
}

// GetConversations lists the caller's conversations. Optional filters: ?archived=true|false&scope=internal|external|cross_tenant.
func (handler *ConversationHandler) GetConversations(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	filter := repository.ConversationFilter{Scope: enum.ConversationScope(c.Query("scope"))}
	if filter.Scope != "" && !filter.Scope.IsValid() {
		return fiber.NewError(fiber.StatusBadRequest, "scope must be internal, external or cross_tenant")
	}
	if raw := c.Query("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "archived must be a boolean")
		}
		filter.Archived = &archived
	}

	conversations, err := handler.ConversationUsecase.GetConversationsForUser(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Successfully to Get All Conversations", conversations)
}

func (handler *ConversationHandler) GetConversation(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	conversation, err := handler.ConversationUsecase.GetConversation(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Successfully to Get Conversation", conversation)
}

func (handler *ConversationHandler) UpdateConversation(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	payload := new(req.UpdateConversationRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	conversation, err := handler.ConversationUsecase.UpdateConversation(c.UserContext(), user, c.Params("id"), payload)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Successfully updated conversation", conversation)
}

func (handler *ConversationHandler) ArchiveConversation(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := handler.ConversationUsecase.ArchiveConversation(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Conversation archived", fiber.Map{"conversationId": c.Params("id"), "isArchived": true})
}

func (handler *ConversationHandler) UnarchiveConversation(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := handler.ConversationUsecase.UnarchiveConversation(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Conversation unarchived", fiber.Map{"conversationId": c.Params("id"), "isArchived": false})
}

func (handler *ConversationHandler) GetParticipants(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	participants, err := handler.ParticipantUsecase.ListParticipants(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Successfully to Get Participants", participants)
}

func (handler *ConversationHandler) AddParticipant(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	payload := new(req.AddParticipantRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	participant, err := handler.ParticipantUsecase.AddParticipant(c.UserContext(), user, c.Params("id"), payload)
	if err != nil {
		handler.Logger.WithError(err).Warnf("Failed to add participant to %s", c.Params("id"))
		return err
	}
	return respond[*entity.Participant](c, fiber.StatusCreated, "Participant added", participant)
}

func (handler *ConversationHandler) RemoveParticipant(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := handler.ParticipantUsecase.RemoveParticipant(c.UserContext(), user, c.Params("id"), c.Params("userId")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Participant removed", fiber.Map{"conversationId": c.Params("id"), "userId": c.Params("userId")})
}

func (handler *ConversationHandler) ToggleMute(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	participant, err := handler.ParticipantUsecase.ToggleMute(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Mute toggled", fiber.Map{"conversationId": c.Params("id"), "isMuted": participant.IsMuted})
}

func (handler *ConversationHandler) MarkRead(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	payload := new(req.MarkReadRequest)
	if len(c.Body()) > 0 {
		if err := parseBody(c, payload); err != nil {
			return err
		}
	}
	read, err := handler.ParticipantUsecase.MarkRead(c.UserContext(), user, c.Params("id"), payload.MessageID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Conversation marked as read", read)
}

func (handler *ConversationHandler) GetUnread(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	unread, err := handler.ParticipantUsecase.GetUnread(c.UserContext(), user)
	if err != nil {
		return err
	}
	return respond[res.UnreadResponse](c, fiber.StatusOK, "Successfully to Get Unread Counts", unread)
}

// ExportTranscript streams the transcript as a download. ?format=json|txt|csv, default json.
func (handler *ConversationHandler) ExportTranscript(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	transcript, err := handler.ExportUsecase.ExportTranscript(c.UserContext(), user, c.Params("id"), enum.ExportFormat(c.Query("format", "json")))
	if err != nil {
		return err
	}
	c.Attachment(transcript.FileName)
	c.Set(fiber.HeaderContentType, transcript.ContentType)
	return c.Status(fiber.StatusOK).Send(transcript.Body)
}

func (handler *ConversationHandler) GetStats(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	stats, err := handler.ExportUsecase.GetStats(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Successfully to Get Stats", stats)
}
