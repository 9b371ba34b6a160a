package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"bheem-chat/dto/req"
	"bheem-chat/usecase"
)

type InvitationHandler struct {
	usecase.InvitationUsecase
	*logrus.Logger
}

func NewInvitationHandler(invitationUsecase usecase.InvitationUsecase, logger *logrus.Logger) *InvitationHandler {
	return &InvitationHandler{InvitationUsecase: invitationUsecase, Logger: logger}
}

func (handler *InvitationHandler) Invite(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	payload := new(req.InviteRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	invitation, err := handler.InvitationUsecase.Invite(c.UserContext(), user, c.Params("id"), payload)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Invitation created", invitation)
}

func (handler *InvitationHandler) AcceptInvitation(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	participant, err := handler.InvitationUsecase.AcceptInvitation(c.UserContext(), user, c.Params("token"))
	if err != nil {
		handler.Logger.WithError(err).Warn("Failed to accept invitation")
		return err
	}
	return respond(c, fiber.StatusOK, "Invitation accepted", participant)
}

func (handler *InvitationHandler) DeclineInvitation(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := handler.InvitationUsecase.DeclineInvitation(c.UserContext(), user, c.Params("token")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Invitation declined", fiber.Map{"status": "declined"})
}
