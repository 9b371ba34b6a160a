package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"bheem-chat/dto/req"
	"bheem-chat/usecase"
)

type CallHandler struct {
	usecase.CallUsecase
	*logrus.Logger
}

func NewCallHandler(callUsecase usecase.CallUsecase, logger *logrus.Logger) *CallHandler {
	return &CallHandler{CallUsecase: callUsecase, Logger: logger}
}

func (handler *CallHandler) StartCall(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	payload := new(req.StartCallRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	call, err := handler.CallUsecase.StartCall(c.UserContext(), user, c.Params("id"), payload)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to start call: %v", err)
		return err
	}
	return respond(c, fiber.StatusCreated, "Call started", call)
}

func (handler *CallHandler) JoinCall(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	call, err := handler.CallUsecase.JoinCall(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Joined call", call)
}

func (handler *CallHandler) DeclineCall(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	call, err := handler.CallUsecase.DeclineCall(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Call declined", call)
}

func (handler *CallHandler) EndCall(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	payload := new(req.EndCallRequest)
	if len(c.Body()) > 0 {
		if err := parseBody(c, payload); err != nil {
			return err
		}
	}
	call, err := handler.CallUsecase.EndCall(c.UserContext(), user, c.Params("id"), payload)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Call ended", call)
}
