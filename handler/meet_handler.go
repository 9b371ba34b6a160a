package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"bheem-chat/dto/req"
	"bheem-chat/middleware"
	"bheem-chat/security"
	"bheem-chat/usecase"
)

type MeetHandler struct {
	usecase.WaitingRoomUsecase
	*logrus.Logger
}

func NewMeetHandler(waitingRoomUsecase usecase.WaitingRoomUsecase, logger *logrus.Logger) *MeetHandler {
	return &MeetHandler{WaitingRoomUsecase: waitingRoomUsecase, Logger: logger}
}

func (handler *MeetHandler) CreateRoom(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	payload := new(req.CreateRoomRequest)
	if len(c.Body()) > 0 {
		if err := parseBody(c, payload); err != nil {
			return err
		}
	}
	room, err := handler.WaitingRoomUsecase.CreateRoom(c.UserContext(), user, payload)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Room created", room)
}

func (handler *MeetHandler) ToggleWaitingRoom(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	payload := new(req.ToggleWaitingRoomRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	room, err := handler.WaitingRoomUsecase.SetWaitingRoomEnabled(c.UserContext(), user, c.Params("code"), payload.Enabled)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Waiting room updated", room)
}

// JoinWaitingRoom works with or without a session; guests send displayName and email.
func (handler *MeetHandler) JoinWaitingRoom(c *fiber.Ctx) error {
	var user *security.CurrentUser
	if current, ok := middleware.CurrentUser(c); ok {
		user = &current
	}
	payload := new(req.JoinWaitingRoomRequest)
	if len(c.Body()) > 0 {
		if err := parseBody(c, payload); err != nil {
			return err
		}
	}
	joined, err := handler.WaitingRoomUsecase.RequestJoin(c.UserContext(), user, c.Params("code"), payload)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Join requested", joined)
}

func (handler *MeetHandler) GetWaitingParticipants(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	list, err := handler.WaitingRoomUsecase.ListParticipants(c.UserContext(), user, c.Params("code"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Successfully to Get Waiting Room", list)
}

func (handler *MeetHandler) Admit(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	entry, err := handler.WaitingRoomUsecase.Admit(c.UserContext(), user, c.Params("code"), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Participant admitted", entry)
}

func (handler *MeetHandler) Reject(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	payload := new(req.RejectRequest)
	if len(c.Body()) > 0 {
		if err := parseBody(c, payload); err != nil {
			return err
		}
	}
	entry, err := handler.WaitingRoomUsecase.Reject(c.UserContext(), user, c.Params("code"), c.Params("id"), payload.Reason)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Participant rejected", entry)
}

func (handler *MeetHandler) AdmitAll(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	admitted, err := handler.WaitingRoomUsecase.AdmitAll(c.UserContext(), user, c.Params("code"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Participants admitted", admitted)
}

func (handler *MeetHandler) PollStatus(c *fiber.Ctx) error {
	status, err := handler.WaitingRoomUsecase.PollStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Successfully to Get Status", status)
}

func (handler *MeetHandler) Leave(c *fiber.Ctx) error {
	if err := handler.WaitingRoomUsecase.Leave(c.UserContext(), c.Params("code"), c.Params("id")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Left waiting room", fiber.Map{"waitingId": c.Params("id")})
}
