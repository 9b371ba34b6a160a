package handler

import (
	"github.com/gofiber/fiber/v2"

	"bheem-chat/dto/res"
	"bheem-chat/middleware"
	"bheem-chat/security"
)

func currentUser(c *fiber.Ctx) (security.CurrentUser, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return security.CurrentUser{}, fiber.ErrUnauthorized
	}
	return user, nil
}

func parseBody(c *fiber.Ctx, payload interface{}) error {
	if err := c.BodyParser(payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return nil
}

func respond[T any](c *fiber.Ctx, status int, message string, data T) error {
	return c.Status(status).JSON(res.CommonResponse[T]{
		Message:    message,
		StatusCode: status,
		Data:       data,
	})
}
