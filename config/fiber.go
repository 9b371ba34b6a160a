package config

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"

	"bheem-chat/config/common"
	"bheem-chat/dto/res"
	"bheem-chat/usecase"
)

func NewFiber(cfg *common.Config, log *logrus.Logger) *fiber.App {
	appName, _ := cfg.GetAppConfig()
	_, _, maxBytes := cfg.GetAttachmentConfig()
	bodyLimit := 4 * 1024 * 1024
	if int(maxBytes)+1<<20 > bodyLimit {
		bodyLimit = int(maxBytes) + 1<<20
	}
	return fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		AppName:       appName,
		BodyLimit:     bodyLimit,
		ErrorHandler:  NewErrorHandler(log),
	})
}

// statusFor maps usecase errors onto HTTP status codes.
func statusFor(err error) int {
	var fiberErr *fiber.Error
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &validationErrs),
		errors.Is(err, usecase.ErrValidation),
		errors.Is(err, usecase.ErrScopeMismatch),
		errors.Is(err, usecase.ErrInvalidReply):
		return fiber.StatusBadRequest
	case errors.Is(err, usecase.ErrNotAMember), errors.Is(err, usecase.ErrPermission):
		return fiber.StatusForbidden
	case errors.Is(err, usecase.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, usecase.ErrDuplicateParticipant),
		errors.Is(err, usecase.ErrCapacity),
		errors.Is(err, usecase.ErrConflict):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func NewErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)
		message := err.Error()
		if code == fiber.StatusInternalServerError {
			log.WithError(err).Errorf("%s %s failed", c.Method(), c.Path())
			message = "internal server error"
		}

		var validationErrs validator.ValidationErrors
		var detail interface{} = message
		if errors.As(err, &validationErrs) {
			fields := make(map[string]string, len(validationErrs))
			for _, fieldErr := range validationErrs {
				fields[fieldErr.Field()] = fieldErr.Tag()
			}
			detail = fields
		}

		return c.Status(code).JSON(res.ErrorResponse{
			Status:     utils.StatusMessage(code),
			StatusCode: code,
			Error:      detail,
			RequestID:  c.GetRespHeader(fiber.HeaderXRequestID),
		})
	}
}
