package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/service"
)

func GetUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

func publishErrorStatus(kind service.PublishErrorKind) int {
	switch kind {
	case service.KindNotFound:
		return fiber.StatusNotFound
	case service.KindAlreadyPublished, service.KindInProgress:
		return fiber.StatusConflict
	case service.KindPlatformRejected, service.KindTransport:
		return fiber.StatusBadGateway
	case service.KindInternal:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}

// errorStatus maps service errors to a status and the message safe to return.
func errorStatus(err error) (int, string) {
	if kind, ok := service.ErrorKind(err); ok {
		return publishErrorStatus(kind), err.Error()
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound, "Not found"
	case errors.Is(err, service.ErrInvalidInput):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrStorageNotConfigured):
		return fiber.StatusServiceUnavailable, "Media storage is not configured"
	}

	slog.Error(err.Error())
	return fiber.StatusInternalServerError, "Internal server error"
}

func sendError(c *fiber.Ctx, err error) error {
	status, msg := errorStatus(err)
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}
