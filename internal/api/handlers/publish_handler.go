package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/maheshrc27/postflow/internal/transfer"
)

type PublishHandler struct {
	s            service.PublishService
	sweepTimeout time.Duration
}

func NewPublishHandler(service service.PublishService, sweepTimeout time.Duration) *PublishHandler {
	return &PublishHandler{s: service, sweepTimeout: sweepTimeout}
}

// PublishScheduled runs one sweep, bounded by the sweep timeout, and returns its summary.
func (h *PublishHandler) PublishScheduled(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if h.sweepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.sweepTimeout)
		defer cancel()
	}

	summary, err := h.s.Sweep(ctx)
	if err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}

// Publish publishes a stored post by post_id, or an inline post.
func (h *PublishHandler) Publish(c *fiber.Ctx) error {
	var req transfer.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	userID := GetUserID(c)

	var (
		result *transfer.PostResult
		err    error
	)
	if req.PostID != "" {
		result, err = h.s.PublishNow(c.UserContext(), userID, req.PostID)
	} else {
		result, err = h.s.PublishInline(c.UserContext(), userID, &req)
	}
	if err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post published successfully",
		"result":  result,
	})
}
