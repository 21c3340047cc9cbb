package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/maheshrc27/postflow/internal/transfer"
)

type ConnectionHandler struct {
	s service.ConnectionService
}

func NewConnectionHandler(service service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{s: service}
}

func (h *ConnectionHandler) SaveFacebookConnection(c *fiber.Ctx) error {
	var req transfer.FacebookConnectionUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	conn, err := h.s.Save(c.UserContext(), GetUserID(c), c.Params("businessId"), &req)
	if err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(conn)
}

func (h *ConnectionHandler) RemoveFacebookConnection(c *fiber.Ctx) error {
	if err := h.s.Remove(c.UserContext(), GetUserID(c), c.Params("businessId")); err != nil {
		return sendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
