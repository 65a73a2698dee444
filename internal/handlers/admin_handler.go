package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"github.com/hookcraft/hookcraft-backend/internal/services"
)

// AdminHandler is the external trigger for quota resets and manual tier changes.
type AdminHandler struct {
	usageService *services.UsageService
}

func NewAdminHandler(usageService *services.UsageService) *AdminHandler {
	return &AdminHandler{usageService: usageService}
}

func (h *AdminHandler) ResetUsage(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	resp, err := h.usageService.ResetUsage(c.UserContext(), userID)
	if err != nil {
		return respondError(c, "reset_usage", err)
	}
	return c.JSON(resp)
}

func (h *AdminHandler) SetTier(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	var req dto.SetTierRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.usageService.SetTier(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, "set_tier", err)
	}
	return c.JSON(resp)
}
