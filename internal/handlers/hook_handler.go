package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"github.com/hookcraft/hookcraft-backend/internal/services"
	"github.com/hookcraft/hookcraft-backend/internal/session"
)

type HookHandler struct {
	hookService *services.HookService
}

func NewHookHandler(hookService *services.HookService) *HookHandler {
	return &HookHandler{hookService: hookService}
}

// Generate runs one generation for the caller and returns the stored batch.
func (h *HookHandler) Generate(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.GenerateHooksRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.hookService.GenerateHooks(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, "generate_hooks", err)
	}
	return c.JSON(resp)
}

// List returns the caller's hooks, newest first. ?limit defaults to 50 and is capped at 100.
func (h *HookHandler) List(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	hooks, err := h.hookService.ListHooks(c.UserContext(), userID, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, "list_hooks", err)
	}
	return c.JSON(hooks)
}
