package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/hookcraft/hookcraft-backend/internal/billing"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"github.com/hookcraft/hookcraft-backend/internal/services"
	"github.com/hookcraft/hookcraft-backend/internal/session"
)

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func badBody(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
}

// respondError maps the service error taxonomy to a status and body.
// Generation and storage failures are logged in full and answered generically.
func respondError(c *fiber.Ctx, action string, err error) error {
	var (
		reqErr   *services.RequestError
		quotaErr *services.QuotaExceededError
		payErr   *services.PaymentError
	)

	switch {
	case errors.As(err, &reqErr):
		return errorJSON(c, fiber.StatusBadRequest, reqErr.Message)
	case errors.Is(err, services.ErrInvalidRequest):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())

	case errors.As(err, &quotaErr):
		slog.Info("quota exceeded", "user_id", userIDString(c), "action", action,
			"hooks_used", quotaErr.HooksUsed, "hooks_limit", quotaErr.HooksLimit)
		return c.Status(fiber.StatusForbidden).JSON(dto.QuotaExceededResponse{
			Error:      true,
			Message:    services.ErrQuotaExceeded.Error(),
			HooksUsed:  quotaErr.HooksUsed,
			HooksLimit: quotaErr.HooksLimit,
		})

	case errors.As(err, &payErr):
		return errorJSON(c, fiber.StatusBadRequest, payErr.Message)

	case errors.Is(err, services.ErrUserNotFound):
		return errorJSON(c, fiber.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrEmailTaken):
		return errorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrIncorrectPassword),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrUnauthorized):
		return errorJSON(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, billing.ErrInvalidSignature), errors.Is(err, billing.ErrMalformedEventPayload):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrBillingDisabled), errors.Is(err, billing.ErrWebhookNotConfigured):
		return errorJSON(c, fiber.StatusServiceUnavailable, "Billing is not available")

	case errors.Is(err, services.ErrGenerationFailed):
		slog.Error("hook generation failed", "user_id", userIDString(c), "action", action, "error", err.Error())
		return errorJSON(c, fiber.StatusInternalServerError, services.ErrGenerationFailed.Error())
	}

	slog.Error("request failed", "user_id", userIDString(c), "action", action, "error", err.Error())
	return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
}

func userIDString(c *fiber.Ctx) string {
	id, err := session.GetUserID(c)
	if err != nil {
		return ""
	}
	return id.String()
}

// ErrorHandler is the app-wide fallback for errors no handler answered.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		slog.Error("unhandled error", "path", c.Path(), "error", err.Error())
		return errorJSON(c, code, "Internal server error")
	}
	return errorJSON(c, code, err.Error())
}
