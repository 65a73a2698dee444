package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"github.com/hookcraft/hookcraft-backend/internal/services"
	"github.com/hookcraft/hookcraft-backend/internal/session"
)

type BillingHandler struct {
	billingService *services.BillingService
}

func NewBillingHandler(billingService *services.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

func (h *BillingHandler) CreateSubscription(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.CreateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.billingService.CreateSubscription(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, "create_subscription", err)
	}
	return c.JSON(resp)
}

// StripeWebhook verifies the Stripe-Signature header against the raw body.
func (h *BillingHandler) StripeWebhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Missing Stripe-Signature header")
	}

	if err := h.billingService.HandleWebhook(c.UserContext(), payload, signature); err != nil {
		slog.Warn("stripe webhook rejected", "action", "stripe_webhook", "error", err.Error())
		return respondError(c, "stripe_webhook", err)
	}
	return c.JSON(dto.WebhookResponse{Received: true})
}
