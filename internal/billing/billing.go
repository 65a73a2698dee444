// Package billing talks to the payment processor: customers, subscriptions and
// signed webhook events.
package billing

import (
	"context"
	"errors"

	"github.com/hookcraft/hookcraft-backend/internal/models"
)

var (
	ErrInvalidSignature      = errors.New("webhook signature verification failed")
	ErrWebhookNotConfigured  = errors.New("webhook secret not configured")
	ErrMalformedEventPayload = errors.New("malformed event payload")
)

// Error is a processor failure whose Message may be shown to the caller as is.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Subscription struct {
	ID           string
	Status       string
	ClientSecret string
}

// Event is the subset of a processor webhook event the service acts on.
type Event struct {
	ID             string
	Type           string
	CustomerID     string
	SubscriptionID string
	PriceID        string
	Status         string
	BillingReason  string
}

// Event types handled by the service.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaid         = "invoice.paid"
)

// BillingReasonCycle marks the invoice that opens a new billing period.
const BillingReasonCycle = "subscription_cycle"

// Processor is the payment processor contract the services depend on.
type Processor interface {
	CreateCustomer(ctx context.Context, email, name, userID string) (string, error)
	CreateSubscription(ctx context.Context, customerID, priceID string) (*Subscription, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// Plans maps processor price ids to tiers.
type Plans struct {
	BasicPriceID string
	ProPriceID   string
}

// TierForPrice returns the paid tier sold under priceID.
func (p Plans) TierForPrice(priceID string) (models.Tier, bool) {
	switch {
	case priceID == "":
		return "", false
	case priceID == p.BasicPriceID:
		return models.TierBasic, true
	case priceID == p.ProPriceID:
		return models.TierPro, true
	}
	return "", false
}

// PriceForTier returns the configured price id for a paid tier.
func (p Plans) PriceForTier(tier models.Tier) string {
	switch tier {
	case models.TierBasic:
		return p.BasicPriceID
	case models.TierPro:
		return p.ProPriceID
	}
	return ""
}

// ActiveStatus reports whether a subscription in this status grants its tier.
func ActiveStatus(status string) bool {
	return status == "active" || status == "trialing"
}

// TerminalStatus reports whether a subscription in this status has lost its tier.
func TerminalStatus(status string) bool {
	switch status {
	case "canceled", "unpaid", "incomplete_expired":
		return true
	}
	return false
}
