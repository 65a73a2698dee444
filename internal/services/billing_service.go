package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hookcraft/hookcraft-backend/internal/billing"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"github.com/hookcraft/hookcraft-backend/internal/models"
	"github.com/hookcraft/hookcraft-backend/internal/store"
)

// BillingService keeps subscription state in step with the payment processor.
type BillingService struct {
	store     store.Store
	processor billing.Processor
	plans     billing.Plans
}

// NewBillingService accepts a nil processor; checkout and webhooks then report ErrBillingDisabled.
func NewBillingService(st store.Store, processor billing.Processor, plans billing.Plans) *BillingService {
	return &BillingService{store: st, processor: processor, plans: plans}
}

func (s *BillingService) Enabled() bool {
	return s.processor != nil
}

func (s *BillingService) CreateSubscription(ctx context.Context, userID uuid.UUID, req *dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error) {
	if s.processor == nil {
		return nil, ErrBillingDisabled
	}

	tier, ok := models.ParseTier(strings.ToLower(strings.TrimSpace(req.Tier)))
	if !ok || !tier.Paid() {
		return nil, invalidRequest("tier must be basic or pro")
	}
	priceID := strings.TrimSpace(req.PriceID)
	if priceID == "" {
		priceID = s.plans.PriceForTier(tier)
	}
	if priceID == "" {
		return nil, invalidRequest("priceId is required")
	}
	if priceTier, known := s.plans.TierForPrice(priceID); known && priceTier != tier {
		return nil, invalidRequest("priceId does not belong to the %s plan", tier)
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storageError("load user", err)
	}

	customerID := ""
	if user.StripeCustomerID != nil {
		customerID = *user.StripeCustomerID
	}
	if customerID == "" {
		customerID, err = s.processor.CreateCustomer(ctx, user.Email, user.DisplayName(), user.ID.String())
		if err != nil {
			return nil, paymentError(err)
		}
		if _, err := s.store.Users().UpdateBillingIDs(ctx, userID, customerID, ""); err != nil {
			return nil, storageError("save customer id", err)
		}
	}

	sub, err := s.processor.CreateSubscription(ctx, customerID, priceID)
	if err != nil {
		return nil, paymentError(err)
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.Users().UpdateBillingIDs(ctx, userID, customerID, sub.ID); err != nil {
			return err
		}
		_, err := tx.Users().SetTier(ctx, userID, tier, tier.HooksLimit())
		return err
	})
	if err != nil {
		slog.Error("save subscription failed",
			"user_id", userID.String(), "action", "create_subscription", "error", err.Error())
		return nil, storageError("save subscription", err)
	}

	slog.Info("subscription created", "user_id", userID.String(), "tier", string(tier), "subscription_id", sub.ID)
	return &dto.CreateSubscriptionResponse{
		SubscriptionID: sub.ID,
		ClientSecret:   sub.ClientSecret,
	}, nil
}

// HandleWebhook verifies a raw processor webhook and applies it.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.processor == nil {
		return ErrBillingDisabled
	}
	event, err := s.processor.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	return s.HandleEvent(ctx, event)
}

// HandleEvent applies one processor event. Events for unknown customers and
// event types the service does not act on are acknowledged and ignored.
func (s *BillingService) HandleEvent(ctx context.Context, event *billing.Event) error {
	switch event.Type {
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated:
		if billing.TerminalStatus(event.Status) {
			return s.downgrade(ctx, event)
		}
		if !billing.ActiveStatus(event.Status) {
			return nil
		}
		tier, ok := s.plans.TierForPrice(event.PriceID)
		if !ok {
			slog.Warn("subscription event for unknown price",
				"event_id", event.ID, "price_id", event.PriceID)
			return nil
		}
		return s.applyTier(ctx, event, tier, event.SubscriptionID)

	case billing.EventSubscriptionDeleted:
		return s.downgrade(ctx, event)

	case billing.EventInvoicePaid:
		if event.BillingReason != billing.BillingReasonCycle {
			return nil
		}
		user, err := s.userForEvent(ctx, event)
		if err != nil || user == nil {
			return err
		}
		if _, err := s.store.Users().ResetUsage(ctx, user.ID); err != nil {
			return storageError("reset usage", err)
		}
		slog.Info("usage reset for new billing period", "user_id", user.ID.String(), "event_id", event.ID)
	}
	return nil
}

func (s *BillingService) downgrade(ctx context.Context, event *billing.Event) error {
	return s.applyTier(ctx, event, models.TierFree, "")
}

func (s *BillingService) applyTier(ctx context.Context, event *billing.Event, tier models.Tier, subscriptionID string) error {
	user, err := s.userForEvent(ctx, event)
	if err != nil || user == nil {
		return err
	}

	// Ending a subscription the user has already replaced must not touch the current one.
	if tier == models.TierFree && supersededSubscription(user, event.SubscriptionID) {
		slog.Info("ignoring event for superseded subscription",
			"user_id", user.ID.String(), "event_id", event.ID, "subscription_id", event.SubscriptionID)
		return nil
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.Users().UpdateBillingIDs(ctx, user.ID, event.CustomerID, subscriptionID); err != nil {
			return err
		}
		_, err := tx.Users().SetTier(ctx, user.ID, tier, tier.HooksLimit())
		return err
	})
	if err != nil {
		return storageError("apply tier", err)
	}
	slog.Info("subscription tier changed",
		"user_id", user.ID.String(), "tier", string(tier), "event_id", event.ID, "event_type", event.Type)
	return nil
}

func supersededSubscription(user *models.User, subscriptionID string) bool {
	if subscriptionID == "" || user.StripeSubscriptionID == nil || *user.StripeSubscriptionID == "" {
		return false
	}
	return *user.StripeSubscriptionID != subscriptionID
}

func (s *BillingService) userForEvent(ctx context.Context, event *billing.Event) (*models.User, error) {
	if event.CustomerID == "" {
		slog.Warn("billing event without customer", "event_id", event.ID, "event_type", event.Type)
		return nil, nil
	}
	user, err := s.store.Users().GetByStripeCustomerID(ctx, event.CustomerID)
	if errors.Is(err, store.ErrNotFound) {
		slog.Warn("billing event for unknown customer", "event_id", event.ID, "customer_id", event.CustomerID)
		return nil, nil
	}
	if err != nil {
		return nil, storageError("lookup customer", err)
	}
	return user, nil
}

func paymentError(err error) error {
	var billingErr *billing.Error
	if errors.As(err, &billingErr) {
		slog.Warn("payment processor error", "error", billingErr.Err)
		return &PaymentError{Message: billingErr.Message, Err: err}
	}
	slog.Error("payment processor error", "error", err)
	return &PaymentError{Message: "payment processor request failed", Err: err}
}
