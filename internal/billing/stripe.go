package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string

	// BackendURL overrides the Stripe API base URL. Empty means api.stripe.com.
	BackendURL string
}

// StripeProcessor implements Processor with a dedicated stripe client, leaving
// the package level stripe.Key untouched.
type StripeProcessor struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProcessor(cfg StripeConfig) *StripeProcessor {
	var backends *stripe.Backends
	if cfg.BackendURL != "" {
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(cfg.BackendURL),
			MaxNetworkRetries: stripe.Int64(0),
		})
		backends = &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	}
	return &StripeProcessor{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
	}
}

func (p *StripeProcessor) CreateCustomer(ctx context.Context, email, name, userID string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.AddMetadata("user_id", userID)
	params.Context = ctx

	c, err := p.api.Customers.New(params)
	if err != nil {
		return "", wrapStripeError("create customer", err)
	}
	return c.ID, nil
}

// CreateSubscription starts an incomplete subscription and returns the client
// secret of its first payment intent for client-side confirmation.
func (p *StripeProcessor) CreateSubscription(ctx context.Context, customerID, priceID string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.AddExpand("latest_invoice.payment_intent")
	params.Context = ctx

	sub, err := p.api.Subscriptions.New(params)
	if err != nil {
		return nil, wrapStripeError("create subscription", err)
	}

	out := &Subscription{ID: sub.ID, Status: string(sub.Status)}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		out.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	return out, nil
}

// ParseWebhook verifies the Stripe-Signature header and flattens the event.
func (p *StripeProcessor) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if p.webhookSecret == "" {
		return nil, ErrWebhookNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch {
	case strings.HasPrefix(out.Type, "customer.subscription."):
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEventPayload, err)
		}
		out.SubscriptionID = sub.ID
		out.Status = string(sub.Status)
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			out.PriceID = sub.Items.Data[0].Price.ID
		}

	case strings.HasPrefix(out.Type, "invoice."):
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEventPayload, err)
		}
		out.BillingReason = string(inv.BillingReason)
		out.Status = string(inv.Status)
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
	}
	return out, nil
}

func wrapStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return &Error{Message: stripeErr.Msg, Err: fmt.Errorf("%s: %w", op, err)}
	}
	return &Error{Message: "payment processor request failed", Err: fmt.Errorf("%s: %w", op, err)}
}
