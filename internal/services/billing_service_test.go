package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hookcraft/hookcraft-backend/internal/billing"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"github.com/hookcraft/hookcraft-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	customers       int
	subscriptions   []string // price ids
	subscriptionErr error
	event           *billing.Event
	parseErr        error
}

func (p *fakeProcessor) CreateCustomer(ctx context.Context, email, name, userID string) (string, error) {
	p.customers++
	return "cus_new", nil
}

func (p *fakeProcessor) CreateSubscription(ctx context.Context, customerID, priceID string) (*billing.Subscription, error) {
	if p.subscriptionErr != nil {
		return nil, p.subscriptionErr
	}
	p.subscriptions = append(p.subscriptions, priceID)
	return &billing.Subscription{ID: "sub_new", Status: "incomplete", ClientSecret: "pi_secret"}, nil
}

func (p *fakeProcessor) ParseWebhook(payload []byte, signature string) (*billing.Event, error) {
	if p.parseErr != nil {
		return nil, p.parseErr
	}
	return p.event, nil
}

var testPlans = billing.Plans{BasicPriceID: "price_basic", ProPriceID: "price_pro"}

func newBillingFixture(t *testing.T) (*fixture, *fakeProcessor, *BillingService) {
	f := newFixture(t)
	p := &fakeProcessor{}
	return f, p, NewBillingService(f.store, p, testPlans)
}

func TestCreateSubscription(t *testing.T) {
	f, p, svc := newBillingFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, models.TierFree, 2)

	resp, err := svc.CreateSubscription(ctx, user.ID, &dto.CreateSubscriptionRequest{Tier: "basic"})
	require.NoError(t, err)
	assert.Equal(t, "sub_new", resp.SubscriptionID)
	assert.Equal(t, "pi_secret", resp.ClientSecret)
	assert.Equal(t, []string{"price_basic"}, p.subscriptions)

	updated := f.reload(t, user.ID)
	assert.Equal(t, models.TierBasic, updated.SubscriptionTier)
	assert.Equal(t, 10, updated.HooksLimit)
	assert.Equal(t, 2, updated.HooksUsed)
	require.NotNil(t, updated.StripeCustomerID)
	assert.Equal(t, "cus_new", *updated.StripeCustomerID)
	require.NotNil(t, updated.StripeSubscriptionID)
	assert.Equal(t, "sub_new", *updated.StripeSubscriptionID)

	// An existing customer is reused. A price id outside the configured plans
	// is passed through for the requested tier.
	_, err = svc.CreateSubscription(ctx, user.ID, &dto.CreateSubscriptionRequest{Tier: "pro", PriceID: "price_custom"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.customers)
	assert.Equal(t, "price_custom", p.subscriptions[1])
	assert.Equal(t, models.UnlimitedHooks, f.reload(t, user.ID).HooksLimit)
}

func TestCreateSubscriptionErrors(t *testing.T) {
	f, p, svc := newBillingFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, models.TierFree, 0)

	_, err := svc.CreateSubscription(ctx, user.ID, &dto.CreateSubscriptionRequest{Tier: "free"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = svc.CreateSubscription(ctx, user.ID, &dto.CreateSubscriptionRequest{Tier: "gold"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = svc.CreateSubscription(ctx, uuid.New(), &dto.CreateSubscriptionRequest{Tier: "basic"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.CreateSubscription(ctx, user.ID, &dto.CreateSubscriptionRequest{Tier: "pro", PriceID: "price_basic"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, p.subscriptions, "mismatched price must not reach the processor")
	assert.Equal(t, models.TierFree, f.reload(t, user.ID).SubscriptionTier)

	p.subscriptionErr = &billing.Error{Message: "Your card was declined.", Err: errors.New("card_declined")}
	_, err = svc.CreateSubscription(ctx, user.ID, &dto.CreateSubscriptionRequest{Tier: "basic"})
	assert.ErrorIs(t, err, ErrPayment)
	var payErr *PaymentError
	require.True(t, errors.As(err, &payErr))
	assert.Equal(t, "Your card was declined.", payErr.Message)
	assert.Equal(t, models.TierFree, f.reload(t, user.ID).SubscriptionTier)

	disabled := NewBillingService(f.store, nil, testPlans)
	assert.False(t, disabled.Enabled())
	_, err = disabled.CreateSubscription(ctx, user.ID, &dto.CreateSubscriptionRequest{Tier: "basic"})
	assert.ErrorIs(t, err, ErrBillingDisabled)
}

func customerUser(t *testing.T, f *fixture, tier models.Tier, used int) *models.User {
	t.Helper()
	user := f.seedUser(t, tier, used)
	_, err := f.store.Users().UpdateBillingIDs(context.Background(), user.ID, "cus_1", "sub_1")
	require.NoError(t, err)
	return user
}

func TestHandleEventSubscriptionLifecycle(t *testing.T) {
	f, _, svc := newBillingFixture(t)
	ctx := context.Background()
	user := customerUser(t, f, models.TierFree, 1)

	require.NoError(t, svc.HandleEvent(ctx, &billing.Event{
		Type: billing.EventSubscriptionUpdated, CustomerID: "cus_1", SubscriptionID: "sub_2",
		PriceID: "price_pro", Status: "active",
	}))
	updated := f.reload(t, user.ID)
	assert.Equal(t, models.TierPro, updated.SubscriptionTier)
	assert.Equal(t, models.UnlimitedHooks, updated.HooksLimit)
	assert.Equal(t, "sub_2", *updated.StripeSubscriptionID)

	// Ending a replaced subscription leaves the current one alone.
	for _, stale := range []*billing.Event{
		{Type: billing.EventSubscriptionDeleted, CustomerID: "cus_1", SubscriptionID: "sub_1", Status: "canceled"},
		{Type: billing.EventSubscriptionUpdated, CustomerID: "cus_1", SubscriptionID: "sub_1", PriceID: "price_basic", Status: "unpaid"},
	} {
		require.NoError(t, svc.HandleEvent(ctx, stale))
		current := f.reload(t, user.ID)
		assert.Equal(t, models.TierPro, current.SubscriptionTier, stale.Type)
		assert.Equal(t, models.UnlimitedHooks, current.HooksLimit, stale.Type)
		require.NotNil(t, current.StripeSubscriptionID)
		assert.Equal(t, "sub_2", *current.StripeSubscriptionID, stale.Type)
	}

	// past_due keeps the current tier.
	require.NoError(t, svc.HandleEvent(ctx, &billing.Event{
		Type: billing.EventSubscriptionUpdated, CustomerID: "cus_1", PriceID: "price_basic", Status: "past_due",
	}))
	assert.Equal(t, models.TierPro, f.reload(t, user.ID).SubscriptionTier)

	require.NoError(t, svc.HandleEvent(ctx, &billing.Event{
		Type: billing.EventSubscriptionUpdated, CustomerID: "cus_1", PriceID: "price_pro", Status: "unpaid",
	}))
	assert.Equal(t, models.TierFree, f.reload(t, user.ID).SubscriptionTier)

	require.NoError(t, svc.HandleEvent(ctx, &billing.Event{
		Type: billing.EventSubscriptionCreated, CustomerID: "cus_1", SubscriptionID: "sub_3",
		PriceID: "price_basic", Status: "trialing",
	}))
	assert.Equal(t, models.TierBasic, f.reload(t, user.ID).SubscriptionTier)

	require.NoError(t, svc.HandleEvent(ctx, &billing.Event{
		Type: billing.EventSubscriptionDeleted, CustomerID: "cus_1", SubscriptionID: "sub_3", Status: "canceled",
	}))
	downgraded := f.reload(t, user.ID)
	assert.Equal(t, models.TierFree, downgraded.SubscriptionTier)
	assert.Equal(t, 2, downgraded.HooksLimit)
	assert.Nil(t, downgraded.StripeSubscriptionID)
	require.NotNil(t, downgraded.StripeCustomerID)
	assert.Equal(t, "cus_1", *downgraded.StripeCustomerID)
}

func TestHandleEventInvoiceCycleResetsUsage(t *testing.T) {
	f, _, svc := newBillingFixture(t)
	ctx := context.Background()
	user := customerUser(t, f, models.TierBasic, 10)

	require.NoError(t, svc.HandleEvent(ctx, &billing.Event{
		Type: billing.EventInvoicePaid, CustomerID: "cus_1", BillingReason: "subscription_create",
	}))
	assert.Equal(t, 10, f.reload(t, user.ID).HooksUsed)

	require.NoError(t, svc.HandleEvent(ctx, &billing.Event{
		Type: billing.EventInvoicePaid, CustomerID: "cus_1", BillingReason: billing.BillingReasonCycle,
	}))
	assert.Equal(t, 0, f.reload(t, user.ID).HooksUsed)
}

func TestHandleEventIgnoresUnknowns(t *testing.T) {
	f, _, svc := newBillingFixture(t)
	ctx := context.Background()
	user := customerUser(t, f, models.TierBasic, 4)

	for _, event := range []*billing.Event{
		{Type: billing.EventSubscriptionDeleted, CustomerID: "cus_unknown"},
		{Type: billing.EventSubscriptionUpdated, CustomerID: "cus_1", PriceID: "price_other", Status: "active"},
		{Type: billing.EventSubscriptionDeleted},
		{Type: "charge.refunded", CustomerID: "cus_1"},
	} {
		assert.NoError(t, svc.HandleEvent(ctx, event), event.Type)
	}
	assert.Equal(t, models.TierBasic, f.reload(t, user.ID).SubscriptionTier)
}

func TestHandleWebhook(t *testing.T) {
	f, p, svc := newBillingFixture(t)
	ctx := context.Background()
	user := customerUser(t, f, models.TierBasic, 0)

	p.parseErr = billing.ErrInvalidSignature
	assert.ErrorIs(t, svc.HandleWebhook(ctx, []byte("{}"), "bad"), billing.ErrInvalidSignature)

	p.parseErr = nil
	p.event = &billing.Event{Type: billing.EventSubscriptionDeleted, CustomerID: "cus_1"}
	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "sig"))
	assert.Equal(t, models.TierFree, f.reload(t, user.ID).SubscriptionTier)

	disabled := NewBillingService(f.store, nil, testPlans)
	assert.ErrorIs(t, disabled.HandleWebhook(ctx, nil, ""), ErrBillingDisabled)
}

func TestUsageService(t *testing.T) {
	f := newFixture(t)
	svc := NewUsageService(f.store)
	ctx := context.Background()
	user := f.seedUser(t, models.TierFree, 2)

	quota, err := svc.SetTier(ctx, user.ID, &dto.SetTierRequest{Tier: "Basic"})
	require.NoError(t, err)
	assert.Equal(t, "basic", quota.SubscriptionTier)
	assert.Equal(t, 10, quota.HooksLimit)
	assert.Equal(t, 2, quota.HooksUsed)

	quota, err = svc.ResetUsage(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, quota.HooksUsed)

	_, err = svc.SetTier(ctx, user.ID, &dto.SetTierRequest{Tier: "platinum"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = svc.ResetUsage(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = svc.SetTier(ctx, uuid.New(), &dto.SetTierRequest{Tier: "pro"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
