package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hookcraft/hookcraft-backend/internal/config"
	"github.com/hookcraft/hookcraft-backend/internal/generator"
	"github.com/hookcraft/hookcraft-backend/internal/models"
	"github.com/hookcraft/hookcraft-backend/internal/session"
	"github.com/hookcraft/hookcraft-backend/internal/store"
	"github.com/hookcraft/hookcraft-backend/internal/store/storetest"
	"github.com/stretchr/testify/require"
)

// fakeGenerator returns count hooks "<topic> #n", or err when set.
type fakeGenerator struct {
	mu       sync.Mutex
	err      error
	short    int
	requests []generator.Request
}

func (g *fakeGenerator) Generate(ctx context.Context, req generator.Request) ([]generator.Hook, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	n := req.Count
	if g.short > 0 && g.short < n {
		n = g.short
	}
	hooks := make([]generator.Hook, 0, n)
	for i := 0; i < n; i++ {
		hooks = append(hooks, generator.Hook{Style: req.Style, Content: req.Topic + " #" + string(rune('a'+i))})
	}
	return hooks, nil
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
	}
}

type fixture struct {
	store   *store.GormStore
	gen     *fakeGenerator
	hooks   *HookService
	auth    *AuthService
	revoker *session.MemoryTokenRevoker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewGormStore(storetest.Open(t))
	gen := &fakeGenerator{}
	revoker := session.NewMemoryTokenRevoker()
	return &fixture{
		store:   st,
		gen:     gen,
		hooks:   NewHookService(st, gen, nil),
		auth:    NewAuthService(st, revoker, testConfig()),
		revoker: revoker,
	}
}

func (f *fixture) seedUser(t *testing.T, tier models.Tier, used int) *models.User {
	t.Helper()
	user := &models.User{
		Email:            uuid.NewString() + "@example.com",
		Password:         "x",
		SubscriptionTier: tier,
		HooksUsed:        used,
		HooksLimit:       tier.HooksLimit(),
		ResetDate:        time.Now().UTC(),
	}
	require.NoError(t, f.store.Users().Create(context.Background(), user))
	return user
}

func (f *fixture) hookCount(t *testing.T, userID uuid.UUID) int {
	t.Helper()
	hooks, err := f.store.Hooks().ListByUser(context.Background(), userID, store.MaxHookListLimit)
	require.NoError(t, err)
	return len(hooks)
}

func (f *fixture) reload(t *testing.T, userID uuid.UUID) *models.User {
	t.Helper()
	u, err := f.store.Users().GetByID(context.Background(), userID)
	require.NoError(t, err)
	return u
}

var errProviderDown = errors.New("provider down")
