package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"github.com/hookcraft/hookcraft-backend/internal/generator"
	"github.com/hookcraft/hookcraft-backend/internal/metrics"
	"github.com/hookcraft/hookcraft-backend/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateHooksFreeUserLastUnit(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, models.TierFree, 1)

	resp, err := f.hooks.GenerateHooks(context.Background(), user.ID, &dto.GenerateHooksRequest{
		Topic: "cooking tips", Style: "bold-statement",
	})
	require.NoError(t, err)
	assert.Len(t, resp.Hooks, 2)
	assert.Equal(t, 2, resp.HooksUsed)
	assert.Equal(t, 2, resp.HooksLimit)
	for _, h := range resp.Hooks {
		assert.NotEqual(t, uuid.Nil, h.ID)
		assert.Equal(t, user.ID, h.UserID)
		assert.Equal(t, "cooking tips", h.Topic)
		assert.Equal(t, "bold-statement", h.Style)
		assert.False(t, h.CreatedAt.IsZero())
	}
	assert.Equal(t, 2, f.hookCount(t, user.ID))
	assert.Equal(t, 2, f.reload(t, user.ID).HooksUsed)
}

func TestGenerateHooksBasicUserAtLimit(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, models.TierBasic, 10)

	_, err := f.hooks.GenerateHooks(context.Background(), user.ID, &dto.GenerateHooksRequest{Topic: "fitness", Style: "curiosity"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	var quotaErr *QuotaExceededError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, 10, quotaErr.HooksUsed)
	assert.Equal(t, 10, quotaErr.HooksLimit)

	assert.Equal(t, 0, f.gen.calls(), "provider must not be called over quota")
	assert.Equal(t, 0, f.hookCount(t, user.ID))
	assert.Equal(t, 10, f.reload(t, user.ID).HooksUsed)
}

func TestGenerateHooksFreeUserExhausted(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, models.TierFree, 0)
	req := &dto.GenerateHooksRequest{Topic: "fitness", Style: "curiosity"}

	for i := 0; i < 2; i++ {
		_, err := f.hooks.GenerateHooks(context.Background(), user.ID, req)
		require.NoError(t, err)
	}
	before := f.hookCount(t, user.ID)

	_, err := f.hooks.GenerateHooks(context.Background(), user.ID, req)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, before, f.hookCount(t, user.ID))
}

func TestGenerateHooksBatchSizePerTier(t *testing.T) {
	tests := []struct {
		tier      models.Tier
		used      int
		wantHooks int
		wantLimit int
	}{
		{models.TierFree, 0, 2, 2},
		{models.TierBasic, 3, 10, 10},
		{models.TierPro, 9999, 20, models.UnlimitedHooks},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			f := newFixture(t)
			user := f.seedUser(t, tt.tier, tt.used)

			resp, err := f.hooks.GenerateHooks(context.Background(), user.ID, &dto.GenerateHooksRequest{
				Topic: "fitness", Style: "transformation", Platform: "tiktok",
			})
			require.NoError(t, err)
			assert.Len(t, resp.Hooks, tt.wantHooks)
			assert.Equal(t, tt.used+1, resp.HooksUsed, "usage grows by one per generation")
			assert.Equal(t, tt.wantLimit, resp.HooksLimit)
			assert.Equal(t, tt.wantHooks, f.hookCount(t, user.ID))
			assert.Equal(t, tt.wantHooks, f.gen.requests[0].Count)
			assert.Equal(t, "tiktok", f.gen.requests[0].Platform)
		})
	}
}

func TestGenerateHooksProviderFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.gen.err = errProviderDown
	user := f.seedUser(t, models.TierBasic, 4)

	_, err := f.hooks.GenerateHooks(context.Background(), user.ID, &dto.GenerateHooksRequest{Topic: "fitness", Style: "storytelling"})
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, 0, f.hookCount(t, user.ID))
	assert.Equal(t, 4, f.reload(t, user.ID).HooksUsed)
}

func TestGenerateHooksShortBatch(t *testing.T) {
	f := newFixture(t)
	f.gen.short = 3
	user := f.seedUser(t, models.TierBasic, 0)

	resp, err := f.hooks.GenerateHooks(context.Background(), user.ID, &dto.GenerateHooksRequest{Topic: "fitness", Style: "curiosity"})
	require.NoError(t, err)
	assert.Len(t, resp.Hooks, 3)
	assert.Equal(t, 1, resp.HooksUsed)
}

func TestGenerateHooksValidation(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, models.TierBasic, 0)

	tests := []struct {
		name string
		req  dto.GenerateHooksRequest
	}{
		{"missing topic", dto.GenerateHooksRequest{Style: "curiosity"}},
		{"blank topic", dto.GenerateHooksRequest{Topic: "   ", Style: "curiosity"}},
		{"missing style", dto.GenerateHooksRequest{Topic: "fitness"}},
		{"unknown style", dto.GenerateHooksRequest{Topic: "fitness", Style: "shock"}},
		{"unknown platform", dto.GenerateHooksRequest{Topic: "fitness", Style: "curiosity", Platform: "myspace"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.hooks.GenerateHooks(context.Background(), user.ID, &tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			var reqErr *RequestError
			assert.True(t, errors.As(err, &reqErr))
		})
	}
	assert.Equal(t, 0, f.gen.calls())

	_, err := f.hooks.GenerateHooks(context.Background(), user.ID, &dto.GenerateHooksRequest{Topic: "fitness", Style: "curiosity", Platform: "all"})
	assert.NoError(t, err)
}

func TestGenerateHooksUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.hooks.GenerateHooks(context.Background(), uuid.New(), &dto.GenerateHooksRequest{Topic: "fitness", Style: "curiosity"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGenerateHooksConcurrentRequestsRespectQuota(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, models.TierFree, 0)

	const workers = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := f.hooks.GenerateHooks(context.Background(), user.ID, &dto.GenerateHooksRequest{Topic: "fitness", Style: "curiosity"})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrQuotaExceeded)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 2, f.reload(t, user.ID).HooksUsed)
	assert.Equal(t, 4, f.hookCount(t, user.ID), "only charged generations keep their hooks")
}

func TestGenerateHooksRecordsMetrics(t *testing.T) {
	f := newFixture(t)
	m := metrics.New(prometheus.NewRegistry())
	svc := NewHookService(f.store, f.gen, m)

	free := f.seedUser(t, models.TierFree, 1)
	_, err := svc.GenerateHooks(context.Background(), free.ID, &dto.GenerateHooksRequest{Topic: "t", Style: "curiosity"})
	require.NoError(t, err)
	_, err = svc.GenerateHooks(context.Background(), free.ID, &dto.GenerateHooksRequest{Topic: "t", Style: "curiosity"})
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.GenerationsTotal.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.GenerationsTotal.WithLabelValues(metrics.OutcomeQuotaExceeded)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.HooksGeneratedTotal))
}

func TestListHooks(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, models.TierPro, 0)
	ctx := context.Background()

	for _, topic := range []string{"first", "second"} {
		_, err := f.hooks.GenerateHooks(ctx, user.ID, &dto.GenerateHooksRequest{Topic: topic, Style: "curiosity"})
		require.NoError(t, err)
	}

	hooks, err := f.hooks.ListHooks(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, hooks, 40)
	assert.Equal(t, "second", hooks[0].Topic)
	assert.Equal(t, "first", hooks[len(hooks)-1].Topic)

	again, err := f.hooks.ListHooks(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, hooks, again)

	limited, err := f.hooks.ListHooks(ctx, user.ID, 5)
	require.NoError(t, err)
	assert.Len(t, limited, 5)

	empty, err := f.hooks.ListHooks(ctx, uuid.New(), 0)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

var _ generator.Generator = (*fakeGenerator)(nil)
