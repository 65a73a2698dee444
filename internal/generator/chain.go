package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hookcraft/hookcraft-backend/internal/metrics"
	"github.com/sony/gobreaker/v2"
)

// Provider is a named Generator that can take part in a Chain.
type Provider interface {
	Generator
	Name() string
}

// BreakerConfig tunes the per-provider circuit breakers.
type BreakerConfig struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Interval         time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      60 * time.Second,
		Interval:         60 * time.Second,
	}
}

type chainLink struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker[[]Hook]
}

// Chain tries providers in order and returns the first successful batch.
// Each provider sits behind its own circuit breaker so a failing primary is
// skipped until it recovers.
type Chain struct {
	links   []chainLink
	metrics *metrics.Metrics
}

func NewChain(cfg BreakerConfig, m *metrics.Metrics, providers ...Provider) *Chain {
	links := make([]chainLink, 0, len(providers))
	for _, p := range providers {
		name := p.Name()
		links = append(links, chainLink{
			provider: p,
			breaker: gobreaker.NewCircuitBreaker[[]Hook](gobreaker.Settings{
				Name:        name,
				MaxRequests: 1,
				Interval:    cfg.Interval,
				Timeout:     cfg.OpenTimeout,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= cfg.FailureThreshold
				},
				IsSuccessful: func(err error) bool {
					// Callers hanging up say nothing about provider health.
					return err == nil || errors.Is(err, context.Canceled)
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					slog.Warn("provider circuit breaker state changed",
						"provider", name, "from", from.String(), "to", to.String())
				},
			}),
		})
	}
	return &Chain{links: links, metrics: m}
}

func (c *Chain) Generate(ctx context.Context, req Request) ([]Hook, error) {
	if len(c.links) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", ErrGenerationFailed)
	}

	var lastErr error
	for _, link := range c.links {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}

		name := link.provider.Name()
		start := time.Now()
		hooks, err := link.breaker.Execute(func() ([]Hook, error) {
			return link.provider.Generate(ctx, req)
		})
		if err == nil {
			c.metrics.RecordProviderCall(name, "success", time.Since(start))
			return hooks, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.RecordProviderCall(name, "open", 0)
		} else {
			c.metrics.RecordProviderCall(name, "error", time.Since(start))
		}
		slog.Warn("hook provider failed", "provider", name, "error", err)
		lastErr = err
	}

	if errors.Is(lastErr, ErrGenerationFailed) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
}

// State reports the breaker state of the named provider, for health output.
func (c *Chain) State(name string) (gobreaker.State, bool) {
	for _, link := range c.links {
		if link.provider.Name() == name {
			return link.breaker.State(), true
		}
	}
	return gobreaker.StateClosed, false
}

// States returns every provider's breaker state keyed by provider name.
func (c *Chain) States() map[string]string {
	states := make(map[string]string, len(c.links))
	for _, link := range c.links {
		states[link.provider.Name()] = link.breaker.State().String()
	}
	return states
}
