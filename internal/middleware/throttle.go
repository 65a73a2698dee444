package middleware

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"github.com/hookcraft/hookcraft-backend/internal/session"
)

// Limiter is satisfied by ratelimit.FixedWindowLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Limit() int
}

// GenerationThrottle caps generation calls per authenticated user. A nil limiter
// disables it; limiter failures let the request through.
func GenerationThrottle(limiter Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}
		userID, err := session.GetUserID(c)
		if err != nil {
			return c.Next()
		}

		allowed, err := limiter.Allow(c.UserContext(), "generate:"+userID.String())
		if err != nil {
			slog.Warn("generation throttle unavailable", "user_id", userID.String(), "error", err.Error())
			return c.Next()
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		if !allowed {
			c.Set(fiber.HeaderRetryAfter, "60")
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: true, Message: "Too many generation requests, slow down",
			})
		}
		return c.Next()
	}
}
