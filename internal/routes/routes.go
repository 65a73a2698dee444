package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/hookcraft/hookcraft-backend/internal/config"
	"github.com/hookcraft/hookcraft-backend/internal/handlers"
	"github.com/hookcraft/hookcraft-backend/internal/middleware"
	"github.com/hookcraft/hookcraft-backend/internal/session"
	"github.com/hookcraft/hookcraft-backend/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the route table wires together.
type Deps struct {
	Config  *config.Config
	Users   store.UserStore
	Revoker session.TokenRevoker

	// GenerationLimiter is optional; nil disables the per-user throttle.
	GenerationLimiter middleware.Limiter

	// Gatherer backs /metrics; nil leaves the endpoint unregistered.
	Gatherer prometheus.Gatherer

	// BillingEnabled registers checkout. The Stripe webhook is always routed
	// and answers 503 while billing is off.
	BillingEnabled bool

	Auth    *handlers.AuthHandler
	Hooks   *handlers.HookHandler
	Billing *handlers.BillingHandler
	Admin   *handlers.AdminHandler
	Health  *handlers.HealthHandler
}

func perIP(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   true,
				"message": "Too many requests, try again later",
			})
		},
	})
}

func Setup(app *fiber.App, d Deps) {
	if d.Gatherer != nil && d.Config.MetricsToken != "" {
		app.Get("/metrics", middleware.MetricsAuth(d.Config.MetricsToken), adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(perIP(60))

	api.Get("/health", d.Health.Check)

	// Webhooks authenticate by signature, not session
	api.Post("/webhooks/stripe", d.Billing.StripeWebhook)

	// Auth-specific rate limit: 10 req/min per IP
	authLimit := perIP(10)
	api.Post("/register", authLimit, d.Auth.Register)
	api.Post("/login", authLimit, d.Auth.Login)
	api.Post("/refresh", authLimit, d.Auth.Refresh)

	// Protected routes carry the session middleware per route so public
	// routes above never see it.
	protected := middleware.SessionProtected(d.Config, d.Revoker)

	api.Post("/logout", protected, d.Auth.Logout)
	api.Get("/user", protected, d.Auth.Me)
	api.Post("/update-password", protected, d.Auth.UpdatePassword)

	api.Post("/generate-hooks", protected, middleware.GenerationThrottle(d.GenerationLimiter), d.Hooks.Generate)
	api.Get("/hooks", protected, d.Hooks.List)

	if d.BillingEnabled {
		api.Post("/create-subscription", protected, d.Billing.CreateSubscription)
	}

	admin := api.Group("/admin", adminAuth(d.Config, d.Revoker), middleware.AdminRequired(d.Users, d.Config))
	admin.Post("/users/:id/reset-usage", d.Admin.ResetUsage)
	admin.Put("/users/:id/tier", d.Admin.SetTier)
}

// adminAuth lets X-Admin-Token callers through without a session; everyone
// else must present one.
func adminAuth(cfg *config.Config, revoker session.TokenRevoker) fiber.Handler {
	protected := middleware.SessionProtected(cfg, revoker)
	return func(c *fiber.Ctx) error {
		if middleware.ValidAdminToken(c, cfg) {
			return c.Next()
		}
		return protected(c)
	}
}
