package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/hookcraft/hookcraft-backend/internal/billing"
	"github.com/hookcraft/hookcraft-backend/internal/config"
	"github.com/hookcraft/hookcraft-backend/internal/database"
	"github.com/hookcraft/hookcraft-backend/internal/generator"
	"github.com/hookcraft/hookcraft-backend/internal/handlers"
	"github.com/hookcraft/hookcraft-backend/internal/logging"
	"github.com/hookcraft/hookcraft-backend/internal/metrics"
	"github.com/hookcraft/hookcraft-backend/internal/middleware"
	"github.com/hookcraft/hookcraft-backend/internal/ratelimit"
	"github.com/hookcraft/hookcraft-backend/internal/routes"
	"github.com/hookcraft/hookcraft-backend/internal/services"
	"github.com/hookcraft/hookcraft-backend/internal/session"
	"github.com/hookcraft/hookcraft-backend/internal/store"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdoutHandler := logging.Setup(cfg.AppEnv)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdoutHandler, pgLogHandler)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Metrics on a private registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// Redis backs token revocation and the generation throttle when configured
	var (
		redisClient *redis.Client
		revoker     session.TokenRevoker = session.NewMemoryTokenRevoker()
		genLimiter  middleware.Limiter
	)
	if cfg.RedisEnabled() {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			slog.Error("redis connection failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		revoker = session.NewRedisTokenRevoker(redisClient)

		if cfg.GenerateRateLimit > 0 {
			limiter, err := ratelimit.NewFixedWindowLimiter(redisClient, "", cfg.GenerateRateLimit, time.Minute)
			if err != nil {
				slog.Error("generation limiter setup failed", "error", err)
				os.Exit(1)
			}
			genLimiter = limiter
		}
		slog.Info("redis connected", "addr", cfg.RedisAddr)
	} else {
		slog.Warn("REDIS_ADDR not set, token revocation is process-local and generation throttle is off")
	}

	// Text generation providers, primary first
	var providers []generator.Provider
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, generator.NewClient(generator.ProviderConfig{
			Name: "openai", APIURL: cfg.OpenAIAPIURL, APIKey: cfg.OpenAIAPIKey,
			Model: cfg.OpenAIModel, Timeout: cfg.AITimeout,
		}))
	}
	if cfg.DeepSeekAPIKey != "" {
		providers = append(providers, generator.NewClient(generator.ProviderConfig{
			Name: "deepseek", APIURL: cfg.DeepSeekAPIURL, APIKey: cfg.DeepSeekAPIKey,
			Model: cfg.DeepSeekModel, Timeout: cfg.AITimeout,
		}))
	}
	if len(providers) == 0 {
		slog.Warn("no text generation provider configured, hook generation will fail")
	}
	chain := generator.NewChain(generator.DefaultBreakerConfig(), appMetrics, providers...)

	// Stripe billing (optional)
	var processor billing.Processor
	if cfg.StripeEnabled() {
		processor = billing.NewStripeProcessor(billing.StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
		})
	} else {
		slog.Warn("STRIPE_SECRET_KEY not set, subscription checkout disabled")
	}
	plans := billing.Plans{BasicPriceID: cfg.StripePriceBasic, ProPriceID: cfg.StripePricePro}

	// Services
	st := store.NewGormStore(database.DB)
	authService := services.NewAuthService(st, revoker, cfg)
	hookService := services.NewHookService(st, chain, appMetrics)
	billingService := services.NewBillingService(st, processor, plans)
	usageService := services.NewUsageService(st)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.Metrics(appMetrics))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	if cfg.MetricsToken == "" {
		slog.Warn("METRICS_TOKEN not set, /metrics is disabled")
	}

	routes.Setup(app, routes.Deps{
		Config:            cfg,
		Users:             st.Users(),
		Revoker:           revoker,
		GenerationLimiter: genLimiter,
		Gatherer:          registry,
		BillingEnabled:    billingService.Enabled(),
		Auth:              handlers.NewAuthHandler(authService, cfg),
		Hooks:             handlers.NewHookHandler(hookService),
		Billing:           handlers.NewBillingHandler(billingService),
		Admin:             handlers.NewAdminHandler(usageService),
		Health:            handlers.NewHealthHandler(database.DB, chain),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "providers", len(providers), "billing", billingService.Enabled())
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	if err := database.Close(database.DB); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
