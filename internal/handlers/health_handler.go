package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hookcraft/hookcraft-backend/internal/database"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"gorm.io/gorm"
)

// ProviderStates reports provider circuit breaker states by name.
type ProviderStates interface {
	States() map[string]string
}

type HealthHandler struct {
	db        *gorm.DB
	providers ProviderStates
}

func NewHealthHandler(db *gorm.DB, providers ProviderStates) *HealthHandler {
	return &HealthHandler{db: db, providers: providers}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "ok"
	dbStatus := "ok"
	if err := database.Ping(h.db); err != nil {
		status = "degraded"
		dbStatus = "unhealthy: " + err.Error()
	}

	resp := dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
	}
	if h.providers != nil {
		resp.Providers = h.providers.States()
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(resp)
}
