package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hookcraft/hookcraft-backend/internal/config"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"github.com/hookcraft/hookcraft-backend/internal/models"
	"github.com/hookcraft/hookcraft-backend/internal/session"
	"github.com/hookcraft/hookcraft-backend/internal/store"
)

// AdminRequired admits a caller when any of these hold:
// 1. X-Admin-Token matches ADMIN_TOKEN
// 2. the session email or user id is listed in ADMIN_EMAILS / ADMIN_USER_IDS
// 3. the stored user has role admin
//
// Session-based checks expect SessionProtected to have run first.
func AdminRequired(users store.UserStore, cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(cfg.AdminEmails)
	adminUserIDs := parseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		if ValidAdminToken(c, cfg) {
			return c.Next()
		}

		userID, err := session.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		if contains(adminEmails, strings.ToLower(session.GetEmail(c))) || contains(adminUserIDs, userID.String()) {
			return c.Next()
		}

		if user, err := users.GetByID(c.UserContext(), userID); err == nil && user.Role == models.RoleAdmin {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

// ValidAdminToken reports whether the request carries the configured X-Admin-Token.
func ValidAdminToken(c *fiber.Ctx, cfg *config.Config) bool {
	return tokenMatches(c.Get("X-Admin-Token"), cfg.AdminToken)
}

// tokenMatches compares in constant time. An empty expected token never matches.
func tokenMatches(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(p))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
