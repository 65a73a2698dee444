package middleware

import (
	"log/slog"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/hookcraft/hookcraft-backend/internal/config"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"github.com/hookcraft/hookcraft-backend/internal/session"
)

// SessionProtected accepts the access token from the Authorization header or the
// session cookie and rejects tokens revoked by logout.
func SessionProtected(cfg *config.Config, revoker session.TokenRevoker) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ContextKey:  session.ContextKey,
		TokenLookup: "header:Authorization,cookie:" + cfg.SessionCookieName,
		SuccessHandler: func(c *fiber.Ctx) error {
			if revoker == nil {
				return c.Next()
			}
			info, err := session.GetToken(c)
			if err != nil {
				return unauthorized(c)
			}
			revoked, err := revoker.IsRevoked(c.UserContext(), info.ID)
			if err != nil {
				slog.Error("token revocation lookup failed", "action", "session_check", "error", err.Error())
				return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
					Error: true, Message: "Session check unavailable",
				})
			}
			if revoked {
				return unauthorized(c)
			}
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "Unauthorized: invalid or expired token",
	})
}
