package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hookcraft/hookcraft-backend/internal/config"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"github.com/hookcraft/hookcraft-backend/internal/services"
	"github.com/hookcraft/hookcraft-backend/internal/session"
)

type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return respondError(c, "register", err)
	}

	h.setSessionCookie(c, resp)
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return respondError(c, "login", err)
	}

	h.setSessionCookie(c, resp)
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.authService.Refresh(c.UserContext(), &req)
	if err != nil {
		return respondError(c, "refresh", err)
	}

	h.setSessionCookie(c, resp)
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	token, err := session.GetToken(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	// The body is optional; a cookie-only client may send none.
	var req dto.LogoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
	}

	if err := h.authService.Logout(c.UserContext(), userID, token, req.RefreshToken); err != nil {
		return respondError(c, "logout", err)
	}

	h.clearSessionCookie(c)
	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	user, err := h.authService.Me(c.UserContext(), userID)
	if err != nil {
		return respondError(c, "get_user", err)
	}
	return c.JSON(user)
}

func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.authService.UpdatePassword(c.UserContext(), userID, &req); err != nil {
		return respondError(c, "update_password", err)
	}
	return c.JSON(dto.MessageResponse{Message: "Password updated successfully"})
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, resp *dto.AuthResponse) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    resp.AccessToken,
		Path:     "/",
		Expires:  time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
