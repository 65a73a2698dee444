// Package session exposes the authenticated caller carried in Fiber locals
// and tracks revoked access tokens.
package session

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ContextKey is the Fiber locals key the JWT middleware stores the token under.
const ContextKey = "user"

var (
	ErrNoToken       = errors.New("invalid token in context")
	ErrInvalidClaims = errors.New("invalid claims")
)

func claims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals(ContextKey).(*jwt.Token)
	if !ok {
		return nil, ErrNoToken
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}
	return mc, nil
}

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	mc, err := claims(c)
	if err != nil {
		return uuid.Nil, err
	}
	sub, ok := mc["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}
	return uuid.Parse(sub)
}

func GetEmail(c *fiber.Ctx) string {
	mc, err := claims(c)
	if err != nil {
		return ""
	}
	email, _ := mc["email"].(string)
	return email
}

// TokenInfo identifies the access token of the current request.
type TokenInfo struct {
	ID        string
	ExpiresAt time.Time
}

// GetToken returns the jti and expiry of the access token in context.
func GetToken(c *fiber.Ctx) (TokenInfo, error) {
	mc, err := claims(c)
	if err != nil {
		return TokenInfo{}, err
	}
	jti, _ := mc["jti"].(string)
	if jti == "" {
		return TokenInfo{}, errors.New("missing jti claim")
	}
	info := TokenInfo{ID: jti}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
