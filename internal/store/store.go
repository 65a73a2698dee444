package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hookcraft/hookcraft-backend/internal/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrQuotaExhausted = errors.New("hook quota exhausted")
)

const (
	DefaultHookListLimit = 50
	MaxHookListLimit     = 100
)

// Store groups the user ledger and hook repository behind one transactional boundary.
type Store interface {
	Users() UserStore
	Hooks() HookStore
	RefreshTokens() RefreshTokenStore

	// Transaction runs fn against a Store bound to a single database transaction.
	// Calls made while already inside a transaction reuse it.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// UserStore owns user records, billing identifiers and the quota ledger.
// Every mutating method is a single conditional update and returns the row as committed.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error)

	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateBillingIDs(ctx context.Context, id uuid.UUID, customerID, subscriptionID string) (*models.User, error)

	// SetTier writes tier and limit together.
	SetTier(ctx context.Context, id uuid.UUID, tier models.Tier, limit int) (*models.User, error)

	// IncrementUsage adds exactly one to hooks_used.
	IncrementUsage(ctx context.Context, id uuid.UUID) (*models.User, error)

	// ConsumeQuota adds one to hooks_used only while the user still has quota.
	// On ErrQuotaExhausted the returned user carries the current counts.
	ConsumeQuota(ctx context.Context, id uuid.UUID) (*models.User, error)

	// ResetUsage zeroes hooks_used and moves reset_date to now.
	ResetUsage(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// HookStore is an append-only log of generated hooks.
type HookStore interface {
	Create(ctx context.Context, hook *models.Hook) error
	CreateBatch(ctx context.Context, hooks []*models.Hook) error

	// ListByUser returns the newest hooks first. A limit <= 0 means DefaultHookListLimit.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Hook, error)
}

// RefreshTokenStore keeps hashed, single-use refresh tokens.
type RefreshTokenStore interface {
	Create(ctx context.Context, token *models.RefreshToken) error

	// Consume revokes a live token and returns its owner. Unknown, revoked and
	// expired tokens yield ErrNotFound.
	Consume(ctx context.Context, tokenHash string, now time.Time) (uuid.UUID, error)

	Revoke(ctx context.Context, userID uuid.UUID, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

// ClampListLimit applies the default and the upper bound to a caller supplied limit.
func ClampListLimit(limit int) int {
	if limit <= 0 {
		return DefaultHookListLimit
	}
	if limit > MaxHookListLimit {
		return MaxHookListLimit
	}
	return limit
}
