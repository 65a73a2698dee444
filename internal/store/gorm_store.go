package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hookcraft/hookcraft-backend/internal/models"
	"gorm.io/gorm"
)

// GormStore implements Store on top of GORM.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserStore {
	return &gormUserStore{db: s.db, inTx: s.inTx}
}

func (s *GormStore) Hooks() HookStore {
	return &gormHookStore{db: s.db}
}

func (s *GormStore) RefreshTokens() RefreshTokenStore {
	return &gormRefreshTokenStore{db: s.db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

// --- users ---

type gormUserStore struct {
	db   *gorm.DB
	inTx bool
}

func (s *gormUserStore) Create(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *gormUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *gormUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *gormUserStore) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	return s.first(ctx, "stripe_customer_id = ?", customerID)
}

func (s *gormUserStore) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormUserStore) UpdateBillingIDs(ctx context.Context, id uuid.UUID, customerID, subscriptionID string) (*models.User, error) {
	user, _, err := s.updateAndLoad(ctx, id, map[string]interface{}{
		"stripe_customer_id":     nullable(customerID),
		"stripe_subscription_id": nullable(subscriptionID),
	})
	return user, err
}

func (s *gormUserStore) SetTier(ctx context.Context, id uuid.UUID, tier models.Tier, limit int) (*models.User, error) {
	user, _, err := s.updateAndLoad(ctx, id, map[string]interface{}{
		"subscription_tier": tier,
		"hooks_limit":       limit,
	})
	return user, err
}

func (s *gormUserStore) IncrementUsage(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, _, err := s.updateAndLoad(ctx, id, map[string]interface{}{
		"hooks_used": gorm.Expr("hooks_used + 1"),
	})
	return user, err
}

func (s *gormUserStore) ConsumeQuota(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, applied, err := s.updateAndLoad(ctx, id, map[string]interface{}{
		"hooks_used": gorm.Expr("hooks_used + 1"),
	}, quotaAvailable)
	if err != nil {
		return nil, err
	}
	if !applied {
		return user, ErrQuotaExhausted
	}
	return user, nil
}

func (s *gormUserStore) ResetUsage(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, _, err := s.updateAndLoad(ctx, id, map[string]interface{}{
		"hooks_used": 0,
		"reset_date": time.Now().UTC(),
	})
	return user, err
}

// quotaAvailable mirrors models.User.HasQuota as a row predicate.
func quotaAvailable(db *gorm.DB) *gorm.DB {
	return db.Where("(subscription_tier = ? OR hooks_limit = ? OR hooks_used < hooks_limit)",
		models.TierPro, models.UnlimitedHooks)
}

// updateAndLoad applies updates to one user row, optionally narrowed by scopes, and
// reads the row back inside the same transaction. The row lock taken by the
// UPDATE keeps the read consistent with the write.
func (s *gormUserStore) updateAndLoad(ctx context.Context, id uuid.UUID, updates map[string]interface{}, scopes ...func(*gorm.DB) *gorm.DB) (*models.User, bool, error) {
	var (
		user    models.User
		applied bool
	)
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Scopes(scopes...).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		applied = res.RowsAffected > 0
		return tx.First(&user, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("update user %s: %w", id, err)
	}
	return &user, applied, nil
}

func (s *gormUserStore) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.inTx {
		return fn(s.db.WithContext(ctx))
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *gormUserStore) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// --- hooks ---

type gormHookStore struct {
	db *gorm.DB
}

func (s *gormHookStore) Create(ctx context.Context, hook *models.Hook) error {
	if err := s.db.WithContext(ctx).Omit("User").Create(hook).Error; err != nil {
		return fmt.Errorf("create hook: %w", err)
	}
	return nil
}

// CreateBatch inserts hooks in slice order. Timestamps are spaced one microsecond
// apart so newest-first listing returns the batch in reverse insertion order.
func (s *gormHookStore) CreateBatch(ctx context.Context, hooks []*models.Hook) error {
	if len(hooks) == 0 {
		return nil
	}
	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, h := range hooks {
		if h.CreatedAt.IsZero() {
			h.CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
		}
	}
	if err := s.db.WithContext(ctx).Omit("User").Create(&hooks).Error; err != nil {
		return fmt.Errorf("create hooks: %w", err)
	}
	return nil
}

func (s *gormHookStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Hook, error) {
	hooks := make([]models.Hook, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(ClampListLimit(limit)).
		Find(&hooks).Error
	if err != nil {
		return nil, fmt.Errorf("list hooks: %w", err)
	}
	return hooks, nil
}

// --- refresh tokens ---

type gormRefreshTokenStore struct {
	db *gorm.DB
}

func (s *gormRefreshTokenStore) Create(ctx context.Context, token *models.RefreshToken) error {
	if err := s.db.WithContext(ctx).Omit("User").Create(token).Error; err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (s *gormRefreshTokenStore) Consume(ctx context.Context, tokenHash string, now time.Time) (uuid.UUID, error) {
	var token models.RefreshToken
	err := s.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("find refresh token: %w", err)
	}

	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ? AND revoked = ? AND expires_at > ?", token.ID, false, now.UTC()).
		Update("revoked", true)
	if res.Error != nil {
		return uuid.Nil, fmt.Errorf("consume refresh token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return uuid.Nil, ErrNotFound
	}
	return token.UserID, nil
}

func (s *gormRefreshTokenStore) Revoke(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	err := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND token_hash = ?", userID, tokenHash).
		Update("revoked", true).Error
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *gormRefreshTokenStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	err := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}
