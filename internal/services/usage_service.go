package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"github.com/hookcraft/hookcraft-backend/internal/models"
	"github.com/hookcraft/hookcraft-backend/internal/store"
)

// UsageService exposes administrative operations on the quota ledger.
// Periodic resets are triggered from outside the process.
type UsageService struct {
	store store.Store
}

func NewUsageService(st store.Store) *UsageService {
	return &UsageService{store: st}
}

func (s *UsageService) ResetUsage(ctx context.Context, userID uuid.UUID) (*dto.QuotaResponse, error) {
	user, err := s.store.Users().ResetUsage(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storageError("reset usage", err)
	}
	slog.Info("usage reset by admin", "user_id", userID.String())
	resp := dto.NewQuotaResponse(user)
	return &resp, nil
}

// SetTier moves a user to tier and applies the tier's limit in the same update.
func (s *UsageService) SetTier(ctx context.Context, userID uuid.UUID, req *dto.SetTierRequest) (*dto.QuotaResponse, error) {
	tier, ok := models.ParseTier(strings.ToLower(strings.TrimSpace(req.Tier)))
	if !ok {
		return nil, invalidRequest("tier must be one of free, basic, pro")
	}

	user, err := s.store.Users().SetTier(ctx, userID, tier, tier.HooksLimit())
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storageError("set tier", err)
	}
	slog.Info("tier set by admin", "user_id", userID.String(), "tier", string(tier))
	resp := dto.NewQuotaResponse(user)
	return &resp, nil
}
