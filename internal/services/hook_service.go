package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"github.com/hookcraft/hookcraft-backend/internal/generator"
	"github.com/hookcraft/hookcraft-backend/internal/metrics"
	"github.com/hookcraft/hookcraft-backend/internal/models"
	"github.com/hookcraft/hookcraft-backend/internal/store"
)

const maxTopicLength = 500

// HookService runs the generation pipeline: validate, check quota, generate,
// then persist the batch and charge one unit of quota in a single transaction.
type HookService struct {
	store     store.Store
	generator generator.Generator
	metrics   *metrics.Metrics
}

func NewHookService(st store.Store, gen generator.Generator, m *metrics.Metrics) *HookService {
	return &HookService{store: st, generator: gen, metrics: m}
}

func validateGenerateRequest(req *dto.GenerateHooksRequest) (generator.Request, error) {
	topic := strings.TrimSpace(req.Topic)
	style := strings.TrimSpace(req.Style)
	platform := strings.ToLower(strings.TrimSpace(req.Platform))

	if topic == "" || style == "" {
		return generator.Request{}, invalidRequest("topic and style are required")
	}
	if utf8.RuneCountInString(topic) > maxTopicLength {
		return generator.Request{}, invalidRequest("topic must be at most %d characters", maxTopicLength)
	}
	if !generator.ValidStyle(style) {
		return generator.Request{}, invalidRequest("invalid style: %s", style)
	}
	if !generator.ValidPlatform(platform) {
		return generator.Request{}, invalidRequest("invalid platform: %s", platform)
	}
	return generator.Request{Topic: topic, Style: generator.Style(style), Platform: platform}, nil
}

func (s *HookService) GenerateHooks(ctx context.Context, userID uuid.UUID, req *dto.GenerateHooksRequest) (*dto.GenerateHooksResponse, error) {
	genReq, err := validateGenerateRequest(req)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		s.metrics.RecordGeneration(metrics.OutcomeStorageError, 0)
		slog.Error("load user for generation failed", "user_id", userID.String(), "error", err)
		return nil, storageError("load user", err)
	}

	if !user.HasQuota() {
		return nil, s.quotaExceeded(user)
	}

	genReq.Count = user.SubscriptionTier.BatchSize()
	generated, err := s.generator.Generate(ctx, genReq)
	if err != nil {
		s.metrics.RecordGeneration(metrics.OutcomeFailed, 0)
		slog.Error("hook generation failed",
			"user_id", userID.String(), "action", "generate_hooks", "error", err.Error())
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if len(generated) == 0 {
		s.metrics.RecordGeneration(metrics.OutcomeFailed, 0)
		slog.Error("hook generation returned no hooks", "user_id", userID.String(), "action", "generate_hooks")
		return nil, ErrGenerationFailed
	}

	hooks := make([]*models.Hook, 0, len(generated))
	for _, g := range generated {
		hooks = append(hooks, &models.Hook{
			UserID:  userID,
			Topic:   genReq.Topic,
			Style:   string(g.Style),
			Content: g.Content,
		})
	}

	var charged *models.User
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.Hooks().CreateBatch(ctx, hooks); err != nil {
			return err
		}
		u, err := tx.Users().ConsumeQuota(ctx, userID)
		charged = u
		return err
	})
	switch {
	case errors.Is(err, store.ErrQuotaExhausted):
		// A concurrent request spent the last unit between the check and the charge.
		return nil, s.quotaExceeded(charged)
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		s.metrics.RecordGeneration(metrics.OutcomeStorageError, 0)
		slog.Error("persist generated hooks failed",
			"user_id", userID.String(), "action", "generate_hooks", "error", err.Error())
		return nil, storageError("persist hooks", err)
	}

	s.metrics.RecordGeneration(metrics.OutcomeSuccess, len(hooks))

	resp := &dto.GenerateHooksResponse{
		Hooks:      make([]dto.HookResponse, 0, len(hooks)),
		HooksUsed:  charged.HooksUsed,
		HooksLimit: charged.HooksLimit,
	}
	for _, h := range hooks {
		resp.Hooks = append(resp.Hooks, dto.NewHookResponse(h))
	}
	return resp, nil
}

func (s *HookService) quotaExceeded(user *models.User) error {
	s.metrics.RecordGeneration(metrics.OutcomeQuotaExceeded, 0)
	slog.Info("hook quota exceeded",
		"user_id", user.ID.String(), "hooks_used", user.HooksUsed, "hooks_limit", user.HooksLimit)
	return &QuotaExceededError{HooksUsed: user.HooksUsed, HooksLimit: user.HooksLimit}
}

// ListHooks returns the caller's hooks, newest first.
func (s *HookService) ListHooks(ctx context.Context, userID uuid.UUID, limit int) ([]dto.HookResponse, error) {
	hooks, err := s.store.Hooks().ListByUser(ctx, userID, limit)
	if err != nil {
		slog.Error("list hooks failed", "user_id", userID.String(), "error", err)
		return nil, storageError("list hooks", err)
	}
	return dto.NewHookResponses(hooks), nil
}
