package dto

import "github.com/hookcraft/hookcraft-backend/internal/models"

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:                   u.ID,
		Email:                u.Email,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		Role:                 u.Role,
		SubscriptionTier:     string(u.SubscriptionTier),
		HooksUsed:            u.HooksUsed,
		HooksLimit:           u.HooksLimit,
		ResetDate:            u.ResetDate,
		StripeCustomerID:     u.StripeCustomerID,
		StripeSubscriptionID: u.StripeSubscriptionID,
		CreatedAt:            u.CreatedAt,
	}
}

func NewHookResponse(h *models.Hook) HookResponse {
	return HookResponse{
		ID:        h.ID,
		UserID:    h.UserID,
		Topic:     h.Topic,
		Style:     h.Style,
		Content:   h.Content,
		CreatedAt: h.CreatedAt,
	}
}

func NewHookResponses(hooks []models.Hook) []HookResponse {
	out := make([]HookResponse, 0, len(hooks))
	for i := range hooks {
		out = append(out, NewHookResponse(&hooks[i]))
	}
	return out
}

func NewQuotaResponse(u *models.User) QuotaResponse {
	return QuotaResponse{
		UserID:           u.ID,
		SubscriptionTier: string(u.SubscriptionTier),
		HooksUsed:        u.HooksUsed,
		HooksLimit:       u.HooksLimit,
		ResetDate:        u.ResetDate,
	}
}
