package dto

import (
	"time"

	"github.com/google/uuid"
)

type GenerateHooksRequest struct {
	Topic    string `json:"topic"`
	Style    string `json:"style"`
	Platform string `json:"platform,omitempty"`
}

type HookResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Topic     string    `json:"topic"`
	Style     string    `json:"style"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type GenerateHooksResponse struct {
	Hooks      []HookResponse `json:"hooks"`
	HooksUsed  int            `json:"hooksUsed"`
	HooksLimit int            `json:"hooksLimit"`
}

// QuotaExceededResponse is the 403 body; clients render remaining quota from the counts.
type QuotaExceededResponse struct {
	Error      bool   `json:"error"`
	Message    string `json:"message"`
	HooksUsed  int    `json:"hooksUsed"`
	HooksLimit int    `json:"hooksLimit"`
}

// QuotaResponse reports a user's ledger after an administrative change.
type QuotaResponse struct {
	UserID           uuid.UUID `json:"userId"`
	SubscriptionTier string    `json:"subscriptionTier"`
	HooksUsed        int       `json:"hooksUsed"`
	HooksLimit       int       `json:"hooksLimit"`
	ResetDate        time.Time `json:"resetDate"`
}

type SetTierRequest struct {
	Tier string `json:"tier"`
}
