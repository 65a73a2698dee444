package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type AuthResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID                   uuid.UUID `json:"id"`
	Email                string    `json:"email"`
	FirstName            *string   `json:"firstName"`
	LastName             *string   `json:"lastName"`
	Role                 string    `json:"role"`
	SubscriptionTier     string    `json:"subscriptionTier"`
	HooksUsed            int       `json:"hooksUsed"`
	HooksLimit           int       `json:"hooksLimit"`
	ResetDate            time.Time `json:"resetDate"`
	StripeCustomerID     *string   `json:"stripeCustomerId"`
	StripeSubscriptionID *string   `json:"stripeSubscriptionId"`
	CreatedAt            time.Time `json:"createdAt"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	DB        string            `json:"db"`
	Providers map[string]string `json:"providers,omitempty"`
}
