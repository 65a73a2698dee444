package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User carries identity, subscription state and the per-period quota ledger.
type User struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email                string    `gorm:"not null;size:255;uniqueIndex"`
	Password             string    `gorm:"not null"`
	FirstName            *string   `gorm:"size:100"`
	LastName             *string   `gorm:"size:100"`
	Role                 string    `gorm:"size:20;not null;default:'user'"`
	StripeCustomerID     *string   `gorm:"size:255;index"`
	StripeSubscriptionID *string   `gorm:"size:255"`
	SubscriptionTier     Tier      `gorm:"size:20;not null;default:'free'"`
	HooksUsed            int       `gorm:"not null;default:0"`
	HooksLimit           int       `gorm:"not null"`
	ResetDate            time.Time `gorm:"not null"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Unlimited reports whether the user is exempt from the per-period cap.
func (u *User) Unlimited() bool {
	return u.SubscriptionTier == TierPro || u.HooksLimit == UnlimitedHooks
}

// HasQuota reports whether another generation is allowed. It has no side effects.
func (u *User) HasQuota() bool {
	return u.Unlimited() || u.HooksUsed < u.HooksLimit
}

// DisplayName joins first and last name, falling back to the email address.
func (u *User) DisplayName() string {
	name := ""
	if u.FirstName != nil {
		name = *u.FirstName
	}
	if u.LastName != nil && *u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += *u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}
