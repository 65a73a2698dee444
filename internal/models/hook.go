package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hook is one generated opening line. Rows are append-only.
type Hook struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_hooks_user_created,priority:1"`
	Topic     string    `gorm:"type:text;not null"`
	Style     string    `gorm:"size:30;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_hooks_user_created,priority:2"`
	User      User      `gorm:"foreignKey:UserID"`
}

func (h *Hook) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
