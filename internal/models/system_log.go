package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SystemLog stores structured error logs for later querying.
type SystemLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Timestamp time.Time      `gorm:"not null;index"`
	Level     string         `gorm:"size:10;not null;index"`
	Message   string         `gorm:"type:text"`
	TraceID   string         `gorm:"size:36;index"`
	UserID    *string        `gorm:"size:36"`
	Action    string         `gorm:"size:100"`
	Error     string         `gorm:"type:text"`
	LatencyMs int
	Extra     datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	CreatedAt time.Time
}

func (l *SystemLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
