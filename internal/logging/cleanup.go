package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/hookcraft/hookcraft-backend/internal/models"
	"gorm.io/gorm"
)

// DefaultRetention is how long system_logs rows are kept.
const DefaultRetention = 30 * 24 * time.Hour

// Cleanup deletes system_logs older than retention and returns the number removed.
func Cleanup(ctx context.Context, db *gorm.DB, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	result := db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}

// StartCleanup runs Cleanup once a day until done is closed.
func StartCleanup(db *gorm.DB, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deleted, err := Cleanup(context.Background(), db, DefaultRetention)
				if err != nil {
					slog.Error("log cleanup failed", "action", "log_cleanup", "error", err.Error())
				} else if deleted > 0 {
					slog.Info("log cleanup completed", "deleted", deleted)
				}
			case <-done:
				return
			}
		}
	}()
}
