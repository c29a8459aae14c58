package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"alfredoptarigan/hirematch/internal/models"
)

type ApplicationRepository interface {
	// FlagStale marks submitted applications created before cutoff as stale
	// and returns how many rows changed.
	FlagStale(ctx context.Context, cutoff, now time.Time) (int64, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) FlagStale(ctx context.Context, cutoff, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("status = ? AND stale = ? AND created_at < ?", models.ApplicationSubmitted, false, cutoff).
		Updates(map[string]interface{}{
			"stale":      true,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to flag stale applications: %w", result.Error)
	}
	return result.RowsAffected, nil
}
