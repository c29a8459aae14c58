package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/hirematch/internal/metrics"
	"alfredoptarigan/hirematch/internal/models"
)

var (
	ErrInsufficientBalance = errors.New("insufficient referral balance")
	ErrBalanceOverflow     = errors.New("referral balance overflow")
)

type LedgerRepository interface {
	// TryAdjust moves a user's referral balance by delta and appends a
	// ledger entry in one transaction. The balance never goes below zero.
	TryAdjust(ctx context.Context, userID string, delta int64, txType string, metadata map[string]interface{}) (int64, error)
	History(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error)
}

type ledgerRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db, now: time.Now}
}

// TryAdjust implements LedgerRepository.
func (r *ledgerRepository) TryAdjust(ctx context.Context, userID string, delta int64, txType string, metadata map[string]interface{}) (int64, error) {
	meta := "{}"
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to encode ledger metadata: %w", err)
		}
		meta = string(raw)
	}

	var newBalance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).
			First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to load user: %w", err)
		}

		if delta > 0 && user.ReferralPoints > math.MaxInt64-delta {
			return fmt.Errorf("%w: balance %d, requested %d", ErrBalanceOverflow, user.ReferralPoints, delta)
		}
		newBalance = user.ReferralPoints + delta
		if newBalance < 0 {
			return fmt.Errorf("%w: balance %d, requested %d", ErrInsufficientBalance, user.ReferralPoints, delta)
		}

		now := r.now().UTC()
		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"referral_points": newBalance,
				"updated_at":      now,
			}).Error; err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		entry := &models.LedgerEntry{
			ID:           uuid.New(),
			UserID:       userID,
			Amount:       delta,
			Type:         txType,
			Metadata:     meta,
			BalanceAfter: newBalance,
			CreatedAt:    now,
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}

		return nil
	})

	switch {
	case err == nil:
		metrics.LedgerAdjustmentsTotal.WithLabelValues(txType, "ok").Inc()
		return newBalance, nil
	case errors.Is(err, ErrInsufficientBalance):
		metrics.LedgerAdjustmentsTotal.WithLabelValues(txType, "insufficient").Inc()
	case errors.Is(err, ErrUserNotFound):
		metrics.LedgerAdjustmentsTotal.WithLabelValues(txType, "not_found").Inc()
	default:
		metrics.LedgerAdjustmentsTotal.WithLabelValues(txType, "error").Inc()
	}
	return 0, err
}

// History implements LedgerRepository.
func (r *ledgerRepository) History(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger history: %w", err)
	}

	return entries, nil
}
