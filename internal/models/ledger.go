package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LedgerTypeReferralBonus = "referral_bonus"
	LedgerTypeRedemption    = "redemption"
	LedgerTypeAdjustment    = "admin_adjustment"
)

func ValidLedgerType(t string) bool {
	switch t {
	case LedgerTypeReferralBonus, LedgerTypeRedemption, LedgerTypeAdjustment:
		return true
	}
	return false
}

// LedgerEntry is an append-only record of a referral point movement.
type LedgerEntry struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID       string    `gorm:"type:text;not null;index" json:"user_id"`
	Amount       int64     `gorm:"not null" json:"amount"`
	Type         string    `gorm:"type:text;not null" json:"type"`
	Metadata     string    `gorm:"type:jsonb" json:"metadata"`
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "referral_ledger"
}
