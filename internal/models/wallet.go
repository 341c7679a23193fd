package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet statuses
const (
	WalletStatusActive = "active"
	WalletStatusLocked = "locked"
)

// DefaultCurrency is assumed when a request leaves the currency blank.
const DefaultCurrency = "NGN"

// Currencies a wallet can be denominated in. One wallet per (user, currency).
var SupportedCurrencies = []string{
	"NGN", "GHS", "KES", "XOF", "XAF", "CDF", "GNF", "LRD", "MZN",
	"SLL", "TZS", "UGX", "ZMW", "USD", "EUR", "GBP", "AED",
}

// IsSupportedCurrency reports whether code is one of the fixed currency set.
func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// Wallet holds a single user's balance in one currency. Balance is only ever
// mutated by the ledger engine; every change is paired with a journal entry.
type Wallet struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	UserID       uint            `gorm:"uniqueIndex:idx_wallet_owner_currency;not null" json:"user_id"`
	Currency     string          `gorm:"uniqueIndex:idx_wallet_owner_currency;size:3;not null;default:'NGN'" json:"currency"`
	Name         string          `gorm:"size:64" json:"name"`
	Balance      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"balance"`
	PinHash      string          `gorm:"size:255;default:''" json:"-"`
	Status       string          `gorm:"size:16;default:'active'" json:"status"`
	StatusReason string          `gorm:"default:''" json:"status_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// HasPin reports whether a transaction pin has been set on the wallet.
func (w *Wallet) HasPin() bool {
	return w.PinHash != ""
}
