package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the cached conversion rate between two currencies. Rows are
// refreshed by the background rate job; readers never fetch synchronously.
type ExchangeRate struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	FromCurrency string          `gorm:"uniqueIndex:idx_rate_pair;size:3;not null" json:"from"`
	ToCurrency   string          `gorm:"uniqueIndex:idx_rate_pair;size:3;not null" json:"to"`
	Rate         decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"rate"`
	FetchedAt    time.Time       `gorm:"not null" json:"fetched_at"`
	UpdatedAt    time.Time       `json:"last_updated"`
}

// Stale reports whether the rate has not been refreshed within maxAge.
func (r *ExchangeRate) Stale(maxAge time.Duration) bool {
	return time.Since(r.FetchedAt) > maxAge
}
