package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Journal entry types
const (
	JournalTypeDeposit    = "deposit"
	JournalTypeWithdrawal = "withdrawal"
	JournalTypeTransfer   = "transfer"
)

// Journal entry legs. An internal transfer writes two entries under one
// reference, one per leg; single-wallet movements use LegSingle.
const (
	LegDebit  = "debit"
	LegCredit = "credit"
	LegSingle = "single"
)

// Journal entry statuses. Entries are immutable once terminal.
const (
	JournalStatusPending = "pending"
	JournalStatusSuccess = "success"
	JournalStatusFailed  = "failed"
)

// JournalEntry is the immutable record of one balance-affecting event.
// BalanceBefore/BalanceAfter are snapshots taken when the entry was applied;
// for pending external entries both hold the balance at open time.
type JournalEntry struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	WalletID      uint            `gorm:"index;not null" json:"wallet_id"`
	UserID        uint            `gorm:"index;not null" json:"user_id"`
	CounterpartyID *uint          `json:"counterparty_wallet_id,omitempty"`
	Type          string          `gorm:"size:16;not null" json:"type"`
	Leg           string          `gorm:"uniqueIndex:idx_journal_ref_leg;size:8;not null;default:'single'" json:"leg"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Fee           decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"fee"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"balance_after"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`
	Reference     string          `gorm:"uniqueIndex:idx_journal_ref_leg;size:100;not null" json:"reference"`
	Gateway       string          `gorm:"size:50;default:''" json:"gateway"`
	Note          string          `json:"note"`
	Status        string          `gorm:"size:16;not null;default:'pending'" json:"status"`
	Metadata      JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Terminal reports whether the entry has reached a final status.
func (e *JournalEntry) Terminal() bool {
	return e.Status == JournalStatusSuccess || e.Status == JournalStatusFailed
}
