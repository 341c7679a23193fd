package models

import (
	"time"
)

// Operations an OTP-gated intent can cover. An intent is keyed by
// (wallet, operation), so a code issued for funding cannot confirm a transfer.
const (
	IntentOpTransfer = "transfer"
	IntentOpFund     = "fund"
	IntentOpWithdraw = "withdraw"
	IntentOpPinReset = "pin_reset"
)

// Intent statuses. OTP_SENT is the only state a confirm can act on.
const (
	IntentStatusOTPSent   = "otp_sent"
	IntentStatusConfirmed = "confirmed"
	IntentStatusExpired   = "expired"
	IntentStatusAbandoned = "abandoned"
)

// PendingIntent is an OTP-gated, not-yet-committed request to move money (or
// reset a pin). It is process state, not part of the durable ledger: a new
// request for the same (wallet, operation) overwrites the previous intent, and
// confirmation never mutates an intent into a journal entry.
type PendingIntent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	WalletID  uint      `gorm:"uniqueIndex:idx_intent_wallet_op;not null" json:"wallet_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Operation string    `gorm:"uniqueIndex:idx_intent_wallet_op;size:16;not null" json:"operation"`
	Status    string    `gorm:"size:16;not null;default:'otp_sent'" json:"status"`
	OTPCode   string    `gorm:"size:6;not null" json:"-"`
	OTPExpiry time.Time `gorm:"not null" json:"otp_expiry"`
	Attempts  int       `gorm:"default:0" json:"attempts"`
	Params    JSON      `gorm:"type:jsonb" json:"params"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExpiredAt reports whether the intent's OTP is past its expiry at time now.
func (p *PendingIntent) ExpiredAt(now time.Time) bool {
	return now.After(p.OTPExpiry)
}
