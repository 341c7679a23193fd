package transfer

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// OTPSender delivers one-time codes out-of-band. The coordinator only
// generates and validates codes; transport lives behind this interface.
type OTPSender interface {
	Send(ctx context.Context, userID uint, operation, code string) error
}

// LogOTPSender writes codes to the application log. Development only.
type LogOTPSender struct{}

func (LogOTPSender) Send(ctx context.Context, userID uint, operation, code string) error {
	log.Printf("otp for user %d (%s): %s", userID, operation, code)
	return nil
}

// Config tunes the coordinator.
type Config struct {
	OTPTTL        time.Duration
	OTPDigits     int
	MaxAttempts   int
	TransferFee   decimal.Decimal
	WithdrawalFee decimal.Decimal
}

// TransferRequest starts an internal peer transfer.
type TransferRequest struct {
	Currency     string
	RecipientTag string
	Amount       decimal.Decimal
	Note         string
	Pin          string
}

// DepositRequest starts a gateway-collected deposit.
type DepositRequest struct {
	Currency string
	Amount   decimal.Decimal
	Gateway  string
	Channel  string
}

// WithdrawalRequest starts a payout to an external bank account.
type WithdrawalRequest struct {
	Currency      string
	Amount        decimal.Decimal
	Pin           string
	Gateway       string
	BankCode      string
	AccountNumber string
}

// Confirmation carries the second-phase inputs shared by all flows.
type Confirmation struct {
	Currency string
	Code     string
	Pin      string
}

// IntentReceipt is returned by the request phase.
type IntentReceipt struct {
	Operation string    `json:"operation"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DepositReceipt is returned by a confirmed deposit.
type DepositReceipt struct {
	Reference string `json:"reference"`
	PayLink   string `json:"pay_link"`
	Gateway   string `json:"gateway"`
}
