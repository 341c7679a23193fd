package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TransferParams describes an internal wallet-to-wallet movement.
type TransferParams struct {
	FromWalletID uint
	ToWalletID   uint
	Amount       decimal.Decimal
	Fee          decimal.Decimal
	Reference    string
	Note         string
}

// ExternalParams describes a gateway-backed deposit or withdrawal.
type ExternalParams struct {
	WalletID  uint
	Amount    decimal.Decimal
	Fee       decimal.Decimal
	Reference string
	Gateway   string
	Note      string
}

// Config holds configuration for the movement engine.
type Config struct {
	ProcessingTimeout time.Duration
}

// CacheInvalidator drops cached wallet state after a balance change.
type CacheInvalidator interface {
	InvalidateWallet(ctx context.Context, userID uint, currency string) error
}

// MetricsCollector defines the interface for collecting movement metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordBalanceChange(walletID uint, oldBalance, newBalance decimal.Decimal)
	RecordError(operation, errType string)
	RecordMovementVolume(journalType string, amount decimal.Decimal)
}
