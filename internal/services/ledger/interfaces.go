package ledger

import (
	"context"

	"kobo/internal/models"

	"github.com/shopspring/decimal"
)

// Service is the only code path that mutates wallet balances. Every
// movement writes journal rows and balance updates in one transaction.
type Service interface {
	// Internal movement: two linked legs under one reference.
	DebitCredit(ctx context.Context, params TransferParams) ([]*models.JournalEntry, error)

	// External deposit lifecycle.
	OpenExternalDeposit(ctx context.Context, params ExternalParams) (*models.JournalEntry, error)
	SettleExternalDeposit(ctx context.Context, reference string, succeeded bool, confirmedAmount decimal.Decimal) error

	// External withdrawal lifecycle. The invoke closure runs inside the
	// same database transaction as the pre-debit; its error rolls the
	// debit back.
	WithdrawToExternal(ctx context.Context, params ExternalParams, invoke func(ctx context.Context) error) (*models.JournalEntry, error)
	SettleExternalWithdrawal(ctx context.Context, reference string, succeeded bool) error

	// Statement queries.
	GetEntriesByReference(ctx context.Context, reference string) ([]*models.JournalEntry, error)
	ListWalletEntries(ctx context.Context, walletID uint, limit, offset int) ([]*models.JournalEntry, error)
	ListUserEntries(ctx context.Context, userID uint, limit, offset int) ([]*models.JournalEntry, error)
}
