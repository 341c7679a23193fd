package repositories

import (
	"context"
	"errors"
	"time"

	"kobo/internal/models"
)

var (
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrInvalidWalletData  = errors.New("invalid wallet data")
	ErrDuplicateWallet    = errors.New("wallet already exists")
	ErrEntryNotFound      = errors.New("journal entry not found")
	ErrDuplicateReference = errors.New("reference already recorded")
)

// LedgerRepository defines the interface for wallet and journal database operations
type LedgerRepository interface {
	// Wallet operations
	CreateWallet(wallet *models.Wallet) error
	GetWallet(id uint) (*models.Wallet, error)
	GetWalletByUserAndCurrency(userID uint, currency string) (*models.Wallet, error)
	GetWalletByTagAndCurrency(tag, currency string) (*models.Wallet, error)
	ListWalletsByUser(userID uint) ([]*models.Wallet, error)
	CountWalletsByUser(userID uint) (int64, error)
	UpdateWallet(wallet *models.Wallet) error
	UpdateWalletStatus(walletID uint, status, reason string) error

	// LockWallets loads the given wallets under row locks, always in
	// ascending ID order. Must be called inside ExecuteInTransaction.
	LockWallets(ids ...uint) (map[uint]*models.Wallet, error)

	// Journal operations
	CreateEntry(entry *models.JournalEntry) error
	CreateEntries(entries []*models.JournalEntry) error
	GetEntryByReference(reference, leg string) (*models.JournalEntry, error)
	GetEntriesByReference(reference string) ([]*models.JournalEntry, error)
	UpdateEntry(entry *models.JournalEntry) error
	ListEntriesByWallet(ctx context.Context, walletID uint, limit, offset int) ([]*models.JournalEntry, error)
	ListEntriesByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.JournalEntry, error)
	ListPendingEntries(journalType string, olderThan time.Time, limit int) ([]*models.JournalEntry, error)

	// Batch operations
	ExecuteInTransaction(fn func(LedgerRepository) error) error
}
