package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"kobo/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{
		db: db,
	}
}

func (r *ledgerRepository) CreateWallet(wallet *models.Wallet) error {
	result := r.db.Create(wallet)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDuplicateWallet
		}
		return fmt.Errorf("failed to create wallet: %w", result.Error)
	}
	return nil
}

func (r *ledgerRepository) GetWallet(id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.First(&wallet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) GetWalletByUserAndCurrency(userID uint, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.Where("user_id = ? AND currency = ?", userID, currency).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) GetWalletByTagAndCurrency(tag, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.
		Joins("JOIN users ON users.id = wallets.user_id").
		Where("users.tag = ? AND wallets.currency = ?", tag, currency).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet by tag: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) ListWalletsByUser(userID uint) ([]*models.Wallet, error) {
	var wallets []*models.Wallet
	if err := r.db.Where("user_id = ?", userID).Order("id ASC").Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return wallets, nil
}

func (r *ledgerRepository) CountWalletsByUser(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Wallet{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count wallets: %w", err)
	}
	return count, nil
}

func (r *ledgerRepository) UpdateWallet(wallet *models.Wallet) error {
	result := r.db.Save(wallet)
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet: %w", result.Error)
	}
	return nil
}

func (r *ledgerRepository) UpdateWalletStatus(walletID uint, status, reason string) error {
	result := r.db.Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]interface{}{"status": status, "status_reason": reason})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWalletNotFound
	}
	return nil
}

// LockWallets acquires row locks in ascending ID order so concurrent
// movements touching the same wallets never deadlock.
func (r *ledgerRepository) LockWallets(ids ...uint) (map[uint]*models.Wallet, error) {
	ordered := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	locked := make(map[uint]*models.Wallet, len(ordered))
	for _, id := range ordered {
		var wallet models.Wallet
		err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&wallet, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrWalletNotFound
			}
			return nil, fmt.Errorf("failed to lock wallet %d: %w", id, err)
		}
		locked[id] = &wallet
	}
	return locked, nil
}

func (r *ledgerRepository) CreateEntry(entry *models.JournalEntry) error {
	result := r.db.Create(entry)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to create journal entry: %w", result.Error)
	}
	return nil
}

func (r *ledgerRepository) CreateEntries(entries []*models.JournalEntry) error {
	result := r.db.Create(entries)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to create journal entries: %w", result.Error)
	}
	return nil
}

func (r *ledgerRepository) GetEntryByReference(reference, leg string) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	if err := r.db.Where("reference = ? AND leg = ?", reference, leg).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}
	return &entry, nil
}

func (r *ledgerRepository) GetEntriesByReference(reference string) ([]*models.JournalEntry, error) {
	var entries []*models.JournalEntry
	if err := r.db.Where("reference = ?", reference).Order("leg ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to get journal entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrEntryNotFound
	}
	return entries, nil
}

func (r *ledgerRepository) UpdateEntry(entry *models.JournalEntry) error {
	result := r.db.Save(entry)
	if result.Error != nil {
		return fmt.Errorf("failed to update journal entry: %w", result.Error)
	}
	return nil
}

func (r *ledgerRepository) ListEntriesByWallet(ctx context.Context, walletID uint, limit, offset int) ([]*models.JournalEntry, error) {
	var entries []*models.JournalEntry
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) ListEntriesByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.JournalEntry, error) {
	var entries []*models.JournalEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) ListPendingEntries(journalType string, olderThan time.Time, limit int) ([]*models.JournalEntry, error) {
	var entries []*models.JournalEntry
	err := r.db.
		Where("type = ? AND status = ? AND created_at < ?", journalType, models.JournalStatusPending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending entries: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) ExecuteInTransaction(fn func(LedgerRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		txRepo := &ledgerRepository{db: tx}
		return fn(txRepo)
	})
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key value")
}
