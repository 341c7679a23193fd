package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"

	"github.com/shopspring/decimal"
)

const defaultTimeout = 30 * time.Second

type service struct {
	repo    repositories.LedgerRepository
	cache   CacheInvalidator
	config  Config
	metrics MetricsCollector
}

// NewService creates a new movement engine.
func NewService(repo repositories.LedgerRepository, cache CacheInvalidator, config Config, metrics MetricsCollector) Service {
	if repo == nil {
		panic("repo is required")
	}
	if config.ProcessingTimeout == 0 {
		config.ProcessingTimeout = defaultTimeout
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		cache:   cache,
		config:  config,
		metrics: metrics,
	}
}

func (s *service) DebitCredit(ctx context.Context, params TransferParams) ([]*models.JournalEntry, error) {
	if params.Amount.LessThanOrEqual(decimal.Zero) || params.Fee.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if params.FromWalletID == params.ToWalletID {
		return nil, ErrSelfTransfer
	}
	if params.Reference == "" {
		return nil, fmt.Errorf("reference is required")
	}

	var entries []*models.JournalEntry
	var from, to *models.Wallet

	start := time.Now()
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		locked, err := tx.LockWallets(params.FromWalletID, params.ToWalletID)
		if err != nil {
			return err
		}
		from = locked[params.FromWalletID]
		to = locked[params.ToWalletID]

		if from.Status != models.WalletStatusActive || to.Status != models.WalletStatusActive {
			return ErrWalletLocked
		}
		if from.UserID == to.UserID {
			return ErrSelfTransfer
		}
		if from.Currency != to.Currency {
			return ErrCurrencyMismatch
		}

		total := params.Amount.Add(params.Fee)
		if from.Balance.LessThan(total) {
			return ErrInsufficientFunds
		}

		fromAfter := from.Balance.Sub(total)
		toAfter := to.Balance.Add(params.Amount)

		entries = []*models.JournalEntry{
			{
				WalletID:       from.ID,
				UserID:         from.UserID,
				CounterpartyID: &to.ID,
				Type:           models.JournalTypeTransfer,
				Leg:            models.LegDebit,
				Amount:         params.Amount,
				Fee:            params.Fee,
				BalanceBefore:  from.Balance,
				BalanceAfter:   fromAfter,
				Currency:       from.Currency,
				Reference:      params.Reference,
				Note:           params.Note,
				Status:         models.JournalStatusSuccess,
			},
			{
				WalletID:       to.ID,
				UserID:         to.UserID,
				CounterpartyID: &from.ID,
				Type:           models.JournalTypeTransfer,
				Leg:            models.LegCredit,
				Amount:         params.Amount,
				BalanceBefore:  to.Balance,
				BalanceAfter:   toAfter,
				Currency:       to.Currency,
				Reference:      params.Reference,
				Note:           params.Note,
				Status:         models.JournalStatusSuccess,
			},
		}
		if err := tx.CreateEntries(entries); err != nil {
			return err
		}

		from.Balance = fromAfter
		if err := tx.UpdateWallet(from); err != nil {
			return err
		}
		to.Balance = toAfter
		return tx.UpdateWallet(to)
	})
	s.observe("debit_credit", start, err)
	if err != nil {
		s.metrics.RecordError("debit_credit", err.Error())
		return nil, s.translate(err)
	}

	s.invalidate(ctx, from)
	s.invalidate(ctx, to)
	s.metrics.RecordMovementVolume(models.JournalTypeTransfer, params.Amount)
	s.metrics.RecordBalanceChange(from.ID, entries[0].BalanceBefore, entries[0].BalanceAfter)
	s.metrics.RecordBalanceChange(to.ID, entries[1].BalanceBefore, entries[1].BalanceAfter)
	return entries, nil
}

func (s *service) OpenExternalDeposit(ctx context.Context, params ExternalParams) (*models.JournalEntry, error) {
	if params.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if params.Reference == "" {
		return nil, fmt.Errorf("reference is required")
	}

	var entry *models.JournalEntry
	start := time.Now()
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		wallet, err := tx.GetWallet(params.WalletID)
		if err != nil {
			return err
		}
		if wallet.Status != models.WalletStatusActive {
			return ErrWalletLocked
		}

		// Pending deposits touch no balance until settlement.
		entry = &models.JournalEntry{
			WalletID:      wallet.ID,
			UserID:        wallet.UserID,
			Type:          models.JournalTypeDeposit,
			Leg:           models.LegSingle,
			Amount:        params.Amount,
			Fee:           params.Fee,
			BalanceBefore: wallet.Balance,
			BalanceAfter:  wallet.Balance,
			Currency:      wallet.Currency,
			Reference:     params.Reference,
			Gateway:       params.Gateway,
			Note:          params.Note,
			Status:        models.JournalStatusPending,
		}
		return tx.CreateEntry(entry)
	})
	s.observe("open_deposit", start, err)
	if err != nil {
		s.metrics.RecordError("open_deposit", err.Error())
		return nil, s.translate(err)
	}
	return entry, nil
}

func (s *service) SettleExternalDeposit(ctx context.Context, reference string, succeeded bool, confirmedAmount decimal.Decimal) error {
	// The gateway-confirmed amount wins over the requested amount, so a
	// successful settlement without one is malformed, not a fallback.
	if succeeded && confirmedAmount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	var wallet *models.Wallet
	var credited decimal.Decimal

	start := time.Now()
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		entry, err := tx.GetEntryByReference(reference, models.LegSingle)
		if err != nil {
			return err
		}
		if entry.Terminal() {
			return replayOutcome(entry, succeeded)
		}

		if !succeeded {
			entry.Status = models.JournalStatusFailed
			return tx.UpdateEntry(entry)
		}

		locked, err := tx.LockWallets(entry.WalletID)
		if err != nil {
			return err
		}
		wallet = locked[entry.WalletID]

		credited = confirmedAmount
		entry.Amount = confirmedAmount
		entry.BalanceBefore = wallet.Balance
		entry.BalanceAfter = wallet.Balance.Add(confirmedAmount)
		entry.Status = models.JournalStatusSuccess
		if err := tx.UpdateEntry(entry); err != nil {
			return err
		}

		wallet.Balance = entry.BalanceAfter
		return tx.UpdateWallet(wallet)
	})
	s.observe("settle_deposit", start, err)
	if err != nil {
		s.metrics.RecordError("settle_deposit", err.Error())
		return s.translate(err)
	}

	if wallet != nil {
		s.invalidate(ctx, wallet)
		s.metrics.RecordMovementVolume(models.JournalTypeDeposit, credited)
		s.metrics.RecordBalanceChange(wallet.ID, wallet.Balance.Sub(credited), wallet.Balance)
	}
	return nil
}

func (s *service) WithdrawToExternal(ctx context.Context, params ExternalParams, invoke func(ctx context.Context) error) (*models.JournalEntry, error) {
	if params.Amount.LessThanOrEqual(decimal.Zero) || params.Fee.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if params.Reference == "" {
		return nil, fmt.Errorf("reference is required")
	}

	var entry *models.JournalEntry
	var wallet *models.Wallet

	start := time.Now()
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		locked, err := tx.LockWallets(params.WalletID)
		if err != nil {
			return err
		}
		wallet = locked[params.WalletID]

		if wallet.Status != models.WalletStatusActive {
			return ErrWalletLocked
		}

		total := params.Amount.Add(params.Fee)
		if wallet.Balance.LessThan(total) {
			return ErrInsufficientFunds
		}

		after := wallet.Balance.Sub(total)
		entry = &models.JournalEntry{
			WalletID:      wallet.ID,
			UserID:        wallet.UserID,
			Type:          models.JournalTypeWithdrawal,
			Leg:           models.LegSingle,
			Amount:        params.Amount,
			Fee:           params.Fee,
			BalanceBefore: wallet.Balance,
			BalanceAfter:  after,
			Currency:      wallet.Currency,
			Reference:     params.Reference,
			Gateway:       params.Gateway,
			Note:          params.Note,
			Status:        models.JournalStatusPending,
		}
		if err := tx.CreateEntry(entry); err != nil {
			return err
		}

		wallet.Balance = after
		if err := tx.UpdateWallet(wallet); err != nil {
			return err
		}

		if invoke == nil {
			return nil
		}

		// Gateway failure here rolls the pre-debit back with the
		// rest of the transaction.
		invokeCtx, cancel := context.WithTimeout(ctx, s.config.ProcessingTimeout)
		defer cancel()
		return invoke(invokeCtx)
	})
	s.observe("withdraw", start, err)
	if err != nil {
		s.metrics.RecordError("withdraw", err.Error())
		return nil, s.translate(err)
	}

	s.invalidate(ctx, wallet)
	s.metrics.RecordMovementVolume(models.JournalTypeWithdrawal, params.Amount)
	s.metrics.RecordBalanceChange(wallet.ID, entry.BalanceBefore, entry.BalanceAfter)
	return entry, nil
}

func (s *service) SettleExternalWithdrawal(ctx context.Context, reference string, succeeded bool) error {
	var wallet *models.Wallet
	var refunded decimal.Decimal

	start := time.Now()
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		entry, err := tx.GetEntryByReference(reference, models.LegSingle)
		if err != nil {
			return err
		}
		if entry.Terminal() {
			return replayOutcome(entry, succeeded)
		}

		if succeeded {
			entry.Status = models.JournalStatusSuccess
			return tx.UpdateEntry(entry)
		}

		// Failed payout: refund the pre-debit.
		locked, err := tx.LockWallets(entry.WalletID)
		if err != nil {
			return err
		}
		wallet = locked[entry.WalletID]

		refunded = entry.Amount.Add(entry.Fee)
		wallet.Balance = wallet.Balance.Add(refunded)
		if err := tx.UpdateWallet(wallet); err != nil {
			return err
		}

		entry.Status = models.JournalStatusFailed
		return tx.UpdateEntry(entry)
	})
	s.observe("settle_withdrawal", start, err)
	if err != nil {
		s.metrics.RecordError("settle_withdrawal", err.Error())
		return s.translate(err)
	}

	if wallet != nil {
		s.invalidate(ctx, wallet)
		s.metrics.RecordBalanceChange(wallet.ID, wallet.Balance.Sub(refunded), wallet.Balance)
	}
	return nil
}

func (s *service) GetEntriesByReference(ctx context.Context, reference string) ([]*models.JournalEntry, error) {
	entries, err := s.repo.GetEntriesByReference(reference)
	if err != nil {
		return nil, s.translate(err)
	}
	return entries, nil
}

func (s *service) ListWalletEntries(ctx context.Context, walletID uint, limit, offset int) ([]*models.JournalEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListEntriesByWallet(ctx, walletID, limit, offset)
}

func (s *service) ListUserEntries(ctx context.Context, userID uint, limit, offset int) ([]*models.JournalEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListEntriesByUser(ctx, userID, limit, offset)
}

// replayOutcome decides what a settlement against a terminal entry means:
// the same outcome again is an idempotent no-op, a conflicting one is an error.
func replayOutcome(entry *models.JournalEntry, succeeded bool) error {
	if (entry.Status == models.JournalStatusSuccess) == succeeded {
		return nil
	}
	return ErrAlreadySettled
}

// observe records the duration and fate of one movement operation.
func (s *service) observe(operation string, start time.Time, err error) {
	s.metrics.RecordOperationDuration(operation, time.Since(start))
	result := "success"
	if err != nil {
		result = "failure"
	}
	s.metrics.RecordOperationResult(operation, result)
}

func (s *service) invalidate(ctx context.Context, wallet *models.Wallet) {
	if s.cache == nil || wallet == nil {
		return
	}
	if err := s.cache.InvalidateWallet(ctx, wallet.UserID, wallet.Currency); err != nil {
		s.metrics.RecordError("cache_invalidate", err.Error())
	}
}

func (s *service) translate(err error) error {
	switch {
	case errors.Is(err, repositories.ErrWalletNotFound):
		return ErrWalletNotFound
	case errors.Is(err, repositories.ErrEntryNotFound):
		return ErrEntryNotFound
	case errors.Is(err, repositories.ErrDuplicateReference):
		return ErrDuplicateReference
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrCurrencyMismatch),
		errors.Is(err, ErrSelfTransfer),
		errors.Is(err, ErrWalletLocked),
		errors.Is(err, ErrAlreadySettled),
		errors.Is(err, ErrGatewayUnavailable):
		return err
	default:
		return fmt.Errorf("movement failed: %w", err)
	}
}
