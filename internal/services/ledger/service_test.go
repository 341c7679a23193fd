package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedgerRepo is an in-memory LedgerRepository with transaction
// rollback semantics, so movement atomicity is observable in tests.
type fakeLedgerRepo struct {
	wallets map[uint]models.Wallet
	entries []models.JournalEntry
	nextID  uint
}

func newFakeLedgerRepo(wallets ...models.Wallet) *fakeLedgerRepo {
	f := &fakeLedgerRepo{wallets: make(map[uint]models.Wallet), nextID: 1}
	for _, w := range wallets {
		f.wallets[w.ID] = w
	}
	return f
}

func (f *fakeLedgerRepo) CreateWallet(w *models.Wallet) error {
	if w.ID == 0 {
		w.ID = f.nextID
		f.nextID++
	}
	f.wallets[w.ID] = *w
	return nil
}

func (f *fakeLedgerRepo) GetWallet(id uint) (*models.Wallet, error) {
	w, ok := f.wallets[id]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	cp := w
	return &cp, nil
}

func (f *fakeLedgerRepo) GetWalletByUserAndCurrency(userID uint, currency string) (*models.Wallet, error) {
	for _, w := range f.wallets {
		if w.UserID == userID && w.Currency == currency {
			cp := w
			return &cp, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (f *fakeLedgerRepo) GetWalletByTagAndCurrency(tag, currency string) (*models.Wallet, error) {
	return nil, repositories.ErrWalletNotFound
}

func (f *fakeLedgerRepo) ListWalletsByUser(userID uint) ([]*models.Wallet, error) {
	var out []*models.Wallet
	for _, w := range f.wallets {
		if w.UserID == userID {
			cp := w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) CountWalletsByUser(userID uint) (int64, error) {
	var n int64
	for _, w := range f.wallets {
		if w.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedgerRepo) UpdateWallet(w *models.Wallet) error {
	if _, ok := f.wallets[w.ID]; !ok {
		return repositories.ErrWalletNotFound
	}
	f.wallets[w.ID] = *w
	return nil
}

func (f *fakeLedgerRepo) UpdateWalletStatus(id uint, status, reason string) error {
	w, ok := f.wallets[id]
	if !ok {
		return repositories.ErrWalletNotFound
	}
	w.Status = status
	w.StatusReason = reason
	f.wallets[id] = w
	return nil
}

func (f *fakeLedgerRepo) LockWallets(ids ...uint) (map[uint]*models.Wallet, error) {
	out := make(map[uint]*models.Wallet, len(ids))
	for _, id := range ids {
		w, ok := f.wallets[id]
		if !ok {
			return nil, repositories.ErrWalletNotFound
		}
		cp := w
		out[id] = &cp
	}
	return out, nil
}

func (f *fakeLedgerRepo) CreateEntry(e *models.JournalEntry) error {
	return f.CreateEntries([]*models.JournalEntry{e})
}

func (f *fakeLedgerRepo) CreateEntries(entries []*models.JournalEntry) error {
	for _, e := range entries {
		for _, existing := range f.entries {
			if existing.Reference == e.Reference && existing.Leg == e.Leg {
				return repositories.ErrDuplicateReference
			}
		}
	}
	for _, e := range entries {
		e.ID = f.nextID
		f.nextID++
		e.CreatedAt = time.Now()
		f.entries = append(f.entries, *e)
	}
	return nil
}

func (f *fakeLedgerRepo) GetEntryByReference(reference, leg string) (*models.JournalEntry, error) {
	for _, e := range f.entries {
		if e.Reference == reference && e.Leg == leg {
			cp := e
			return &cp, nil
		}
	}
	return nil, repositories.ErrEntryNotFound
}

func (f *fakeLedgerRepo) GetEntriesByReference(reference string) ([]*models.JournalEntry, error) {
	var out []*models.JournalEntry
	for _, e := range f.entries {
		if e.Reference == reference {
			cp := e
			out = append(out, &cp)
		}
	}
	if len(out) == 0 {
		return nil, repositories.ErrEntryNotFound
	}
	return out, nil
}

func (f *fakeLedgerRepo) UpdateEntry(e *models.JournalEntry) error {
	for i := range f.entries {
		if f.entries[i].ID == e.ID {
			f.entries[i] = *e
			return nil
		}
	}
	return repositories.ErrEntryNotFound
}

func (f *fakeLedgerRepo) ListEntriesByWallet(ctx context.Context, walletID uint, limit, offset int) ([]*models.JournalEntry, error) {
	var out []*models.JournalEntry
	for _, e := range f.entries {
		if e.WalletID == walletID {
			cp := e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) ListEntriesByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.JournalEntry, error) {
	var out []*models.JournalEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			cp := e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) ListPendingEntries(journalType string, olderThan time.Time, limit int) ([]*models.JournalEntry, error) {
	var out []*models.JournalEntry
	for _, e := range f.entries {
		if e.Type == journalType && e.Status == models.JournalStatusPending {
			cp := e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) ExecuteInTransaction(fn func(repositories.LedgerRepository) error) error {
	walletSnap := make(map[uint]models.Wallet, len(f.wallets))
	for k, v := range f.wallets {
		walletSnap[k] = v
	}
	entrySnap := make([]models.JournalEntry, len(f.entries))
	copy(entrySnap, f.entries)
	idSnap := f.nextID

	if err := fn(f); err != nil {
		f.wallets = walletSnap
		f.entries = entrySnap
		f.nextID = idSnap
		return err
	}
	return nil
}

func money(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func activeWallet(id, userID uint, currency, balance string) models.Wallet {
	w := models.Wallet{
		UserID:   userID,
		Currency: currency,
		Balance:  money(balance),
		Status:   models.WalletStatusActive,
	}
	w.ID = id
	return w
}

func TestDebitCredit(t *testing.T) {
	ctx := context.Background()

	t.Run("moves funds and writes both legs", func(t *testing.T) {
		repo := newFakeLedgerRepo(
			activeWallet(1, 10, "NGN", "500.00"),
			activeWallet(2, 20, "NGN", "25.00"),
		)
		svc := NewService(repo, nil, Config{}, nil)

		entries, err := svc.DebitCredit(ctx, TransferParams{
			FromWalletID: 1,
			ToWalletID:   2,
			Amount:       money("100.00"),
			Fee:          money("2.50"),
			Reference:    "TRF_1",
		})
		require.NoError(t, err)
		require.Len(t, entries, 2)

		from, _ := repo.GetWallet(1)
		to, _ := repo.GetWallet(2)
		assert.True(t, from.Balance.Equal(money("397.50")), "got %s", from.Balance)
		assert.True(t, to.Balance.Equal(money("125.00")), "got %s", to.Balance)

		debit, credit := entries[0], entries[1]
		assert.Equal(t, models.LegDebit, debit.Leg)
		assert.Equal(t, models.LegCredit, credit.Leg)
		assert.Equal(t, debit.Reference, credit.Reference)
		assert.True(t, debit.BalanceBefore.Equal(money("500.00")))
		assert.True(t, debit.BalanceAfter.Equal(money("397.50")))
		assert.True(t, credit.BalanceBefore.Equal(money("25.00")))
		assert.True(t, credit.BalanceAfter.Equal(money("125.00")))
	})

	t.Run("insufficient funds covers amount plus fee", func(t *testing.T) {
		repo := newFakeLedgerRepo(
			activeWallet(1, 10, "NGN", "100.00"),
			activeWallet(2, 20, "NGN", "0.00"),
		)
		svc := NewService(repo, nil, Config{}, nil)

		_, err := svc.DebitCredit(ctx, TransferParams{
			FromWalletID: 1,
			ToWalletID:   2,
			Amount:       money("100.00"),
			Fee:          money("0.01"),
			Reference:    "TRF_2",
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		from, _ := repo.GetWallet(1)
		assert.True(t, from.Balance.Equal(money("100.00")))
		assert.Empty(t, repo.entries)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		repo := newFakeLedgerRepo(
			activeWallet(1, 10, "NGN", "100.00"),
			activeWallet(2, 20, "USD", "0.00"),
		)
		svc := NewService(repo, nil, Config{}, nil)

		_, err := svc.DebitCredit(ctx, TransferParams{
			FromWalletID: 1, ToWalletID: 2,
			Amount: money("10.00"), Reference: "TRF_3",
		})
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
	})

	t.Run("same owner rejected", func(t *testing.T) {
		repo := newFakeLedgerRepo(
			activeWallet(1, 10, "NGN", "100.00"),
			activeWallet(2, 10, "GHS", "0.00"),
		)
		svc := NewService(repo, nil, Config{}, nil)

		_, err := svc.DebitCredit(ctx, TransferParams{
			FromWalletID: 1, ToWalletID: 2,
			Amount: money("10.00"), Reference: "TRF_4",
		})
		assert.ErrorIs(t, err, ErrSelfTransfer)
	})

	t.Run("locked wallet rejected", func(t *testing.T) {
		locked := activeWallet(1, 10, "NGN", "100.00")
		locked.Status = models.WalletStatusLocked
		repo := newFakeLedgerRepo(locked, activeWallet(2, 20, "NGN", "0.00"))
		svc := NewService(repo, nil, Config{}, nil)

		_, err := svc.DebitCredit(ctx, TransferParams{
			FromWalletID: 1, ToWalletID: 2,
			Amount: money("10.00"), Reference: "TRF_5",
		})
		assert.ErrorIs(t, err, ErrWalletLocked)
	})

	t.Run("duplicate reference rejected and nothing moves", func(t *testing.T) {
		repo := newFakeLedgerRepo(
			activeWallet(1, 10, "NGN", "500.00"),
			activeWallet(2, 20, "NGN", "0.00"),
		)
		svc := NewService(repo, nil, Config{}, nil)

		_, err := svc.DebitCredit(ctx, TransferParams{
			FromWalletID: 1, ToWalletID: 2,
			Amount: money("10.00"), Reference: "TRF_6",
		})
		require.NoError(t, err)

		_, err = svc.DebitCredit(ctx, TransferParams{
			FromWalletID: 1, ToWalletID: 2,
			Amount: money("10.00"), Reference: "TRF_6",
		})
		assert.ErrorIs(t, err, ErrDuplicateReference)

		from, _ := repo.GetWallet(1)
		assert.True(t, from.Balance.Equal(money("490.00")))
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		repo := newFakeLedgerRepo()
		svc := NewService(repo, nil, Config{}, nil)

		_, err := svc.DebitCredit(ctx, TransferParams{
			FromWalletID: 1, ToWalletID: 2,
			Amount: decimal.Zero, Reference: "TRF_7",
		})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestExternalDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("open leaves balance untouched", func(t *testing.T) {
		repo := newFakeLedgerRepo(activeWallet(1, 10, "NGN", "50.00"))
		svc := NewService(repo, nil, Config{}, nil)

		entry, err := svc.OpenExternalDeposit(ctx, ExternalParams{
			WalletID: 1, Amount: money("100.00"),
			Reference: "DEP_1", Gateway: "coralpay",
		})
		require.NoError(t, err)
		assert.Equal(t, models.JournalStatusPending, entry.Status)
		assert.True(t, entry.BalanceBefore.Equal(entry.BalanceAfter))

		w, _ := repo.GetWallet(1)
		assert.True(t, w.Balance.Equal(money("50.00")))
	})

	t.Run("settlement credits the confirmed amount", func(t *testing.T) {
		repo := newFakeLedgerRepo(activeWallet(1, 10, "NGN", "0.00"))
		svc := NewService(repo, nil, Config{}, nil)

		_, err := svc.OpenExternalDeposit(ctx, ExternalParams{
			WalletID: 1, Amount: money("100.00"), Reference: "DEP_2", Gateway: "coralpay",
		})
		require.NoError(t, err)

		// Gateway confirms 95 for a requested 100.
		err = svc.SettleExternalDeposit(ctx, "DEP_2", true, money("95.00"))
		require.NoError(t, err)

		w, _ := repo.GetWallet(1)
		assert.True(t, w.Balance.Equal(money("95.00")), "got %s", w.Balance)

		entry, _ := repo.GetEntryByReference("DEP_2", models.LegSingle)
		assert.Equal(t, models.JournalStatusSuccess, entry.Status)
		assert.True(t, entry.Amount.Equal(money("95.00")))
	})

	t.Run("success without a confirmed amount is rejected", func(t *testing.T) {
		repo := newFakeLedgerRepo(activeWallet(1, 10, "NGN", "0.00"))
		svc := NewService(repo, nil, Config{}, nil)

		_, err := svc.OpenExternalDeposit(ctx, ExternalParams{
			WalletID: 1, Amount: money("100.00"), Reference: "DEP_9", Gateway: "coralpay",
		})
		require.NoError(t, err)

		err = svc.SettleExternalDeposit(ctx, "DEP_9", true, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		w, _ := repo.GetWallet(1)
		assert.True(t, w.Balance.IsZero())

		entry, _ := repo.GetEntryByReference("DEP_9", models.LegSingle)
		assert.Equal(t, models.JournalStatusPending, entry.Status)
	})

	t.Run("failed settlement credits nothing", func(t *testing.T) {
		repo := newFakeLedgerRepo(activeWallet(1, 10, "NGN", "0.00"))
		svc := NewService(repo, nil, Config{}, nil)

		_, err := svc.OpenExternalDeposit(ctx, ExternalParams{
			WalletID: 1, Amount: money("100.00"), Reference: "DEP_3", Gateway: "coralpay",
		})
		require.NoError(t, err)

		require.NoError(t, svc.SettleExternalDeposit(ctx, "DEP_3", false, decimal.Zero))

		w, _ := repo.GetWallet(1)
		assert.True(t, w.Balance.IsZero())

		entry, _ := repo.GetEntryByReference("DEP_3", models.LegSingle)
		assert.Equal(t, models.JournalStatusFailed, entry.Status)
	})

	t.Run("replaying the same outcome is a no-op", func(t *testing.T) {
		repo := newFakeLedgerRepo(activeWallet(1, 10, "NGN", "0.00"))
		svc := NewService(repo, nil, Config{}, nil)

		_, err := svc.OpenExternalDeposit(ctx, ExternalParams{
			WalletID: 1, Amount: money("100.00"), Reference: "DEP_4", Gateway: "coralpay",
		})
		require.NoError(t, err)

		require.NoError(t, svc.SettleExternalDeposit(ctx, "DEP_4", true, money("100.00")))
		require.NoError(t, svc.SettleExternalDeposit(ctx, "DEP_4", true, money("100.00")))

		w, _ := repo.GetWallet(1)
		assert.True(t, w.Balance.Equal(money("100.00")), "credited once, got %s", w.Balance)
	})

	t.Run("conflicting outcome after settlement", func(t *testing.T) {
		repo := newFakeLedgerRepo(activeWallet(1, 10, "NGN", "0.00"))
		svc := NewService(repo, nil, Config{}, nil)

		_, err := svc.OpenExternalDeposit(ctx, ExternalParams{
			WalletID: 1, Amount: money("100.00"), Reference: "DEP_5", Gateway: "coralpay",
		})
		require.NoError(t, err)

		require.NoError(t, svc.SettleExternalDeposit(ctx, "DEP_5", true, money("100.00")))
		err = svc.SettleExternalDeposit(ctx, "DEP_5", false, decimal.Zero)
		assert.ErrorIs(t, err, ErrAlreadySettled)
	})

	t.Run("unknown reference", func(t *testing.T) {
		repo := newFakeLedgerRepo()
		svc := NewService(repo, nil, Config{}, nil)

		err := svc.SettleExternalDeposit(ctx, "DEP_MISSING", true, money("10.00"))
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})
}

func TestWithdrawToExternal(t *testing.T) {
	ctx := context.Background()

	t.Run("pre-debits amount plus fee and opens pending entry", func(t *testing.T) {
		repo := newFakeLedgerRepo(activeWallet(1, 10, "NGN", "500.00"))
		svc := NewService(repo, nil, Config{}, nil)

		entry, err := svc.WithdrawToExternal(ctx, ExternalParams{
			WalletID: 1, Amount: money("200.00"), Fee: money("10.00"),
			Reference: "WDR_1", Gateway: "paystack",
		}, func(ctx context.Context) error { return nil })
		require.NoError(t, err)
		assert.Equal(t, models.JournalStatusPending, entry.Status)
		assert.True(t, entry.BalanceAfter.Equal(money("290.00")))

		w, _ := repo.GetWallet(1)
		assert.True(t, w.Balance.Equal(money("290.00")))
	})

	t.Run("gateway failure rolls back the debit", func(t *testing.T) {
		repo := newFakeLedgerRepo(activeWallet(1, 10, "NGN", "500.00"))
		svc := NewService(repo, nil, Config{}, nil)

		_, err := svc.WithdrawToExternal(ctx, ExternalParams{
			WalletID: 1, Amount: money("200.00"), Fee: money("10.00"),
			Reference: "WDR_2", Gateway: "paystack",
		}, func(ctx context.Context) error {
			return fmt.Errorf("initiate transfer: %w", ErrGatewayUnavailable)
		})
		assert.ErrorIs(t, err, ErrGatewayUnavailable)

		w, _ := repo.GetWallet(1)
		assert.True(t, w.Balance.Equal(money("500.00")), "debit must not survive, got %s", w.Balance)

		_, err = repo.GetEntryByReference("WDR_2", models.LegSingle)
		assert.Error(t, err)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		repo := newFakeLedgerRepo(activeWallet(1, 10, "NGN", "100.00"))
		svc := NewService(repo, nil, Config{}, nil)

		_, err := svc.WithdrawToExternal(ctx, ExternalParams{
			WalletID: 1, Amount: money("100.00"), Fee: money("10.00"),
			Reference: "WDR_3", Gateway: "paystack",
		}, nil)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})
}

func TestSettleExternalWithdrawal(t *testing.T) {
	ctx := context.Background()

	openWithdrawal := func(t *testing.T, repo *fakeLedgerRepo, svc Service, ref string) {
		t.Helper()
		_, err := svc.WithdrawToExternal(ctx, ExternalParams{
			WalletID: 1, Amount: money("200.00"), Fee: money("10.00"),
			Reference: ref, Gateway: "paystack",
		}, nil)
		require.NoError(t, err)
	}

	t.Run("success finalizes the entry", func(t *testing.T) {
		repo := newFakeLedgerRepo(activeWallet(1, 10, "NGN", "500.00"))
		svc := NewService(repo, nil, Config{}, nil)
		openWithdrawal(t, repo, svc, "WDR_4")

		require.NoError(t, svc.SettleExternalWithdrawal(ctx, "WDR_4", true))

		entry, _ := repo.GetEntryByReference("WDR_4", models.LegSingle)
		assert.Equal(t, models.JournalStatusSuccess, entry.Status)

		w, _ := repo.GetWallet(1)
		assert.True(t, w.Balance.Equal(money("290.00")))
	})

	t.Run("failure refunds amount plus fee", func(t *testing.T) {
		repo := newFakeLedgerRepo(activeWallet(1, 10, "NGN", "500.00"))
		svc := NewService(repo, nil, Config{}, nil)
		openWithdrawal(t, repo, svc, "WDR_5")

		require.NoError(t, svc.SettleExternalWithdrawal(ctx, "WDR_5", false))

		entry, _ := repo.GetEntryByReference("WDR_5", models.LegSingle)
		assert.Equal(t, models.JournalStatusFailed, entry.Status)

		w, _ := repo.GetWallet(1)
		assert.True(t, w.Balance.Equal(money("500.00")), "got %s", w.Balance)
	})

	t.Run("refund replay stays settled once", func(t *testing.T) {
		repo := newFakeLedgerRepo(activeWallet(1, 10, "NGN", "500.00"))
		svc := NewService(repo, nil, Config{}, nil)
		openWithdrawal(t, repo, svc, "WDR_6")

		require.NoError(t, svc.SettleExternalWithdrawal(ctx, "WDR_6", false))
		require.NoError(t, svc.SettleExternalWithdrawal(ctx, "WDR_6", false))

		w, _ := repo.GetWallet(1)
		assert.True(t, w.Balance.Equal(money("500.00")), "refunded once, got %s", w.Balance)
	})
}

type spyMetrics struct {
	durations map[string]int
	results   map[string]string
	changes   []uint
	volumes   []string
	errs      []string
}

func newSpyMetrics() *spyMetrics {
	return &spyMetrics{durations: make(map[string]int), results: make(map[string]string)}
}

func (m *spyMetrics) RecordOperationDuration(operation string, d time.Duration) {
	m.durations[operation]++
}

func (m *spyMetrics) RecordOperationResult(operation, result string) {
	m.results[operation] = result
}

func (m *spyMetrics) RecordBalanceChange(walletID uint, oldBalance, newBalance decimal.Decimal) {
	m.changes = append(m.changes, walletID)
}

func (m *spyMetrics) RecordError(operation, errType string) {
	m.errs = append(m.errs, operation)
}

func (m *spyMetrics) RecordMovementVolume(journalType string, amount decimal.Decimal) {
	m.volumes = append(m.volumes, journalType)
}

func TestMovementMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("transfer records duration, result and both balances", func(t *testing.T) {
		metrics := newSpyMetrics()
		repo := newFakeLedgerRepo(
			activeWallet(1, 10, "NGN", "100.00"),
			activeWallet(2, 20, "NGN", "0.00"),
		)
		svc := NewService(repo, nil, Config{}, metrics)

		_, err := svc.DebitCredit(ctx, TransferParams{
			FromWalletID: 1, ToWalletID: 2,
			Amount: money("25.00"), Reference: "TRF_M1",
		})
		require.NoError(t, err)

		assert.Equal(t, 1, metrics.durations["debit_credit"])
		assert.Equal(t, "success", metrics.results["debit_credit"])
		assert.Equal(t, []uint{1, 2}, metrics.changes)
		assert.Equal(t, []string{models.JournalTypeTransfer}, metrics.volumes)
	})

	t.Run("rejected transfer records a failure", func(t *testing.T) {
		metrics := newSpyMetrics()
		repo := newFakeLedgerRepo(
			activeWallet(1, 10, "NGN", "1.00"),
			activeWallet(2, 20, "NGN", "0.00"),
		)
		svc := NewService(repo, nil, Config{}, metrics)

		_, err := svc.DebitCredit(ctx, TransferParams{
			FromWalletID: 1, ToWalletID: 2,
			Amount: money("25.00"), Reference: "TRF_M2",
		})
		require.ErrorIs(t, err, ErrInsufficientFunds)

		assert.Equal(t, "failure", metrics.results["debit_credit"])
		assert.Empty(t, metrics.changes)
		assert.NotEmpty(t, metrics.errs)
	})

	t.Run("deposit settlement records the credited balance change", func(t *testing.T) {
		metrics := newSpyMetrics()
		repo := newFakeLedgerRepo(activeWallet(1, 10, "NGN", "0.00"))
		svc := NewService(repo, nil, Config{}, metrics)

		_, err := svc.OpenExternalDeposit(ctx, ExternalParams{
			WalletID: 1, Amount: money("100.00"), Reference: "DEP_M1", Gateway: "coralpay",
		})
		require.NoError(t, err)
		require.NoError(t, svc.SettleExternalDeposit(ctx, "DEP_M1", true, money("100.00")))

		assert.Equal(t, 1, metrics.durations["open_deposit"])
		assert.Equal(t, "success", metrics.results["settle_deposit"])
		assert.Equal(t, []uint{1}, metrics.changes)
	})
}
