package reconcile

import (
	"context"
	"testing"
	"time"

	"kobo/internal/models"
	"kobo/internal/services/gateway"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	entries []*models.JournalEntry
	err     error
}

func (f *fakeLister) ListPendingEntries(journalType string, olderThan time.Time, limit int) ([]*models.JournalEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func TestSweeper(t *testing.T) {
	ctx := context.Background()

	t.Run("settles stale pending deposits", func(t *testing.T) {
		engine := &fakeEngine{}
		gw := &stubGateway{verify: &gateway.VerifyResult{
			Reference: "DEP_1",
			Succeeded: true,
			Amount:    decimal.RequireFromString("40.00"),
		}}
		lister := &fakeLister{entries: []*models.JournalEntry{
			{Reference: "DEP_1", Gateway: "mockpay", Status: models.JournalStatusPending},
		}}

		sweeper := NewSweeper(NewService(engine, gateway.NewRegistry(gw)), lister, 0, 0, 0)
		sweeper.SweepOnce(ctx)

		require.Len(t, engine.deposits, 1)
		assert.Equal(t, "DEP_1", engine.deposits[0].reference)
		assert.True(t, engine.deposits[0].amount.Equal(decimal.RequireFromString("40.00")))
	})

	t.Run("one failing poll does not stop the batch", func(t *testing.T) {
		engine := &fakeEngine{}
		gw := &stubGateway{verify: &gateway.VerifyResult{Succeeded: true, Amount: decimal.RequireFromString("10.00")}}
		lister := &fakeLister{entries: []*models.JournalEntry{
			{Reference: "DEP_1", Gateway: "nopay", Status: models.JournalStatusPending},
			{Reference: "DEP_2", Gateway: "mockpay", Status: models.JournalStatusPending},
		}}

		sweeper := NewSweeper(NewService(engine, gateway.NewRegistry(gw)), lister, 0, 0, 0)
		sweeper.SweepOnce(ctx)

		require.Len(t, engine.deposits, 1)
		assert.Equal(t, "DEP_2", engine.deposits[0].reference)
	})

	t.Run("entries without a gateway are skipped", func(t *testing.T) {
		engine := &fakeEngine{}
		lister := &fakeLister{entries: []*models.JournalEntry{
			{Reference: "DEP_1", Status: models.JournalStatusPending},
		}}

		sweeper := NewSweeper(NewService(engine, gateway.NewRegistry()), lister, 0, 0, 0)
		sweeper.SweepOnce(ctx)

		assert.Empty(t, engine.deposits)
	})
}
