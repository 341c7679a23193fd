package reconcile

import (
	"context"
	"log"
	"time"

	"kobo/internal/models"
)

// PendingLister feeds the sweeper pending journal entries. Satisfied
// by repositories.LedgerRepository.
type PendingLister interface {
	ListPendingEntries(journalType string, olderThan time.Time, limit int) ([]*models.JournalEntry, error)
}

// Sweeper polls the gateways for deposits whose callback never landed.
// Push delivery is at-least-once but not guaranteed; the sweep is the
// backstop that keeps entries from staying pending forever.
type Sweeper struct {
	svc      Service
	pending  PendingLister
	interval time.Duration
	minAge   time.Duration
	batch    int
}

func NewSweeper(svc Service, pending PendingLister, interval, minAge time.Duration, batch int) *Sweeper {
	if svc == nil {
		panic("reconcile service is required")
	}
	if pending == nil {
		panic("pending lister is required")
	}
	if interval == 0 {
		interval = 5 * time.Minute
	}
	if minAge == 0 {
		minAge = 10 * time.Minute
	}
	if batch <= 0 {
		batch = 50
	}
	return &Sweeper{
		svc:      svc,
		pending:  pending,
		interval: interval,
		minAge:   minAge,
		batch:    batch,
	}
}

// Run sweeps on every tick until the context is canceled. Call in a
// goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce polls one batch of stale pending deposits, logging
// failures and moving on.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	entries, err := s.pending.ListPendingEntries(models.JournalTypeDeposit, time.Now().Add(-s.minAge), s.batch)
	if err != nil {
		log.Printf("reconcile: sweep listing failed: %v", err)
		return
	}

	for _, entry := range entries {
		if entry.Gateway == "" {
			continue
		}
		if _, err := s.svc.PollDeposit(ctx, entry.Gateway, entry.Reference); err != nil {
			log.Printf("reconcile: sweep of %q failed: %v", entry.Reference, err)
		}
	}
}
