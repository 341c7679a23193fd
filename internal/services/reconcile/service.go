// Package reconcile settles gateway outcomes against the ledger. It
// accepts push callbacks and pull verification, both idempotent, both
// tolerant of at-least-once delivery.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"kobo/internal/services/gateway"
	"kobo/internal/services/ledger"

	"github.com/shopspring/decimal"
)

// Notification is the normalized shape of a gateway callback.
type Notification struct {
	Reference string
	Succeeded bool
	Amount    decimal.Decimal
	Channel   string
	Gateway   string
}

// Service applies gateway outcomes to pending journal entries.
type Service interface {
	HandleDepositCallback(ctx context.Context, n Notification) error
	HandleWithdrawalCallback(ctx context.Context, n Notification) error
	PollDeposit(ctx context.Context, gatewayName, reference string) (*gateway.VerifyResult, error)
}

type service struct {
	engine ledger.Service
	gw     *gateway.Registry
}

// NewService creates a new reconciliation service.
func NewService(engine ledger.Service, gw *gateway.Registry) Service {
	if engine == nil {
		panic("ledger engine is required")
	}
	return &service{
		engine: engine,
		gw:     gw,
	}
}

func (s *service) HandleDepositCallback(ctx context.Context, n Notification) error {
	err := s.engine.SettleExternalDeposit(ctx, n.Reference, n.Succeeded, n.Amount)
	return s.absorb("deposit", n.Reference, err)
}

func (s *service) HandleWithdrawalCallback(ctx context.Context, n Notification) error {
	err := s.engine.SettleExternalWithdrawal(ctx, n.Reference, n.Succeeded)
	return s.absorb("withdrawal", n.Reference, err)
}

// PollDeposit asks the gateway for a payment's fate and settles it the
// same way a push callback would.
func (s *service) PollDeposit(ctx context.Context, gatewayName, reference string) (*gateway.VerifyResult, error) {
	gw, err := s.gw.Get(gatewayName)
	if err != nil {
		return nil, err
	}

	result, err := gw.VerifyPayment(ctx, reference)
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			return nil, ledger.ErrGatewayUnavailable
		}
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}

	// Pending payments settle later, by callback or another poll.
	if result.Pending {
		return result, nil
	}

	if err := s.engine.SettleExternalDeposit(ctx, reference, result.Succeeded, result.Amount); err != nil {
		return nil, s.absorb("deposit", reference, err)
	}
	return result, nil
}

// absorb downgrades delivery noise to a log line. A reference we never
// issued or a repeat of a settled outcome is not a caller error.
func (s *service) absorb(kind, reference string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ledger.ErrEntryNotFound) {
		log.Printf("reconcile: unknown %s reference %q, ignoring", kind, reference)
		return nil
	}
	return err
}
