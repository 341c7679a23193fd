// Package gateway abstracts external payment processors behind a single
// capability interface. The ledger only ever sees amounts, references
// and success or failure; wire formats stay in here.
package gateway

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrUnavailable    = errors.New("payment gateway unavailable")
	ErrUnsupported    = errors.New("operation not supported by gateway")
	ErrUnknownGateway = errors.New("unknown gateway")
	ErrDeclined       = errors.New("payment declined")
)

// InvokeRequest asks a gateway to collect money from a customer.
type InvokeRequest struct {
	Reference     string
	Amount        decimal.Decimal
	Currency      string
	CustomerName  string
	CustomerEmail string
	Channel       string
}

// InvokeResult carries what the customer needs to complete payment.
type InvokeResult struct {
	Reference string
	TraceID   string
	PayLink   string
}

// VerifyResult is a gateway's answer about a payment's fate.
type VerifyResult struct {
	Reference string
	Succeeded bool
	Pending   bool
	Amount    decimal.Decimal
	Channel   string
}

// TransferRequest asks a gateway to pay out to an external account.
type TransferRequest struct {
	Reference     string
	Amount        decimal.Decimal
	Currency      string
	BankCode      string
	AccountNumber string
	AccountName   string
	Narration     string
}

// TransferResult reports an initiated payout.
type TransferResult struct {
	Reference    string
	TransferCode string
	Pending      bool
}

// BankAccount is a resolved external account.
type BankAccount struct {
	AccountNumber string
	AccountName   string
	BankCode      string
}

// PaymentGateway is the capability a processor must provide. Not every
// processor supports every operation; unsupported ones return
// ErrUnsupported.
type PaymentGateway interface {
	Name() string
	InvokePayment(ctx context.Context, req InvokeRequest) (*InvokeResult, error)
	VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error)
	InitTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	ResolveAccount(ctx context.Context, bankCode, accountNumber string) (*BankAccount, error)
}

// Registry maps gateway names to implementations.
type Registry struct {
	gateways map[string]PaymentGateway
}

func NewRegistry(gateways ...PaymentGateway) *Registry {
	r := &Registry{gateways: make(map[string]PaymentGateway, len(gateways))}
	for _, g := range gateways {
		r.Register(g)
	}
	return r
}

func (r *Registry) Register(g PaymentGateway) {
	r.gateways[strings.ToLower(g.Name())] = g
}

func (r *Registry) Get(name string) (PaymentGateway, error) {
	g, ok := r.gateways[strings.ToLower(name)]
	if !ok {
		return nil, ErrUnknownGateway
	}
	return g, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
