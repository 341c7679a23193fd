package gateway

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/paymentintent"
)

// Stripe collects card payments through PaymentIntents. Payouts and
// account resolution go through the bank-oriented gateways instead.
type Stripe struct {
	secretKey string
}

func NewStripe(secretKey string) *Stripe {
	stripe.Key = secretKey
	return &Stripe{secretKey: secretKey}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) InvokePayment(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount.Mul(decimal.NewFromInt(100)).IntPart()),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.AddMetadata("reference", req.Reference)
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, translateStripeError(err)
	}

	return &InvokeResult{
		Reference: req.Reference,
		TraceID:   intent.ID,
		PayLink:   intent.ClientSecret,
	}, nil
}

func (s *Stripe) VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error) {
	// Reference here is the PaymentIntent id handed back at invoke time.
	intent, err := paymentintent.Get(reference, nil)
	if err != nil {
		return nil, translateStripeError(err)
	}

	return &VerifyResult{
		Reference: reference,
		Succeeded: intent.Status == stripe.PaymentIntentStatusSucceeded,
		Pending: intent.Status == stripe.PaymentIntentStatusProcessing ||
			intent.Status == stripe.PaymentIntentStatusRequiresAction ||
			intent.Status == stripe.PaymentIntentStatusRequiresConfirmation ||
			intent.Status == stripe.PaymentIntentStatusRequiresPaymentMethod,
		Amount:  decimal.NewFromInt(intent.Amount).Div(decimal.NewFromInt(100)),
		Channel: "card",
	}, nil
}

func (s *Stripe) InitTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	return nil, ErrUnsupported
}

func (s *Stripe) ResolveAccount(ctx context.Context, bankCode, accountNumber string) (*BankAccount, error) {
	return nil, ErrUnsupported
}

func translateStripeError(err error) error {
	if stripeErr, ok := err.(*stripe.Error); ok {
		switch stripeErr.Type {
		case stripe.ErrorTypeCard:
			return ErrDeclined
		case stripe.ErrorTypeAPIConnection, stripe.ErrorTypeAPI:
			return ErrUnavailable
		}
	}
	return err
}
