package transfer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/services/gateway"
	"kobo/internal/services/ledger"
	"kobo/internal/services/wallet"
	"kobo/internal/utils"
	"kobo/internal/validation"

	"github.com/shopspring/decimal"
)

// Service is the OTP-gated coordinator. Every money-moving operation
// runs in two phases: request (validate, stage an intent, send a code)
// and confirm (validate the code, re-check preconditions, execute).
type Service interface {
	RequestTransfer(ctx context.Context, userID uint, req TransferRequest) (*IntentReceipt, error)
	ConfirmTransfer(ctx context.Context, userID uint, conf Confirmation) ([]*models.JournalEntry, error)

	RequestDeposit(ctx context.Context, userID uint, req DepositRequest) (*IntentReceipt, error)
	ConfirmDeposit(ctx context.Context, userID uint, conf Confirmation) (*DepositReceipt, error)

	RequestWithdrawal(ctx context.Context, userID uint, req WithdrawalRequest) (*IntentReceipt, error)
	ConfirmWithdrawal(ctx context.Context, userID uint, conf Confirmation) (*models.JournalEntry, error)

	RequestPinChange(ctx context.Context, userID uint, currency string) (*IntentReceipt, error)
	ConfirmPinChange(ctx context.Context, userID uint, currency, code, newPin string) error
}

type service struct {
	wallets wallet.Service
	engine  ledger.Service
	intents repositories.IntentRepository
	gw      *gateway.Registry
	sender  OTPSender
	config  Config
	now     func() time.Time
}

// NewService creates a new coordinator.
func NewService(
	wallets wallet.Service,
	engine ledger.Service,
	intents repositories.IntentRepository,
	gw *gateway.Registry,
	sender OTPSender,
	config Config,
) Service {
	if wallets == nil {
		panic("wallet service is required")
	}
	if engine == nil {
		panic("ledger engine is required")
	}
	if intents == nil {
		panic("intent repository is required")
	}

	if config.OTPTTL == 0 {
		config.OTPTTL = 5 * time.Minute
	}
	if config.OTPDigits == 0 {
		config.OTPDigits = 6
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 3
	}
	if sender == nil {
		sender = LogOTPSender{}
	}

	return &service{
		wallets: wallets,
		engine:  engine,
		intents: intents,
		gw:      gw,
		sender:  sender,
		config:  config,
		now:     time.Now,
	}
}

func (s *service) RequestTransfer(ctx context.Context, userID uint, req TransferRequest) (*IntentReceipt, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ledger.ErrInvalidAmount
	}

	w, err := s.wallets.GetWallet(ctx, userID, req.Currency)
	if err != nil {
		return nil, err
	}
	if err := s.wallets.VerifyPin(ctx, w, req.Pin); err != nil {
		return nil, err
	}

	recipient, err := s.wallets.ResolveRecipient(ctx, req.RecipientTag, w.Currency)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}
	if recipient.UserID == userID {
		return nil, ErrSelfTransfer
	}

	total := req.Amount.Add(s.config.TransferFee)
	if w.Balance.LessThan(total) {
		return nil, ErrInsufficientFunds
	}

	return s.stageIntent(ctx, userID, w.ID, models.IntentOpTransfer, models.JSON{
		"recipient_wallet_id": recipient.ID,
		"amount":              req.Amount.String(),
		"fee":                 s.config.TransferFee.String(),
		"note":                req.Note,
	})
}

func (s *service) ConfirmTransfer(ctx context.Context, userID uint, conf Confirmation) ([]*models.JournalEntry, error) {
	w, err := s.wallets.GetWallet(ctx, userID, conf.Currency)
	if err != nil {
		return nil, err
	}

	// The pin is re-verified before the code is claimed; a wrong pin
	// must not burn a live code.
	if err := s.wallets.VerifyPin(ctx, w, conf.Pin); err != nil {
		return nil, err
	}

	intent, err := s.consumeCode(w.ID, models.IntentOpTransfer, conf.Code)
	if err != nil {
		return nil, err
	}

	amount := paramDecimal(intent.Params, "amount")
	fee := paramDecimal(intent.Params, "fee")
	recipientID := paramUint(intent.Params, "recipient_wallet_id")
	if _, err := s.wallets.GetWalletByID(ctx, recipientID); err != nil {
		return nil, s.failIntent(intent, ErrRecipientNotFound)
	}

	entries, err := s.engine.DebitCredit(ctx, ledger.TransferParams{
		FromWalletID: w.ID,
		ToWalletID:   recipientID,
		Amount:       amount,
		Fee:          fee,
		Reference:    utils.GenerateReference("trf"),
		Note:         intent.Params.String("note"),
	})
	if err != nil {
		return nil, s.failIntent(intent, err)
	}

	return entries, nil
}

func (s *service) RequestDeposit(ctx context.Context, userID uint, req DepositRequest) (*IntentReceipt, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ledger.ErrInvalidAmount
	}
	if s.gw != nil {
		if _, err := s.gw.Get(req.Gateway); err != nil {
			return nil, err
		}
	}

	w, err := s.wallets.GetWallet(ctx, userID, req.Currency)
	if err != nil {
		return nil, err
	}

	return s.stageIntent(ctx, userID, w.ID, models.IntentOpFund, models.JSON{
		"amount":  req.Amount.String(),
		"gateway": req.Gateway,
		"channel": req.Channel,
	})
}

func (s *service) ConfirmDeposit(ctx context.Context, userID uint, conf Confirmation) (*DepositReceipt, error) {
	w, err := s.wallets.GetWallet(ctx, userID, conf.Currency)
	if err != nil {
		return nil, err
	}

	intent, err := s.consumeCode(w.ID, models.IntentOpFund, conf.Code)
	if err != nil {
		return nil, err
	}

	gatewayName := intent.Params.String("gateway")
	gw, err := s.gw.Get(gatewayName)
	if err != nil {
		return nil, s.failIntent(intent, err)
	}

	amount := paramDecimal(intent.Params, "amount")
	reference := utils.GenerateReference("dep")

	result, err := gw.InvokePayment(ctx, gateway.InvokeRequest{
		Reference: reference,
		Amount:    amount,
		Currency:  w.Currency,
		Channel:   intent.Params.String("channel"),
	})
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			err = ErrGatewayUnavailable
		}
		return nil, s.failIntent(intent, err)
	}

	if _, err := s.engine.OpenExternalDeposit(ctx, ledger.ExternalParams{
		WalletID:  w.ID,
		Amount:    amount,
		Reference: reference,
		Gateway:   gatewayName,
	}); err != nil {
		return nil, s.failIntent(intent, err)
	}

	return &DepositReceipt{
		Reference: reference,
		PayLink:   result.PayLink,
		Gateway:   gatewayName,
	}, nil
}

func (s *service) RequestWithdrawal(ctx context.Context, userID uint, req WithdrawalRequest) (*IntentReceipt, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ledger.ErrInvalidAmount
	}
	if s.gw != nil {
		if _, err := s.gw.Get(req.Gateway); err != nil {
			return nil, err
		}
	}

	w, err := s.wallets.GetWallet(ctx, userID, req.Currency)
	if err != nil {
		return nil, err
	}
	if err := s.wallets.VerifyPin(ctx, w, req.Pin); err != nil {
		return nil, err
	}

	total := req.Amount.Add(s.config.WithdrawalFee)
	if w.Balance.LessThan(total) {
		return nil, ErrInsufficientFunds
	}

	return s.stageIntent(ctx, userID, w.ID, models.IntentOpWithdraw, models.JSON{
		"amount":         req.Amount.String(),
		"fee":            s.config.WithdrawalFee.String(),
		"gateway":        req.Gateway,
		"bank_code":      req.BankCode,
		"account_number": req.AccountNumber,
	})
}

func (s *service) ConfirmWithdrawal(ctx context.Context, userID uint, conf Confirmation) (*models.JournalEntry, error) {
	w, err := s.wallets.GetWallet(ctx, userID, conf.Currency)
	if err != nil {
		return nil, err
	}

	if err := s.wallets.VerifyPin(ctx, w, conf.Pin); err != nil {
		return nil, err
	}

	intent, err := s.consumeCode(w.ID, models.IntentOpWithdraw, conf.Code)
	if err != nil {
		return nil, err
	}

	gatewayName := intent.Params.String("gateway")
	gw, err := s.gw.Get(gatewayName)
	if err != nil {
		return nil, s.failIntent(intent, err)
	}

	bankCode := intent.Params.String("bank_code")
	accountNumber := intent.Params.String("account_number")
	account, err := gw.ResolveAccount(ctx, bankCode, accountNumber)
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			err = ErrGatewayUnavailable
		}
		return nil, s.failIntent(intent, err)
	}

	amount := paramDecimal(intent.Params, "amount")
	fee := paramDecimal(intent.Params, "fee")
	reference := utils.GenerateReference("wdr")

	entry, err := s.engine.WithdrawToExternal(ctx, ledger.ExternalParams{
		WalletID:  w.ID,
		Amount:    amount,
		Fee:       fee,
		Reference: reference,
		Gateway:   gatewayName,
	}, func(ctx context.Context) error {
		_, err := gw.InitTransfer(ctx, gateway.TransferRequest{
			Reference:     reference,
			Amount:        amount,
			Currency:      w.Currency,
			BankCode:      account.BankCode,
			AccountNumber: account.AccountNumber,
			AccountName:   account.AccountName,
			Narration:     "wallet withdrawal",
		})
		if errors.Is(err, gateway.ErrUnavailable) {
			return ErrGatewayUnavailable
		}
		return err
	})
	if err != nil {
		return nil, s.failIntent(intent, err)
	}

	return entry, nil
}

func (s *service) RequestPinChange(ctx context.Context, userID uint, currency string) (*IntentReceipt, error) {
	w, err := s.wallets.GetWallet(ctx, userID, currency)
	if err != nil {
		return nil, err
	}
	return s.stageIntent(ctx, userID, w.ID, models.IntentOpPinReset, models.JSON{})
}

func (s *service) ConfirmPinChange(ctx context.Context, userID uint, currency, code, newPin string) error {
	if !validation.IsPin(newPin) {
		return ErrPinInvalid
	}

	w, err := s.wallets.GetWallet(ctx, userID, currency)
	if err != nil {
		return err
	}

	intent, err := s.consumeCode(w.ID, models.IntentOpPinReset, code)
	if err != nil {
		return err
	}

	if err := s.wallets.ResetPin(ctx, w.ID, newPin); err != nil {
		return s.failIntent(intent, err)
	}

	return nil
}

// stageIntent generates a code, replaces any prior intent for the
// same (wallet, operation) and hands the code to the sender.
func (s *service) stageIntent(ctx context.Context, userID, walletID uint, operation string, params models.JSON) (*IntentReceipt, error) {
	code, err := utils.GenerateOTP(s.config.OTPDigits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp: %w", err)
	}

	expiry := s.now().Add(s.config.OTPTTL)
	intent := &models.PendingIntent{
		WalletID:  walletID,
		UserID:    userID,
		Operation: operation,
		Status:    models.IntentStatusOTPSent,
		OTPCode:   code,
		OTPExpiry: expiry,
		Params:    params,
	}
	if err := s.intents.Replace(intent); err != nil {
		return nil, fmt.Errorf("failed to stage intent: %w", err)
	}

	if err := s.sender.Send(ctx, userID, operation, code); err != nil {
		return nil, fmt.Errorf("failed to send otp: %w", err)
	}

	return &IntentReceipt{Operation: operation, ExpiresAt: expiry}, nil
}

// consumeCode validates a code against the staged intent and claims it
// with a conditional otp_sent -> confirmed write, so exactly one
// confirmation can reach the money movement. Confirmed intents stay on
// record so a replayed code is distinguishable from a wrong one.
func (s *service) consumeCode(walletID uint, operation, code string) (*models.PendingIntent, error) {
	intent, err := s.intents.Get(walletID, operation)
	if err != nil {
		if errors.Is(err, repositories.ErrIntentNotFound) {
			return nil, ErrOTPInvalid
		}
		return nil, fmt.Errorf("failed to load intent: %w", err)
	}

	switch intent.Status {
	case models.IntentStatusConfirmed:
		return nil, ErrOTPAlreadyUsed
	case models.IntentStatusExpired, models.IntentStatusAbandoned:
		return nil, ErrOTPInvalid
	}

	if intent.ExpiredAt(s.now()) {
		intent.Status = models.IntentStatusExpired
		if err := s.intents.Update(intent); err != nil {
			return nil, fmt.Errorf("failed to expire intent: %w", err)
		}
		return nil, ErrOTPExpired
	}

	if intent.OTPCode != code {
		intent.Attempts++
		if intent.Attempts >= s.config.MaxAttempts {
			intent.Status = models.IntentStatusAbandoned
		}
		if err := s.intents.Update(intent); err != nil {
			return nil, fmt.Errorf("failed to record attempt: %w", err)
		}
		return nil, ErrOTPInvalid
	}

	if err := s.intents.Consume(intent.ID); err != nil {
		if errors.Is(err, repositories.ErrIntentConsumed) {
			return nil, ErrOTPAlreadyUsed
		}
		return nil, fmt.Errorf("failed to consume intent: %w", err)
	}
	intent.Status = models.IntentStatusConfirmed
	return intent, nil
}

// failIntent settles a claimed intent after a downstream failure. A
// gateway outage reopens it so the same code can be retried; anything
// else abandons it, the request phase starts over.
func (s *service) failIntent(intent *models.PendingIntent, cause error) error {
	if errors.Is(cause, ErrGatewayUnavailable) {
		if err := s.intents.Reopen(intent.ID); err != nil {
			log.Printf("transfer: failed to reopen intent %d: %v", intent.ID, err)
		}
		return cause
	}

	intent.Status = models.IntentStatusAbandoned
	if err := s.intents.Update(intent); err != nil {
		log.Printf("transfer: failed to abandon intent %d: %v", intent.ID, err)
	}
	return cause
}

func paramDecimal(params models.JSON, key string) decimal.Decimal {
	d, err := decimal.NewFromString(params.String(key))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func paramUint(params models.JSON, key string) uint {
	switch v := params[key].(type) {
	case float64:
		return uint(v)
	case uint:
		return v
	case int:
		return uint(v)
	default:
		return 0
	}
}
