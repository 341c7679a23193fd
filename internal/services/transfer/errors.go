package transfer

import (
	"errors"

	"kobo/internal/services/ledger"
	"kobo/internal/services/wallet"
)

// Coordinator errors. Pin, balance and wallet failures keep the
// sentinels of the services that own them so handlers map them once.
var (
	ErrOTPInvalid     = errors.New("invalid otp")
	ErrOTPExpired     = errors.New("otp expired")
	ErrOTPAlreadyUsed = errors.New("otp already used")

	ErrRecipientNotFound  = errors.New("recipient not found")
	ErrInsufficientFunds  = ledger.ErrInsufficientFunds
	ErrSelfTransfer       = ledger.ErrSelfTransfer
	ErrGatewayUnavailable = ledger.ErrGatewayUnavailable
	ErrPinInvalid         = wallet.ErrPinInvalid
	ErrPinNotSet          = wallet.ErrPinNotSet
)
