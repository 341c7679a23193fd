package ledger

import "errors"

// Service errors
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrSelfTransfer       = errors.New("cannot transfer to own wallet")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrWalletLocked       = errors.New("wallet is locked")
	ErrEntryNotFound      = errors.New("journal entry not found")
	ErrDuplicateReference = errors.New("reference already recorded")
	ErrAlreadySettled     = errors.New("entry already settled")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)
