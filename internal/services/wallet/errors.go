package wallet

import "errors"

// Service errors
var (
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrDuplicateWallet    = errors.New("wallet already exists for currency")
	ErrWalletLimitReached = errors.New("wallet limit reached")
	ErrWalletLocked       = errors.New("wallet is locked")
	ErrPinAlreadySet      = errors.New("wallet pin already set")
	ErrPinNotSet          = errors.New("wallet pin not set")
	ErrPinInvalid         = errors.New("invalid wallet pin")
)
