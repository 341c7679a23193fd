package wallet

import (
	"context"
	"errors"
	"fmt"

	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/utils"
	"kobo/internal/validation"
)

const MaxWalletsPerUser = 5

// Cache is the wallet cache face this service needs.
type Cache interface {
	GetWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error)
	CacheWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, userID uint, currency string) error
}

// Service manages wallet lifecycle: creation, lookup, pins, locking.
// Balance changes live in the ledger engine, not here.
type Service interface {
	CreateWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error)
	GetWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error)
	GetWalletByID(ctx context.Context, walletID uint) (*models.Wallet, error)
	ListWallets(ctx context.Context, userID uint) ([]*models.Wallet, error)
	ResolveRecipient(ctx context.Context, tag, currency string) (*models.Wallet, error)

	SetPin(ctx context.Context, userID uint, currency, pin string) error
	VerifyPin(ctx context.Context, wallet *models.Wallet, pin string) error
	ResetPin(ctx context.Context, walletID uint, pin string) error

	LockWallet(ctx context.Context, walletID uint, reason string) error
	UnlockWallet(ctx context.Context, walletID uint) error
}

type service struct {
	repo  repositories.LedgerRepository
	cache Cache
}

// NewService creates a new wallet service
func NewService(repo repositories.LedgerRepository, cache Cache) Service {
	if repo == nil {
		panic("repo is required")
	}
	return &service{
		repo:  repo,
		cache: cache,
	}
}

func (s *service) CreateWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	if !models.IsSupportedCurrency(currency) {
		return nil, ErrInvalidCurrency
	}

	var wallet *models.Wallet
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		count, err := tx.CountWalletsByUser(userID)
		if err != nil {
			return err
		}
		if count >= MaxWalletsPerUser {
			return ErrWalletLimitReached
		}

		wallet = &models.Wallet{
			UserID:   userID,
			Currency: currency,
			Status:   models.WalletStatusActive,
		}
		return tx.CreateWallet(wallet)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateWallet) {
			return nil, ErrDuplicateWallet
		}
		if errors.Is(err, ErrWalletLimitReached) {
			return nil, ErrWalletLimitReached
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	if s.cache != nil {
		s.cache.CacheWallet(ctx, wallet)
	}
	return wallet, nil
}

func (s *service) GetWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	if currency == "" {
		currency = models.DefaultCurrency
	}

	// Try cache first
	if s.cache != nil {
		if wallet, err := s.cache.GetWallet(ctx, userID, currency); err == nil && wallet != nil {
			return wallet, nil
		}
	}

	wallet, err := s.repo.GetWalletByUserAndCurrency(userID, currency)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if s.cache != nil {
		s.cache.CacheWallet(ctx, wallet)
	}
	return wallet, nil
}

func (s *service) GetWalletByID(ctx context.Context, walletID uint) (*models.Wallet, error) {
	wallet, err := s.repo.GetWallet(walletID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

func (s *service) ListWallets(ctx context.Context, userID uint) ([]*models.Wallet, error) {
	wallets, err := s.repo.ListWalletsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return wallets, nil
}

func (s *service) ResolveRecipient(ctx context.Context, tag, currency string) (*models.Wallet, error) {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	wallet, err := s.repo.GetWalletByTagAndCurrency(tag, currency)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to resolve recipient: %w", err)
	}
	return wallet, nil
}

// SetPin sets the wallet pin exactly once. Changing an existing pin
// goes through the OTP-gated reset flow.
func (s *service) SetPin(ctx context.Context, userID uint, currency, pin string) error {
	if !validation.IsPin(pin) {
		return ErrPinInvalid
	}

	wallet, err := s.GetWallet(ctx, userID, currency)
	if err != nil {
		return err
	}
	if wallet.HasPin() {
		return ErrPinAlreadySet
	}

	hash, err := utils.HashPin(pin)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}
	wallet.PinHash = hash

	if err := s.repo.UpdateWallet(wallet); err != nil {
		return fmt.Errorf("failed to set pin: %w", err)
	}
	s.invalidate(ctx, wallet)
	return nil
}

func (s *service) VerifyPin(ctx context.Context, wallet *models.Wallet, pin string) error {
	if !wallet.HasPin() {
		return ErrPinNotSet
	}
	if !utils.CheckPin(wallet.PinHash, pin) {
		return ErrPinInvalid
	}
	return nil
}

// ResetPin overwrites the pin unconditionally; callers gate it with OTP.
func (s *service) ResetPin(ctx context.Context, walletID uint, pin string) error {
	if !validation.IsPin(pin) {
		return ErrPinInvalid
	}

	wallet, err := s.GetWalletByID(ctx, walletID)
	if err != nil {
		return err
	}

	hash, err := utils.HashPin(pin)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}
	wallet.PinHash = hash

	if err := s.repo.UpdateWallet(wallet); err != nil {
		return fmt.Errorf("failed to reset pin: %w", err)
	}
	s.invalidate(ctx, wallet)
	return nil
}

func (s *service) LockWallet(ctx context.Context, walletID uint, reason string) error {
	wallet, err := s.GetWalletByID(ctx, walletID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateWalletStatus(walletID, models.WalletStatusLocked, reason); err != nil {
		return fmt.Errorf("failed to lock wallet: %w", err)
	}
	s.invalidate(ctx, wallet)
	return nil
}

func (s *service) UnlockWallet(ctx context.Context, walletID uint) error {
	wallet, err := s.GetWalletByID(ctx, walletID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateWalletStatus(walletID, models.WalletStatusActive, ""); err != nil {
		return fmt.Errorf("failed to unlock wallet: %w", err)
	}
	s.invalidate(ctx, wallet)
	return nil
}

func (s *service) invalidate(ctx context.Context, wallet *models.Wallet) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateWallet(ctx, wallet.UserID, wallet.Currency)
}
