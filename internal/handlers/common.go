// Package handlers exposes the HTTP API. Handlers parse and validate
// input, call services and translate service errors to status codes.
package handlers

import (
	"errors"
	"log"

	"kobo/internal/models"
	"kobo/internal/services/auth"
	"kobo/internal/services/ledger"
	"kobo/internal/services/ratelimit"
	"kobo/internal/services/rates"
	"kobo/internal/services/transfer"
	"kobo/internal/services/wallet"
	"kobo/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// extractUserClaims is a helper function to reduce duplication
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// serviceError maps service sentinels onto HTTP responses. Unknown
// errors are logged and returned as 500 without leaking details.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ratelimit.ErrLocked):
		return utils.TooManyRequests(c, err.Error())

	case errors.Is(err, auth.ErrInvalidCredentials):
		return utils.Unauthorized(c, err.Error())
	case errors.Is(err, auth.ErrNotActivated),
		errors.Is(err, auth.ErrAlreadyActivated),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrCodeInvalid):
		return utils.BadRequest(c, err.Error())

	case errors.Is(err, wallet.ErrWalletNotFound),
		errors.Is(err, transfer.ErrRecipientNotFound),
		errors.Is(err, ledger.ErrEntryNotFound),
		errors.Is(err, rates.ErrRateNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, wallet.ErrDuplicateWallet),
		errors.Is(err, ledger.ErrDuplicateReference),
		errors.Is(err, ledger.ErrAlreadySettled),
		errors.Is(err, transfer.ErrOTPAlreadyUsed):
		return utils.Conflict(c, err.Error())
	case errors.Is(err, wallet.ErrPinInvalid),
		errors.Is(err, transfer.ErrOTPInvalid),
		errors.Is(err, transfer.ErrOTPExpired):
		return utils.Unauthorized(c, err.Error())
	case errors.Is(err, wallet.ErrWalletLocked):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, ledger.ErrGatewayUnavailable):
		return utils.Respond(c, fiber.StatusBadGateway, fiber.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrCurrencyMismatch),
		errors.Is(err, ledger.ErrSelfTransfer),
		errors.Is(err, wallet.ErrInvalidCurrency),
		errors.Is(err, wallet.ErrWalletLimitReached),
		errors.Is(err, wallet.ErrPinAlreadySet),
		errors.Is(err, wallet.ErrPinNotSet),
		errors.Is(err, rates.ErrRateStale):
		return utils.BadRequest(c, err.Error())
	}

	log.Printf("unhandled service error: %v", err)
	return utils.InternalError(c, "something went wrong")
}
