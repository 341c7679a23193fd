package handlers

import (
	"errors"

	"kobo/internal/services/gateway"
	"kobo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// BankHandler proxies account lookups to a payment gateway so senders
// can confirm the account name before a payout.
type BankHandler struct {
	registry *gateway.Registry
}

func NewBankHandler(registry *gateway.Registry) *BankHandler {
	return &BankHandler{registry: registry}
}

func (h *BankHandler) ResolveAccount(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	gatewayName := c.Query("gateway")
	bankCode := c.Query("bank_code")
	accountNumber := c.Query("account_number")
	if gatewayName == "" || bankCode == "" || accountNumber == "" {
		return utils.BadRequest(c, "gateway, bank_code and account_number are required")
	}

	gw, err := h.registry.Get(gatewayName)
	if err != nil {
		return utils.BadRequest(c, "unknown gateway")
	}

	account, err := gw.ResolveAccount(c.Context(), bankCode, accountNumber)
	switch {
	case errors.Is(err, gateway.ErrUnsupported):
		return utils.BadRequest(c, "gateway does not support account resolution")
	case errors.Is(err, gateway.ErrDeclined):
		return utils.NotFound(c, "account not found")
	case errors.Is(err, gateway.ErrUnavailable):
		return utils.Respond(c, fiber.StatusBadGateway, fiber.Map{"error": "gateway unavailable"})
	case err != nil:
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.Map{"account": account})
}
