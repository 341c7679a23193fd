package handlers

import (
	"kobo/internal/services/wallet"
	"kobo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	walletService wallet.Service
}

func NewWalletHandler(walletService wallet.Service) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

func (h *WalletHandler) CreateWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Currency string `json:"currency"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	w, err := h.walletService.CreateWallet(c.Context(), claims.UserID, input.Currency)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Created(c, fiber.Map{"wallet": w})
}

func (h *WalletHandler) ListWallets(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	wallets, err := h.walletService.ListWallets(c.Context(), claims.UserID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"wallets": wallets})
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	currency := c.Params("currency")
	w, err := h.walletService.GetWallet(c.Context(), claims.UserID, currency)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"wallet": w})
}

// ResolveRecipient lets a sender preview who a tag belongs to before
// transferring.
func (h *WalletHandler) ResolveRecipient(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	tag := c.Params("tag")
	currency := c.Query("currency", "NGN")

	w, err := h.walletService.ResolveRecipient(c.Context(), tag, currency)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"wallet_id": w.ID,
		"currency":  w.Currency,
	})
}

func (h *WalletHandler) SetPin(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Currency string `json:"currency"`
		Pin      string `json:"pin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	if err := h.walletService.SetPin(c.Context(), claims.UserID, input.Currency, input.Pin); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "pin set"})
}

// LockWallet suspends a wallet. Admin only.
func (h *WalletHandler) LockWallet(c *fiber.Ctx) error {
	var input struct {
		WalletID uint   `json:"wallet_id"`
		Reason   string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	if err := h.walletService.LockWallet(c.Context(), input.WalletID, input.Reason); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "wallet locked"})
}

// UnlockWallet reactivates a suspended wallet. Admin only.
func (h *WalletHandler) UnlockWallet(c *fiber.Ctx) error {
	var input struct {
		WalletID uint `json:"wallet_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	if err := h.walletService.UnlockWallet(c.Context(), input.WalletID); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "wallet unlocked"})
}
