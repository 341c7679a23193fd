package handlers

import (
	"kobo/internal/services/transfer"
	"kobo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// TransferHandler exposes the two-phase money movement flows. Every
// flow is request then confirm, with a one-time code in between.
type TransferHandler struct {
	transferService transfer.Service
}

func NewTransferHandler(transferService transfer.Service) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

func (h *TransferHandler) RequestTransfer(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Currency     string `json:"currency"`
		RecipientTag string `json:"recipient_tag"`
		Amount       string `json:"amount"`
		Note         string `json:"note"`
		Pin          string `json:"pin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	amount, err := parseAmount(input.Amount)
	if err != nil {
		return utils.BadRequest(c, "invalid amount")
	}

	receipt, err := h.transferService.RequestTransfer(c.Context(), claims.UserID, transfer.TransferRequest{
		Currency:     input.Currency,
		RecipientTag: input.RecipientTag,
		Amount:       amount,
		Note:         input.Note,
		Pin:          input.Pin,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"intent": receipt})
}

func (h *TransferHandler) ConfirmTransfer(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Currency string `json:"currency"`
		Code     string `json:"code"`
		Pin      string `json:"pin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	entries, err := h.transferService.ConfirmTransfer(c.Context(), claims.UserID, transfer.Confirmation{
		Currency: input.Currency,
		Code:     input.Code,
		Pin:      input.Pin,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"entries": entries})
}

func (h *TransferHandler) RequestDeposit(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Currency string `json:"currency"`
		Amount   string `json:"amount"`
		Gateway  string `json:"gateway"`
		Channel  string `json:"channel"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	amount, err := parseAmount(input.Amount)
	if err != nil {
		return utils.BadRequest(c, "invalid amount")
	}

	receipt, err := h.transferService.RequestDeposit(c.Context(), claims.UserID, transfer.DepositRequest{
		Currency: input.Currency,
		Amount:   amount,
		Gateway:  input.Gateway,
		Channel:  input.Channel,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"intent": receipt})
}

func (h *TransferHandler) ConfirmDeposit(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Currency string `json:"currency"`
		Code     string `json:"code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	receipt, err := h.transferService.ConfirmDeposit(c.Context(), claims.UserID, transfer.Confirmation{
		Currency: input.Currency,
		Code:     input.Code,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"deposit": receipt})
}

func (h *TransferHandler) RequestWithdrawal(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Currency      string `json:"currency"`
		Amount        string `json:"amount"`
		Pin           string `json:"pin"`
		Gateway       string `json:"gateway"`
		BankCode      string `json:"bank_code"`
		AccountNumber string `json:"account_number"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	amount, err := parseAmount(input.Amount)
	if err != nil {
		return utils.BadRequest(c, "invalid amount")
	}

	receipt, err := h.transferService.RequestWithdrawal(c.Context(), claims.UserID, transfer.WithdrawalRequest{
		Currency:      input.Currency,
		Amount:        amount,
		Pin:           input.Pin,
		Gateway:       input.Gateway,
		BankCode:      input.BankCode,
		AccountNumber: input.AccountNumber,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"intent": receipt})
}

func (h *TransferHandler) ConfirmWithdrawal(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Currency string `json:"currency"`
		Code     string `json:"code"`
		Pin      string `json:"pin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	entry, err := h.transferService.ConfirmWithdrawal(c.Context(), claims.UserID, transfer.Confirmation{
		Currency: input.Currency,
		Code:     input.Code,
		Pin:      input.Pin,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"entry": entry})
}

func (h *TransferHandler) RequestPinChange(c *fiber.Ctx) error {
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

	receipt, err := h.transferService.RequestPinChange(c.Context(), claims.UserID, input.Currency)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"intent": receipt})
}

func (h *TransferHandler) ConfirmPinChange(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Currency string `json:"currency"`
		Code     string `json:"code"`
		NewPin   string `json:"new_pin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	if err := h.transferService.ConfirmPinChange(c.Context(), claims.UserID, input.Currency, input.Code, input.NewPin); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "pin changed"})
}
