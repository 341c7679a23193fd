package handlers

import (
	"strconv"

	"kobo/internal/models"
	"kobo/internal/services/ledger"
	"kobo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

const maxPageSize = 100

type TransactionHandler struct {
	engine ledger.Service
}

func NewTransactionHandler(engine ledger.Service) *TransactionHandler {
	return &TransactionHandler{engine: engine}
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 20)
	if limit <= 0 || limit > maxPageSize {
		limit = 20
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListTransactions returns the caller's journal entries, newest first.
func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	limit, offset := pagination(c)
	entries, err := h.engine.ListUserEntries(c.Context(), claims.UserID, limit, offset)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}

// ListWalletTransactions returns the statement of one wallet owned by
// the caller.
func (h *TransactionHandler) ListWalletTransactions(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	walletID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid wallet id")
	}

	limit, offset := pagination(c)
	entries, err := h.engine.ListWalletEntries(c.Context(), uint(walletID), limit, offset)
	if err != nil {
		return serviceError(c, err)
	}

	// The statement query is wallet-scoped; make sure the wallet is the
	// caller's before returning anything.
	for _, e := range entries {
		if e.UserID != claims.UserID {
			return utils.Forbidden(c, "not your wallet")
		}
	}

	return utils.Success(c, fiber.Map{
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetByReference returns all legs recorded under one reference.
func (h *TransactionHandler) GetByReference(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	entries, err := h.engine.GetEntriesByReference(c.Context(), c.Params("reference"))
	if err != nil {
		return serviceError(c, err)
	}
	if len(entries) == 0 {
		return utils.NotFound(c, "reference not found")
	}

	owned := claims.Role == models.RoleAdmin
	for _, e := range entries {
		if e.UserID == claims.UserID {
			owned = true
		}
	}
	if !owned {
		return utils.NotFound(c, "reference not found")
	}

	return utils.Success(c, fiber.Map{"entries": entries})
}
