package handlers

import (
	"errors"

	"kobo/internal/services/rates"
	"kobo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type RateHandler struct {
	rateService rates.Service
}

func NewRateHandler(rateService rates.Service) *RateHandler {
	return &RateHandler{rateService: rateService}
}

func (h *RateHandler) GetRate(c *fiber.Ctx) error {
	from := c.Params("from")
	to := c.Params("to")

	rate, err := h.rateService.GetRate(c.Context(), from, to)
	if err != nil && !errors.Is(err, rates.ErrRateStale) {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"rate":  rate,
		"stale": errors.Is(err, rates.ErrRateStale),
	})
}

func (h *RateHandler) ListRates(c *fiber.Ctx) error {
	list, err := h.rateService.ListRates(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"rates": list})
}

func (h *RateHandler) Convert(c *fiber.Ctx) error {
	var input struct {
		Amount string `json:"amount"`
		From   string `json:"from"`
		To     string `json:"to"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	amount, err := parseAmount(input.Amount)
	if err != nil {
		return utils.BadRequest(c, "invalid amount")
	}

	converted, err := h.rateService.Convert(c.Context(), amount, input.From, input.To)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"amount":    amount,
		"converted": converted,
		"from":      input.From,
		"to":        input.To,
	})
}
