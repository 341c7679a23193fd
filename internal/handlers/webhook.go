package handlers

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"log"

	"kobo/internal/services/reconcile"
	"kobo/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// WebhookHandler receives asynchronous gateway notifications. Callbacks
// are acknowledged with 200 even when the reference is unknown so the
// gateway stops retrying; conflicting settlements return 409.
type WebhookHandler struct {
	reconciler reconcile.Service
	secret     string
}

func NewWebhookHandler(reconciler reconcile.Service, secret string) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, secret: secret}
}

type callbackPayload struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	Channel   string `json:"channel"`
	Gateway   string `json:"gateway"`
}

func (p callbackPayload) notification() reconcile.Notification {
	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		amount = decimal.Zero
	}
	return reconcile.Notification{
		Reference: p.Reference,
		Succeeded: p.Status == "success" || p.Status == "successful",
		Amount:    amount,
		Channel:   p.Channel,
		Gateway:   p.Gateway,
	}
}

// verifySignature checks the HMAC-SHA512 signature header against the
// raw body. Skipped when no secret is configured.
func (h *WebhookHandler) verifySignature(c *fiber.Ctx) bool {
	if h.secret == "" {
		return true
	}
	mac := hmac.New(sha512.New, []byte(h.secret))
	mac.Write(c.Body())
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(c.Get("X-Webhook-Signature")))
}

func (h *WebhookHandler) DepositCallback(c *fiber.Ctx) error {
	if !h.verifySignature(c) {
		return utils.Unauthorized(c, "invalid signature")
	}

	var payload callbackPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.BadRequest(c, "invalid payload")
	}
	if payload.Reference == "" {
		return utils.BadRequest(c, "reference is required")
	}

	if err := h.reconciler.HandleDepositCallback(c.Context(), payload.notification()); err != nil {
		log.Printf("deposit callback for %s: %v", payload.Reference, err)
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"status": "ok"})
}

func (h *WebhookHandler) WithdrawalCallback(c *fiber.Ctx) error {
	if !h.verifySignature(c) {
		return utils.Unauthorized(c, "invalid signature")
	}

	var payload callbackPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.BadRequest(c, "invalid payload")
	}
	if payload.Reference == "" {
		return utils.BadRequest(c, "reference is required")
	}

	if err := h.reconciler.HandleWithdrawalCallback(c.Context(), payload.notification()); err != nil {
		log.Printf("withdrawal callback for %s: %v", payload.Reference, err)
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"status": "ok"})
}

// VerifyDeposit polls the gateway for the current status of a pending
// deposit and settles it if the gateway reports a terminal outcome.
func (h *WebhookHandler) VerifyDeposit(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	gatewayName := c.Query("gateway")
	reference := c.Params("reference")
	if gatewayName == "" || reference == "" {
		return utils.BadRequest(c, "gateway and reference are required")
	}

	result, err := h.reconciler.PollDeposit(c.Context(), gatewayName, reference)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"result": result})
}
