package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http/httptest"
	"testing"

	"kobo/internal/services/gateway"
	"kobo/internal/services/ledger"
	"kobo/internal/services/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	deposits    []reconcile.Notification
	withdrawals []reconcile.Notification
	err         error
}

func (f *fakeReconciler) HandleDepositCallback(ctx context.Context, n reconcile.Notification) error {
	f.deposits = append(f.deposits, n)
	return f.err
}

func (f *fakeReconciler) HandleWithdrawalCallback(ctx context.Context, n reconcile.Notification) error {
	f.withdrawals = append(f.withdrawals, n)
	return f.err
}

func (f *fakeReconciler) PollDeposit(ctx context.Context, gatewayName, reference string) (*gateway.VerifyResult, error) {
	return nil, f.err
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookApp(rec *fakeReconciler, secret string) *fiber.App {
	app := fiber.New()
	h := NewWebhookHandler(rec, secret)
	app.Post("/webhooks/deposits", h.DepositCallback)
	app.Post("/webhooks/withdrawals", h.WithdrawalCallback)
	return app
}

func TestDepositCallback(t *testing.T) {
	body := []byte(`{"reference":"dep_1","status":"success","amount":"150.00","gateway":"paystack"}`)

	t.Run("applies the settlement", func(t *testing.T) {
		rec := &fakeReconciler{}
		app := newWebhookApp(rec, "")

		req := httptest.NewRequest("POST", "/webhooks/deposits", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Len(t, rec.deposits, 1)
		assert.Equal(t, "dep_1", rec.deposits[0].Reference)
		assert.True(t, rec.deposits[0].Succeeded)
		assert.True(t, decimal.RequireFromString("150.00").Equal(rec.deposits[0].Amount))
	})

	t.Run("rejects a bad signature", func(t *testing.T) {
		rec := &fakeReconciler{}
		app := newWebhookApp(rec, "whsec")

		req := httptest.NewRequest("POST", "/webhooks/deposits", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Webhook-Signature", "deadbeef")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Empty(t, rec.deposits)
	})

	t.Run("accepts a valid signature", func(t *testing.T) {
		rec := &fakeReconciler{}
		app := newWebhookApp(rec, "whsec")

		req := httptest.NewRequest("POST", "/webhooks/deposits", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Webhook-Signature", sign("whsec", body))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Len(t, rec.deposits, 1)
	})

	t.Run("missing reference", func(t *testing.T) {
		rec := &fakeReconciler{}
		app := newWebhookApp(rec, "")

		req := httptest.NewRequest("POST", "/webhooks/deposits", bytes.NewReader([]byte(`{"status":"success"}`)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("conflicting settlement returns 409", func(t *testing.T) {
		rec := &fakeReconciler{err: ledger.ErrAlreadySettled}
		app := newWebhookApp(rec, "")

		req := httptest.NewRequest("POST", "/webhooks/deposits", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})
}

func TestWithdrawalCallback(t *testing.T) {
	rec := &fakeReconciler{}
	app := newWebhookApp(rec, "")

	body := []byte(`{"reference":"wd_1","status":"failed","gateway":"paystack"}`)
	req := httptest.NewRequest("POST", "/webhooks/withdrawals", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, rec.withdrawals, 1)
	assert.False(t, rec.withdrawals[0].Succeeded)
}
