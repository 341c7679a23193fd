package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry(
		NewPaystack(PaystackConfig{SecretKey: "sk_test"}),
		NewCoralPay(CoralPayConfig{BaseURL: "http://localhost"}),
	)

	g, err := reg.Get("PAYSTACK")
	require.NoError(t, err)
	assert.Equal(t, "paystack", g.Name())

	_, err = reg.Get("flutterwave")
	assert.ErrorIs(t, err, ErrUnknownGateway)

	assert.Equal(t, []string{"coralpay", "paystack"}, reg.Names())
}

func TestPaystackVerifyPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/DEP_1", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"status":  "success",
				"amount":  9500,
				"channel": "bank",
			},
		})
	}))
	defer srv.Close()

	p := NewPaystack(PaystackConfig{BaseURL: srv.URL, SecretKey: "sk_test"})
	result, err := p.VerifyPayment(context.Background(), "DEP_1")
	require.NoError(t, err)

	assert.True(t, result.Succeeded)
	assert.False(t, result.Pending)
	assert.True(t, result.Amount.Equal(decimal.RequireFromString("95")), "got %s", result.Amount)
	assert.Equal(t, "bank", result.Channel)
}

func TestPaystackResolveAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bank/resolve", r.URL.Path)
		assert.Equal(t, "0123456789", r.URL.Query().Get("account_number"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"account_number": "0123456789",
				"account_name":   "ADA OBI",
			},
		})
	}))
	defer srv.Close()

	p := NewPaystack(PaystackConfig{BaseURL: srv.URL, SecretKey: "sk_test"})
	account, err := p.ResolveAccount(context.Background(), "058", "0123456789")
	require.NoError(t, err)
	assert.Equal(t, "ADA OBI", account.AccountName)
	assert.Equal(t, "058", account.BankCode)
}

func TestPaystackServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewPaystack(PaystackConfig{BaseURL: srv.URL, SecretKey: "sk_test"})
	_, err := p.VerifyPayment(context.Background(), "DEP_1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCoralPayInvokePayment(t *testing.T) {
	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/authentication":
			sawAuth = true
			json.NewEncoder(w).Encode(map[string]interface{}{
				"Token":     "tok_123",
				"ExpiresIn": 3600,
			})
		case "/paywithbank/invoke":
			assert.Equal(t, "Bearer tok_123", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"ResponseHeader": map[string]string{"ResponseCode": "00"},
				"PayLink":        "https://pay.example/abc",
				"TraceId":        "000000000042",
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewCoralPay(CoralPayConfig{
		BaseURL:    srv.URL,
		Username:   "merchant",
		Password:   "secret",
		MerchantID: "M001",
	})

	result, err := c.InvokePayment(context.Background(), InvokeRequest{
		Reference: "DEP_9",
		Amount:    decimal.RequireFromString("100.00"),
		Currency:  "NGN",
	})
	require.NoError(t, err)
	assert.True(t, sawAuth)
	assert.Equal(t, "https://pay.example/abc", result.PayLink)
	assert.Equal(t, "DEP_9", result.Reference)

	// Token reuse: a second call must not re-authenticate.
	sawAuth = false
	_, err = c.InvokePayment(context.Background(), InvokeRequest{
		Reference: "DEP_10",
		Amount:    decimal.RequireFromString("50.00"),
		Currency:  "NGN",
	})
	require.NoError(t, err)
	assert.False(t, sawAuth)
}

func TestCoralPayUnsupportedOperations(t *testing.T) {
	c := NewCoralPay(CoralPayConfig{BaseURL: "http://localhost"})

	_, err := c.InitTransfer(context.Background(), TransferRequest{})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = c.ResolveAccount(context.Background(), "058", "0123456789")
	assert.ErrorIs(t, err, ErrUnsupported)
}
