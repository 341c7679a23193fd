package gateway

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"crypto/rand"

	"github.com/shopspring/decimal"
)

// CoralPayConfig holds credentials for the C'Gate-style API.
type CoralPayConfig struct {
	BaseURL    string
	Username   string
	Password   string
	MerchantID string
	Timeout    time.Duration
}

// CoralPay collects bank and USSD payments. Tokens are refreshed
// lazily under a mutex; every other call is plain request/response.
type CoralPay struct {
	config CoralPayConfig
	client *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewCoralPay(config CoralPayConfig) *CoralPay {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &CoralPay{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

func (c *CoralPay) Name() string { return "coralpay" }

func (c *CoralPay) InvokePayment(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	traceID, err := generateTraceID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate trace id: %w", err)
	}

	payload := map[string]interface{}{
		"RequestHeader": map[string]string{
			"MerchantId": c.config.MerchantID,
			"TerminalId": c.config.MerchantID,
			"TraceId":    traceID,
			"Signature":  c.sign(traceID),
		},
		"Customer": map[string]string{
			"Email": req.CustomerEmail,
			"Name":  req.CustomerName,
		},
		"Amount":            req.Amount.StringFixed(2),
		"Currency":          req.Currency,
		"MerchantReference": req.Reference,
		"Channel":           req.Channel,
	}

	var resp struct {
		ResponseHeader struct {
			ResponseCode    string `json:"ResponseCode"`
			ResponseMessage string `json:"ResponseMessage"`
		} `json:"ResponseHeader"`
		PayLink string `json:"PayLink"`
		TraceID string `json:"TraceId"`
	}
	if err := c.post(ctx, "/paywithbank/invoke", token, payload, &resp); err != nil {
		return nil, err
	}
	if resp.ResponseHeader.ResponseCode != "00" {
		return nil, fmt.Errorf("%w: %s", ErrDeclined, resp.ResponseHeader.ResponseMessage)
	}

	return &InvokeResult{
		Reference: req.Reference,
		TraceID:   resp.TraceID,
		PayLink:   resp.PayLink,
	}, nil
}

func (c *CoralPay) VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error) {
	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"MerchantId":        c.config.MerchantID,
		"MerchantReference": reference,
		"Signature":         c.sign(reference),
	}

	var resp struct {
		ResponseCode string `json:"ResponseCode"`
		Status       string `json:"Status"`
		Amount       string `json:"Amount"`
		Channel      string `json:"Channel"`
	}
	if err := c.post(ctx, "/transactionquery", token, payload, &resp); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(resp.Amount)
	if err != nil {
		amount = decimal.Zero
	}

	return &VerifyResult{
		Reference: reference,
		Succeeded: resp.Status == "SUCCESSFUL",
		Pending:   resp.Status == "PENDING",
		Amount:    amount,
		Channel:   resp.Channel,
	}, nil
}

func (c *CoralPay) InitTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	return nil, ErrUnsupported
}

func (c *CoralPay) ResolveAccount(ctx context.Context, bankCode, accountNumber string) (*BankAccount, error) {
	return nil, ErrUnsupported
}

func (c *CoralPay) authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	payload := map[string]string{
		"Username": c.config.Username,
		"Password": c.config.Password,
	}
	var resp struct {
		Token     string `json:"Token"`
		ExpiresIn int    `json:"ExpiresIn"`
	}
	if err := c.post(ctx, "/authentication", "", payload, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: empty auth token", ErrUnavailable)
	}

	expires := resp.ExpiresIn
	if expires <= 0 {
		expires = 3600
	}
	c.token = resp.Token
	// Refresh a minute early.
	c.tokenExpiry = time.Now().Add(time.Duration(expires-60) * time.Second)
	return c.token, nil
}

func (c *CoralPay) sign(traceID string) string {
	sum := sha256.Sum256([]byte(c.config.Username + traceID + c.config.Password))
	return hex.EncodeToString(sum[:])
}

func (c *CoralPay) post(ctx context.Context, path, token string, payload, dest interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: status %d", ErrDeclined, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func generateTraceID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%012d", n.Int64()), nil
}
