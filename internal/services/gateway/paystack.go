package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// PaystackConfig holds Paystack API credentials.
type PaystackConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Paystack handles card collection, bank payouts and account resolution.
type Paystack struct {
	config PaystackConfig
	client *http.Client
}

func NewPaystack(config PaystackConfig) *Paystack {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.paystack.co"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &Paystack{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

func (p *Paystack) Name() string { return "paystack" }

func (p *Paystack) InvokePayment(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	payload := map[string]interface{}{
		"email":     req.CustomerEmail,
		"amount":    req.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"currency":  req.Currency,
		"reference": req.Reference,
	}

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			AuthorizationURL string `json:"authorization_url"`
			AccessCode       string `json:"access_code"`
			Reference        string `json:"reference"`
		} `json:"data"`
		Message string `json:"message"`
	}
	if err := p.do(ctx, http.MethodPost, "/transaction/initialize", payload, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, fmt.Errorf("%w: %s", ErrDeclined, resp.Message)
	}

	return &InvokeResult{
		Reference: resp.Data.Reference,
		TraceID:   resp.Data.AccessCode,
		PayLink:   resp.Data.AuthorizationURL,
	}, nil
}

func (p *Paystack) VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error) {
	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			Status  string `json:"status"`
			Amount  int64  `json:"amount"`
			Channel string `json:"channel"`
		} `json:"data"`
	}
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := p.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	return &VerifyResult{
		Reference: reference,
		Succeeded: resp.Status && resp.Data.Status == "success",
		Pending:   resp.Data.Status == "pending" || resp.Data.Status == "ongoing",
		Amount:    decimal.NewFromInt(resp.Data.Amount).Div(decimal.NewFromInt(100)),
		Channel:   resp.Data.Channel,
	}, nil
}

func (p *Paystack) InitTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	recipient, err := p.createRecipient(ctx, req)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"source":    "balance",
		"amount":    req.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"recipient": recipient,
		"reference": req.Reference,
		"reason":    req.Narration,
	}

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			TransferCode string `json:"transfer_code"`
			Status       string `json:"status"`
		} `json:"data"`
		Message string `json:"message"`
	}
	if err := p.do(ctx, http.MethodPost, "/transfer", payload, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, fmt.Errorf("%w: %s", ErrDeclined, resp.Message)
	}

	return &TransferResult{
		Reference:    req.Reference,
		TransferCode: resp.Data.TransferCode,
		Pending:      resp.Data.Status != "success",
	}, nil
}

func (p *Paystack) ResolveAccount(ctx context.Context, bankCode, accountNumber string) (*BankAccount, error) {
	path := fmt.Sprintf("/bank/resolve?account_number=%s&bank_code=%s",
		url.QueryEscape(accountNumber), url.QueryEscape(bankCode))

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			AccountNumber string `json:"account_number"`
			AccountName   string `json:"account_name"`
		} `json:"data"`
		Message string `json:"message"`
	}
	if err := p.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, fmt.Errorf("%w: %s", ErrDeclined, resp.Message)
	}

	return &BankAccount{
		AccountNumber: resp.Data.AccountNumber,
		AccountName:   resp.Data.AccountName,
		BankCode:      bankCode,
	}, nil
}

func (p *Paystack) createRecipient(ctx context.Context, req TransferRequest) (string, error) {
	payload := map[string]interface{}{
		"type":           "nuban",
		"name":           req.AccountName,
		"account_number": req.AccountNumber,
		"bank_code":      req.BankCode,
		"currency":       req.Currency,
	}

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			RecipientCode string `json:"recipient_code"`
		} `json:"data"`
		Message string `json:"message"`
	}
	if err := p.do(ctx, http.MethodPost, "/transferrecipient", payload, &resp); err != nil {
		return "", err
	}
	if !resp.Status {
		return "", fmt.Errorf("%w: %s", ErrDeclined, resp.Message)
	}
	return resp.Data.RecipientCode, nil
}

func (p *Paystack) do(ctx context.Context, method, path string, payload, dest interface{}) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.config.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
