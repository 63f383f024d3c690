// Package payment implements the PhonePe-compatible redirect gateway:
// base64-encoded request payloads signed with a salted SHA-256 checksum in the
// X-VERIFY header, a hosted pay page the shopper is redirected to, and
// status/webhook confirmation carrying the same checksum scheme.
package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	payPath    = "/pg/v1/pay"
	statusPath = "/pg/v1/status"

	StateCompleted = "COMPLETED"
	StatePending   = "PENDING"
	StateFailed    = "FAILED"
)

var ErrChecksumMismatch = errors.New("payment: webhook checksum mismatch")

type Config struct {
	BaseURL    string
	MerchantID string
	SaltKey    string
	SaltIndex  string
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// InitiateRequest describes one pay-page session. Amount is in paise.
type InitiateRequest struct {
	TransactionID string
	UserID        string
	Amount        int64
	RedirectURL   string
	CallbackURL   string
}

type initiatePayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type paymentInstrument struct {
	Type string `json:"type"`
}

type gatewayEnvelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initiateData struct {
	InstrumentResponse struct {
		RedirectInfo struct {
			URL string `json:"url"`
		} `json:"redirectInfo"`
	} `json:"instrumentResponse"`
}

// StatusResult is the normalized outcome of a status call or webhook payload.
type StatusResult struct {
	TransactionID string
	State         string
	Code          string
	ProviderRef   string
	ResponseCode  string
}

type statusData struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	TransactionID         string `json:"transactionId"`
	State                 string `json:"state"`
	ResponseCode          string `json:"responseCode"`
}

// Initiate opens a pay-page session and returns the redirect URL the shopper
// must be sent to.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (string, error) {
	payload := initiatePayload{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: req.TransactionID,
		MerchantUserID:        req.UserID,
		Amount:                req.Amount,
		RedirectURL:           req.RedirectURL,
		RedirectMode:          "REDIRECT",
		CallbackURL:           req.CallbackURL,
		PaymentInstrument:     paymentInstrument{Type: "PAY_PAGE"},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+payPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", c.Sign(encoded+payPath))

	var envelope gatewayEnvelope
	if err := c.do(httpReq, &envelope); err != nil {
		return "", err
	}
	if !envelope.Success {
		return "", fmt.Errorf("payment: initiate rejected: %s %s", envelope.Code, envelope.Message)
	}

	var data initiateData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return "", err
	}
	if data.InstrumentResponse.RedirectInfo.URL == "" {
		return "", errors.New("payment: initiate response missing redirect url")
	}
	return data.InstrumentResponse.RedirectInfo.URL, nil
}

// Status asks the gateway for the current state of a transaction.
func (c *Client) Status(ctx context.Context, transactionID string) (StatusResult, error) {
	path := fmt.Sprintf("%s/%s/%s", statusPath, c.cfg.MerchantID, transactionID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return StatusResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", c.Sign(path))
	httpReq.Header.Set("X-MERCHANT-ID", c.cfg.MerchantID)

	var envelope gatewayEnvelope
	if err := c.do(httpReq, &envelope); err != nil {
		return StatusResult{}, err
	}

	var data statusData
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return StatusResult{}, err
		}
	}

	result := StatusResult{
		TransactionID: data.MerchantTransactionID,
		State:         data.State,
		Code:          envelope.Code,
		ProviderRef:   data.TransactionID,
		ResponseCode:  data.ResponseCode,
	}
	if result.TransactionID == "" {
		result.TransactionID = transactionID
	}
	if result.State == "" {
		// Some gateway error responses omit data entirely.
		result.State = StateFailed
	}
	return result, nil
}

// Sign computes the X-VERIFY value for the given base-string (payload+path for
// writes, path only for reads): sha256(base + saltKey) + "###" + saltIndex.
func (c *Client) Sign(base string) string {
	sum := sha256.Sum256([]byte(base + c.cfg.SaltKey))
	return hex.EncodeToString(sum[:]) + "###" + c.cfg.SaltIndex
}

// VerifyWebhook checks the X-VERIFY header against the base64 response body
// exactly as the gateway computed it.
func (c *Client) VerifyWebhook(encodedBody, xVerify string) error {
	expected := c.Sign(encodedBody)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(xVerify)) != 1 {
		return ErrChecksumMismatch
	}
	return nil
}

// DecodeWebhook unwraps the {response: base64(json)} webhook body into a
// status result. Call VerifyWebhook first.
func (c *Client) DecodeWebhook(encodedBody string) (StatusResult, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedBody)
	if err != nil {
		return StatusResult{}, fmt.Errorf("payment: webhook body not base64: %w", err)
	}

	var envelope gatewayEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return StatusResult{}, err
	}

	var data statusData
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return StatusResult{}, err
		}
	}
	if data.MerchantTransactionID == "" {
		return StatusResult{}, errors.New("payment: webhook missing merchantTransactionId")
	}

	return StatusResult{
		TransactionID: data.MerchantTransactionID,
		State:         data.State,
		Code:          envelope.Code,
		ProviderRef:   data.TransactionID,
		ResponseCode:  data.ResponseCode,
	}, nil
}

func (c *Client) do(req *http.Request, out *gatewayEnvelope) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("payment: decode gateway response: %w", err)
	}
	return nil
}
