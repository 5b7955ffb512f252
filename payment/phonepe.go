package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Gateway status codes as reported by PhonePe.
const (
	CodeSuccess = "PAYMENT_SUCCESS"
	CodeError   = "PAYMENT_ERROR"
	CodePending = "PAYMENT_PENDING"
)

const (
	payPath    = "/pg/v1/pay"
	statusPath = "/pg/v1/status"
)

// Gateway is the contract the order workflow depends on. The checkout
// call is single-shot: no retries, no backoff beyond the client timeout.
type Gateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	GetStatus(ctx context.Context, merchantOrderID string) (*StatusResult, error)
}

type Config struct {
	MerchantID string
	SaltKey    string
	SaltIndex  string
	BaseURL    string
}

type InitiateRequest struct {
	MerchantTransactionID string
	MerchantUserID        string
	AmountPaisa           int64
	RedirectURL           string
	CallbackURL           string
	MobileNumber          string
	Message               string
}

type InitiateResult struct {
	TransactionID string
	RedirectURL   string
}

type StatusResult struct {
	Code          string
	TransactionID string
	State         string
}

// Client talks to the PhonePe standard checkout REST API, signing each
// request with the merchant salt key (X-VERIFY header).
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	}
	if cfg.SaltIndex == "" {
		cfg.SaltIndex = "1"
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// xVerify is sha256(input + saltKey) in hex, suffixed with the salt index.
func (c *Client) xVerify(input string) string {
	sum := sha256.Sum256([]byte(input + c.cfg.SaltKey))
	return hex.EncodeToString(sum[:]) + "###" + c.cfg.SaltIndex
}

type payPayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl,omitempty"`
	MobileNumber          string            `json:"mobileNumber,omitempty"`
	Message               string            `json:"message,omitempty"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type paymentInstrument struct {
	Type string `json:"type"`
}

type redirectInfo struct {
	URL string `json:"url"`
}

type instrumentResponse struct {
	RedirectInfo redirectInfo `json:"redirectInfo"`
}

type initiateResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string             `json:"merchantTransactionId"`
		TransactionID         string             `json:"transactionId"`
		InstrumentResponse    instrumentResponse `json:"instrumentResponse"`
	} `json:"data"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		State                 string `json:"state"`
		ResponseCode          string `json:"responseCode"`
	} `json:"data"`
}

// Initiate creates a hosted-checkout payment and returns the gateway
// transaction id plus the page the customer must be redirected to.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	payload := payPayload{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: req.MerchantTransactionID,
		MerchantUserID:        req.MerchantUserID,
		Amount:                req.AmountPaisa,
		RedirectURL:           req.RedirectURL,
		RedirectMode:          "REDIRECT",
		CallbackURL:           req.CallbackURL,
		MobileNumber:          req.MobileNumber,
		Message:               req.Message,
		PaymentInstrument:     paymentInstrument{Type: "PAY_PAGE"},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal pay payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, fmt.Errorf("marshal pay envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+payPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create pay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", c.xVerify(encoded+payPath))
	httpReq.Header.Set("X-MERCHANT-ID", c.cfg.MerchantID)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	var decoded initiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode pay response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !decoded.Success {
		return nil, fmt.Errorf("payment initiation rejected: status %d, code %s: %s", resp.StatusCode, decoded.Code, decoded.Message)
	}

	return &InitiateResult{
		TransactionID: decoded.Data.TransactionID,
		RedirectURL:   decoded.Data.InstrumentResponse.RedirectInfo.URL,
	}, nil
}

// GetStatus fetches the authoritative payment state for a merchant order.
func (c *Client) GetStatus(ctx context.Context, merchantOrderID string) (*StatusResult, error) {
	path := fmt.Sprintf("%s/%s/%s", statusPath, c.cfg.MerchantID, merchantOrderID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create status request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", c.xVerify(path))
	httpReq.Header.Set("X-MERCHANT-ID", c.cfg.MerchantID)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	var decoded statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment status rejected: status %d, code %s: %s", resp.StatusCode, decoded.Code, decoded.Message)
	}

	return &StatusResult{
		Code:          decoded.Code,
		TransactionID: decoded.Data.TransactionID,
		State:         decoded.Data.State,
	}, nil
}
