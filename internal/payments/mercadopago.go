package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentApproved is the Mercado Pago status for a captured payment.
const PaymentApproved = "approved"

// MercadoPagoConfig holds Mercado Pago settings.
type MercadoPagoConfig struct {
	AccessToken     string
	BaseURL         string
	PriceARS        float64
	SuccessURL      string
	FailureURL      string
	NotificationURL string
	Timeout         time.Duration
}

// MercadoPagoClient is a small REST client for checkout preferences and payments.
type MercadoPagoClient struct {
	cfg        MercadoPagoConfig
	httpClient *http.Client
}

// NewMercadoPagoClient returns ErrNotConfigured without an access token.
func NewMercadoPagoClient(cfg MercadoPagoConfig) (*MercadoPagoClient, error) {
	if cfg.AccessToken == "" {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mercadopago.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &MercadoPagoClient{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}, nil
}

type mpItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	CurrencyID string  `json:"currency_id"`
	UnitPrice  float64 `json:"unit_price"`
}

type mpPayer struct {
	Email string `json:"email,omitempty"`
}

type mpBackURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

type mpPreferenceRequest struct {
	Items             []mpItem    `json:"items"`
	Payer             *mpPayer    `json:"payer,omitempty"`
	ExternalReference string      `json:"external_reference"`
	BackURLs          *mpBackURLs `json:"back_urls,omitempty"`
	AutoReturn        string      `json:"auto_return,omitempty"`
	NotificationURL   string      `json:"notification_url,omitempty"`
}

// Preference is a created checkout preference.
type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// Payment is the subset of a Mercado Pago payment we use.
type Payment struct {
	ID                int64  `json:"id"`
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
}

// CreatePreference creates a checkout preference for the Premium plan; the user's
// uid is the external reference.
func (c *MercadoPagoClient) CreatePreference(ctx context.Context, uid, email string) (*Preference, error) {
	body := mpPreferenceRequest{
		Items: []mpItem{{
			Title:      "FitCoach Premium",
			Quantity:   1,
			CurrencyID: "ARS",
			UnitPrice:  c.cfg.PriceARS,
		}},
		ExternalReference: uid,
		NotificationURL:   c.cfg.NotificationURL,
	}
	if email != "" {
		body.Payer = &mpPayer{Email: email}
	}
	if c.cfg.SuccessURL != "" {
		body.BackURLs = &mpBackURLs{Success: c.cfg.SuccessURL, Failure: c.cfg.FailureURL, Pending: c.cfg.SuccessURL}
		body.AutoReturn = "approved"
	}

	var pref Preference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", body, &pref); err != nil {
		return nil, fmt.Errorf("mercadopago create preference: %w", err)
	}
	if pref.InitPoint == "" {
		return nil, fmt.Errorf("mercadopago create preference: response has no init_point")
	}
	return &pref, nil
}

// GetPayment fetches a payment by ID.
func (c *MercadoPagoClient) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("mercadopago get payment: empty payment id")
	}
	var p Payment
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &p); err != nil {
		return nil, fmt.Errorf("mercadopago get payment %s: %w", paymentID, err)
	}
	return &p, nil
}

func (c *MercadoPagoClient) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Idempotency-Key", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
