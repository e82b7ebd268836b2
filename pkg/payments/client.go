package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kivahq/kiva-backend/pkg/config"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

var errCredentialsRequired = errors.New("payment gateway key id and secret are required")

// Client wraps the payment gateway's order API. Amounts cross this boundary
// as integer minor units; everything above works in decimal currency units.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
	currency      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a gateway client from configuration.
func NewClient(cfg config.PaymentsConfig, opts ...Option) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keyID == "" || keySecret == "" {
		return nil, errCredentialsRequired
	}

	client := &Client{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		baseURL:       strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		currency:      strings.TrimSpace(cfg.Currency),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Currency returns the configured settlement currency code.
func (c *Client) Currency() string {
	return c.currency
}

// GatewayOrder is the gateway-side order created before collecting payment.
type GatewayOrder struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

// CreateOrder registers an order with the gateway. amountMinor is the total
// in the currency's smallest unit; receipt carries our order ID.
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, receipt string) (*GatewayOrder, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway client not configured")
	}
	if amountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	payload, err := json.Marshal(map[string]any{
		"amount":   amountMinor,
		"currency": c.currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal gateway order request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build gateway order request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute gateway order request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"gateway order request failed",
		)
	}

	var order GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway order response")
	}
	if order.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway order response missing id")
	}

	return &order, nil
}

// VerifyPaymentSignature checks the checkout-callback signature: HMAC-SHA256
// over "{gatewayOrderID}|{gatewayPaymentID}" with the key secret, hex-encoded.
func (c *Client) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return verifyHMAC(c.keySecret, gatewayOrderID+"|"+gatewayPaymentID, signature)
}

// VerifyWebhookSignature checks the webhook signature computed over the raw
// request body with the webhook secret.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if c.webhookSecret == "" {
		return false
	}
	return verifyHMAC(c.webhookSecret, string(body), signature)
}
