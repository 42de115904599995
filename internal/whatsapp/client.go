// ABOUTME: Outbound message delivery via the WhatsApp Cloud API
// ABOUTME: Bearer-authenticated JSON POST to the per-deployment phone-number endpoint

package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrDelivery is returned when the delivery API rejects a message or cannot be
// reached. It must never be treated as successful delivery.
var ErrDelivery = errors.New("message delivery failed")

// DefaultAPIBase is the Cloud API root used when none is configured.
const DefaultAPIBase = "https://graph.facebook.com/v19.0"

// DefaultTimeout bounds a single delivery call.
const DefaultTimeout = 15 * time.Second

// Config holds the delivery endpoint settings.
type Config struct {
	// AccessToken is the bearer token for the Cloud API.
	AccessToken string
	// PhoneNumberID is the sending phone number's endpoint id.
	PhoneNumberID string
	// APIBase overrides the Cloud API root, mainly for tests.
	APIBase string
	// Timeout bounds each delivery call; DefaultTimeout when zero.
	Timeout time.Duration
}

// Client submits outbound text messages. Constructed once and shared.
type Client struct {
	httpClient  *http.Client
	accessToken string
	endpoint    string
	logger      *slog.Logger
}

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

// NewClient creates a delivery client from config.
func NewClient(cfg Config) *Client {
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		accessToken: cfg.AccessToken,
		endpoint:    strings.TrimSuffix(apiBase, "/") + "/" + cfg.PhoneNumberID + "/messages",
		logger:      slog.Default().With("component", "whatsapp"),
	}
}

// SendText delivers a text body to the recipient. A non-2xx response or a
// transport failure yields ErrDelivery.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(textPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Text:             textBody{Body: body},
	})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The error body is short and useful for remediation; keep a slice of it.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrDelivery, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	c.logger.Debug("message delivered", "to", to, "body_len", len(body))
	return nil
}
