package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"driverqueue/internal/service"
)

// DefaultAPIURL is the WhatsApp Cloud API base URL.
const DefaultAPIURL = "https://graph.facebook.com/v18.0"

// Config holds WhatsApp Cloud API credentials.
type Config struct {
	APIURL  string
	Token   string
	PhoneID string
	Timeout time.Duration
}

// Client sends text messages through the WhatsApp Cloud API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Ensure Client is a notification channel.
var _ service.Notifier = (*Client)(nil)

// NewClient creates a new Client.
func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether credentials are present. Without them every
// message is simulated: nothing is sent and no message ID is returned.
func (c *Client) Configured() bool {
	return c.cfg.Token != "" && c.cfg.PhoneID != ""
}

type textBody struct {
	Body string `json:"body"`
}

type messageRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type messageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Notify sends message to phoneDigits.
func (c *Client) Notify(ctx context.Context, phoneDigits, message string) (*service.NotifyResult, error) {
	if !c.Configured() {
		return &service.NotifyResult{Delivered: true, Simulated: true}, nil
	}

	payload, err := json.Marshal(messageRequest{
		MessagingProduct: "whatsapp",
		To:               phoneDigits,
		Type:             "text",
		Text:             textBody{Body: message},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/messages", strings.TrimRight(c.cfg.APIURL, "/"), c.cfg.PhoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build whatsapp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &service.NotifyResult{Error: "network error"}, fmt.Errorf("whatsapp request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &service.NotifyResult{Error: "network error"}, fmt.Errorf("read whatsapp response: %w", err)
	}

	var parsed messageResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := "failed to send message"
		if parsed.Error != nil && parsed.Error.Message != "" {
			reason = parsed.Error.Message
		}
		return &service.NotifyResult{Error: reason}, fmt.Errorf("whatsapp api status %d: %s", resp.StatusCode, reason)
	}

	result := &service.NotifyResult{Delivered: true}
	if len(parsed.Messages) > 0 {
		result.MessageID = parsed.Messages[0].ID
	}
	return result, nil
}
