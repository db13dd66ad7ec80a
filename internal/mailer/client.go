// Package mailer sends transactional email through the Resend HTTP API.
package mailer

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
)

var (
	// ErrNotConfigured is returned by Send when no API key is set.
	ErrNotConfigured = errors.New("mailer: email delivery is not configured")
	// ErrDeliveryFailed wraps any non-2xx response from the provider.
	ErrDeliveryFailed = errors.New("mailer: delivery failed")
)

// Message is one outgoing email.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// Client talks to the Resend API.  A Client without an API key is valid
// and reports Enabled() == false.
type Client struct {
	APIKey  string
	BaseURL string
	From    string
	client  *http.Client
}

func NewClient(apiKey, baseURL, from string) *Client {
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		From:    from,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c != nil && c.APIKey != "" }

type sendRequest struct {
	From string `json:"from"`
	Message
}

// Send delivers m.  There is a single attempt; callers decide whether a
// failure matters.
func (c *Client) Send(ctx context.Context, m Message) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	body, err := json.Marshal(sendRequest{From: c.From, Message: m})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: %d %s", ErrDeliveryFailed, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
