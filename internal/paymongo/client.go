package paymongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/stagelink/internal/queue"
)

var (
	// ErrNoSecretKey is returned by API calls when no secret key is set.
	ErrNoSecretKey = errors.New("paymongo: secret key is not configured")
	// ErrAPI wraps error responses from the PayMongo API.
	ErrAPI = errors.New("paymongo: api error")
)

// Client reads resources from the PayMongo REST API.  Requests use HTTP
// basic auth with the secret key as the user name.
type Client struct {
	SecretKey string
	BaseURL   string
	client    *http.Client
}

func NewClient(secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.paymongo.com"
	}
	return &Client{
		SecretKey: secretKey,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether a secret key is configured.
func (c *Client) Enabled() bool { return c != nil && c.SecretKey != "" }

type apiErrors struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// GetCheckoutSession fetches one checkout session by id.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (CheckoutSession, error) {
	if !c.Enabled() {
		return CheckoutSession{}, ErrNoSecretKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/checkout_sessions/"+url.PathEscape(id), nil)
	if err != nil {
		return CheckoutSession{}, err
	}
	req.SetBasicAuth(c.SecretKey, "")
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return CheckoutSession{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return CheckoutSession{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae apiErrors
		if json.Unmarshal(body, &ae) == nil && len(ae.Errors) > 0 && ae.Errors[0].Detail != "" {
			return CheckoutSession{}, fmt.Errorf("%w: %d %s", ErrAPI, resp.StatusCode, ae.Errors[0].Detail)
		}
		return CheckoutSession{}, fmt.Errorf("%w: %d", ErrAPI, resp.StatusCode)
	}

	var out struct {
		Data CheckoutSession `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return CheckoutSession{}, fmt.Errorf("decode checkout session: %w", err)
	}
	return out.Data, nil
}

// PaidCheckout fetches a checkout session and returns it as a worker
// payload with no event id.
func (c *Client) PaidCheckout(ctx context.Context, checkoutID string) (queue.PaymentPaidEvent, error) {
	cs, err := c.GetCheckoutSession(ctx, checkoutID)
	if err != nil {
		return queue.PaymentPaidEvent{}, err
	}
	return cs.PaidEvent(""), nil
}
