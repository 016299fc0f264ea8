package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to the payments provider's REST API. Only the two calls the
// product needs are implemented.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient constructs a Client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Subscription fetches the account's subscription from the provider.
func (c *Client) Subscription(ctx context.Context, userID string) (Subscription, error) {
	var sub Subscription
	err := c.do(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(userID), nil, &sub)
	return sub, err
}

// Refund asks the provider to refund a payment.
func (c *Client) Refund(ctx context.Context, paymentID string, amountCents int64) (Refund, error) {
	body := map[string]any{"payment_id": paymentID, "amount_cents": amountCents}
	var refund Refund
	err := c.do(ctx, http.MethodPost, "/v1/refunds", body, &refund)
	return refund, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("billing: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("billing: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("billing: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNoSubscription
	case resp.StatusCode >= 400:
		return fmt.Errorf("billing: %s %s: provider returned %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("billing: decode response: %w", err)
		}
	}
	return nil
}
