// Package scaleway is a minimal client for the era Scaleway APIs the image
// builder needs: account lookup, marketplace image search, and the instance
// API for servers, snapshots, and images.
package scaleway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default API endpoints. Tests point these at local servers.
const (
	DefaultInstanceURL    = "https://api.scaleway.com"
	DefaultAccountURL     = "https://account.scaleway.com"
	DefaultMarketplaceURL = "https://api-marketplace.scaleway.com"
)

// DefaultPollInterval is the delay between state polls.
const DefaultPollInterval = time.Second

// Client talks to the Scaleway APIs with a single secret key.
type Client struct {
	Token          string
	InstanceURL    string
	AccountURL     string
	MarketplaceURL string
	PollInterval   time.Duration
	HTTPClient     *http.Client
}

// New returns a client for the public endpoints.
func New(token string) *Client {
	return &Client{
		Token:          token,
		InstanceURL:    DefaultInstanceURL,
		AccountURL:     DefaultAccountURL,
		MarketplaceURL: DefaultMarketplaceURL,
		PollInterval:   DefaultPollInterval,
		HTTPClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from any of the APIs.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) pollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return DefaultPollInterval
}

// do sends one request and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request for %s: %w", url, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("X-Auth-Token", c.Token)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", url, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			URL:        url,
			Message:    apiMessage(payload),
		}
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("failed to parse response from %s: %w", url, err)
		}
	}
	return nil
}

// apiMessage pulls the human-readable message out of an error payload.
func apiMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Message
}
