// Package agentbox is a typed client for the agent-sandbox provider: it
// provisions ephemeral remote coding-agent sandboxes, streams conversation
// events from them, and suspends/restores their state via snapshots.
package agentbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// Client is the control-plane client for the sandbox provider. After
// creation the client is immutable and safe for concurrent use.
type Client struct {
	endpoints  *Endpoints
	apiSecret  string
	httpClient *http.Client

	// Custom headers to include in all requests
	headers map[string]string
}

// NewClient creates a new Client for the given base address. The address is
// parsed once; every operation endpoint is derived from it by substitution.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	endpoints, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	client := &Client{
		endpoints: endpoints,
		headers:   make(map[string]string),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// WithAPISecret sets the provider API secret. When set, every request
// carries a bearer-token Authorization header; when empty, the header is
// omitted entirely.
func WithAPISecret(secret string) ClientOption {
	return func(c *Client) {
		c.apiSecret = secret
	}
}

// WithTimeout sets the HTTP client timeout for control-plane calls. It does
// not apply to message streams; bound those with a context instead.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader adds a custom header that will be included in all requests.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// BaseURL returns the canonical base address the client was configured with.
func (c *Client) BaseURL() string {
	return c.endpoints.Base()
}

// newRequest builds a POST request for a logical operation with auth and
// custom headers applied.
func (c *Client) newRequest(ctx context.Context, operation string, body io.Reader) (*http.Request, error) {
	url, err := c.endpoints.URL(operation)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.apiSecret != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiSecret)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// envelope is the slice of every response body shared by all operations.
// A non-empty error field inside a 2xx response signals an application-level
// failure.
type envelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Status  int    `json:"status"`
}

// post issues one control-plane call: marshal payload, POST, check the
// transport status, check the envelope error field, then decode the result
// into out (when out is non-nil).
func (c *Client) post(ctx context.Context, operation string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, operation, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Error != "" || env.Message != "" && env.Code != "" {
		remote := &RemoteError{
			Code:    env.Code,
			Message: env.Message,
			Details: env.Details,
			Status:  env.Status,
		}
		if remote.Message == "" {
			remote.Message = env.Error
		}
		return remote
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
