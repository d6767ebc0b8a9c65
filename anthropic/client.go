// Package anthropic is a typed client for the Anthropic HTTP API: message
// creation (blocking and streaming), token counting, model listing, message
// batches, and the organization admin API-key endpoints.
//
// A minimal call looks like:
//
//	client := anthropic.NewClient(os.Getenv("ANTHROPIC_API_KEY"))
//	msg, err := client.CreateMessage(ctx, &anthropic.CreateMessageParams{
//	    Model:     "claude-sonnet-4-5-20250929",
//	    MaxTokens: 1024,
//	    Messages:  []anthropic.InputMessage{anthropic.NewUserMessage("Hello, Claude")},
//	})
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the production Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com/v1"
	// DefaultAPIVersion is sent in the anthropic-version header unless overridden.
	DefaultAPIVersion = "2023-06-01"

	defaultUserAgent  = "anthropic-go/0.3"
	defaultMaxRetries = 2
)

// Client talks to the Anthropic API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiVersion string
	userAgent  string
	maxRetries int
	limiter    *rateLimiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint, e.g. a proxy
// or a test server. Trailing slashes are trimmed.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		for len(u) > 0 && u[len(u)-1] == '/' {
			u = u[:len(u)-1]
		}
		c.baseURL = u
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithAPIVersion overrides the anthropic-version header.
func WithAPIVersion(v string) Option {
	return func(c *Client) { c.apiVersion = v }
}

// WithUserAgent overrides the user-agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMaxRetries sets how many times a request is retried after a
// retryable failure (429, 5xx, overloaded). Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRequestsPerMinute enables a client-side token bucket limiting
// outgoing requests. Zero leaves the client unthrottled.
func WithRequestsPerMinute(rpm int) Option {
	return func(c *Client) {
		if rpm > 0 {
			c.limiter = newRateLimiter(rpm)
		}
	}
}

// NewClient creates a client authenticated with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		apiVersion: DefaultAPIVersion,
		userAgent:  defaultUserAgent,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromEnv builds a client from ANTHROPIC_API_KEY, honoring the
// optional ANTHROPIC_API_VERSION and ANTHROPIC_BASE_URL overrides.
func NewClientFromEnv(opts ...Option) (*Client, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	var envOpts []Option
	if v := os.Getenv("ANTHROPIC_API_VERSION"); v != "" {
		envOpts = append(envOpts, WithAPIVersion(v))
	}
	if u := os.Getenv("ANTHROPIC_BASE_URL"); u != "" {
		envOpts = append(envOpts, WithBaseURL(u))
	}
	return NewClient(apiKey, append(envOpts, opts...)...), nil
}

// BaseURL returns the endpoint the client is configured against.
func (c *Client) BaseURL() string { return c.baseURL }

// APIVersion returns the anthropic-version header value in use.
func (c *Client) APIVersion() string { return c.apiVersion }

// do issues one API request, retrying retryable failures, and decodes a
// 2xx JSON response into out (which may be nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	raw, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// send performs the request/retry loop and returns the fully read response
// body. Callers that need the live body (streaming) use stream instead.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	resp, err := c.roundTrip(ctx, method, path, query, body, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s response: %w", method, path, err)
	}
	return raw, nil
}

// stream performs the request/retry loop but hands back the open response
// body on success. The caller owns closing it.
func (c *Client) stream(ctx context.Context, method, path string, body any, accept string) (*http.Response, error) {
	return c.roundTrip(ctx, method, path, nil, body, accept)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body any, accept string) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, backoff(attempt, lastErr)); err != nil {
				return nil, err
			}
		}
		if c.limiter != nil {
			if err := c.limiter.wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", c.apiVersion)
		req.Header.Set("user-agent", c.userAgent)
		if body != nil {
			req.Header.Set("content-type", "application/json")
		}
		if accept != "" {
			req.Header.Set("accept", accept)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%s %s: %w", method, path, err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		apiErr := decodeAPIError(resp)
		resp.Body.Close()
		if !apiErr.Temporary() || attempt == c.maxRetries {
			return nil, apiErr
		}
		lastErr = apiErr
	}
	return nil, lastErr
}

// backoff returns the delay before the given retry attempt, honoring a
// retry-after hint from the previous failure when present.
func backoff(attempt int, lastErr error) time.Duration {
	if apiErr, ok := lastErr.(*APIError); ok && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}
	d := time.Duration(math.Pow(2, float64(attempt-1))) * 500 * time.Millisecond
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// decodeAPIError maps a non-2xx response onto an *APIError, falling back
// to the raw body when the error envelope cannot be parsed.
func decodeAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(resp.Body)

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("request-id"),
	}
	if ra := resp.Header.Get("retry-after"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}

	var envelope struct {
		Type  string `json:"type"`
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Type != "" {
		apiErr.Type = envelope.Error.Type
		apiErr.Message = envelope.Error.Message
		return apiErr
	}

	apiErr.Type = typeForStatus(resp.StatusCode)
	apiErr.Message = string(raw)
	return apiErr
}

func typeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrorTypeInvalidRequest
	case http.StatusUnauthorized:
		return ErrorTypeAuthentication
	case http.StatusForbidden:
		return ErrorTypePermission
	case http.StatusNotFound:
		return ErrorTypeNotFound
	case http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case 529:
		return ErrorTypeOverloaded
	default:
		return ErrorTypeAPI
	}
}
