package anthropic_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kadrlabs/anthropic-go/anthropic"
	"github.com/kadrlabs/anthropic-go/internal/fakeapi"
)

// newTestClient spins up a fake API and a client pointed at it.
func newTestClient(t *testing.T, opts ...anthropic.Option) (*fakeapi.Server, *anthropic.Client) {
	t.Helper()
	fake := fakeapi.New()
	fake.APIKey = "test-key"
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	opts = append([]anthropic.Option{anthropic.WithBaseURL(srv.URL + "/v1")}, opts...)
	return fake, anthropic.NewClient("test-key", opts...)
}

func basicParams() *anthropic.CreateMessageParams {
	return &anthropic.CreateMessageParams{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 256,
		Messages:  []anthropic.InputMessage{anthropic.NewUserMessage("Hello, Claude")},
	}
}

func TestClientSendsAuthHeaders(t *testing.T) {
	fake, client := newTestClient(t)

	_, err := client.CreateMessage(context.Background(), basicParams())
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	if got := fake.LastHeaders.Get("x-api-key"); got != "test-key" {
		t.Errorf("x-api-key = %q, want %q", got, "test-key")
	}
	if got := fake.LastHeaders.Get("anthropic-version"); got != anthropic.DefaultAPIVersion {
		t.Errorf("anthropic-version = %q, want %q", got, anthropic.DefaultAPIVersion)
	}
	if got := fake.LastHeaders.Get("content-type"); got != "application/json" {
		t.Errorf("content-type = %q, want application/json", got)
	}
}

func TestClientCustomAPIVersion(t *testing.T) {
	fake, client := newTestClient(t, anthropic.WithAPIVersion("2024-10-22"))

	if _, err := client.CreateMessage(context.Background(), basicParams()); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if got := fake.LastHeaders.Get("anthropic-version"); got != "2024-10-22" {
		t.Errorf("anthropic-version = %q, want 2024-10-22", got)
	}
}

func TestClientAuthenticationError(t *testing.T) {
	fake := fakeapi.New()
	fake.APIKey = "the-real-key"
	srv := httptest.NewServer(fake.Handler())
	defer srv.Close()

	client := anthropic.NewClient("wrong-key", anthropic.WithBaseURL(srv.URL+"/v1"))
	_, err := client.CreateMessage(context.Background(), basicParams())
	if !anthropic.IsAuthentication(err) {
		t.Fatalf("expected authentication_error, got %v", err)
	}

	var apiErr *anthropic.APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("expected *APIError")
	}
	if apiErr.StatusCode != 401 {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
}

func TestClientRetriesOverloaded(t *testing.T) {
	fake, client := newTestClient(t, anthropic.WithMaxRetries(3))
	fake.FailStatus = 529
	fake.FailCount = 2

	msg, err := client.CreateMessage(context.Background(), basicParams())
	if err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if msg.ID == "" {
		t.Error("expected a message after retries")
	}
}

func TestClientRetriesExhausted(t *testing.T) {
	fake, client := newTestClient(t, anthropic.WithMaxRetries(1))
	fake.FailStatus = 529
	fake.FailCount = 10

	_, err := client.CreateMessage(context.Background(), basicParams())
	if !anthropic.IsOverloaded(err) {
		t.Fatalf("expected overloaded_error after exhausting retries, got %v", err)
	}
}

func TestClientDoesNotRetryInvalidRequest(t *testing.T) {
	fake, client := newTestClient(t, anthropic.WithMaxRetries(3))
	fake.FailStatus = 400
	fake.FailCount = 1

	_, err := client.CreateMessage(context.Background(), basicParams())
	if !anthropic.IsInvalidRequest(err) {
		t.Fatalf("expected invalid_request_error, got %v", err)
	}
	// Only the injected failure should have been consumed.
	if fake.FailCount != 0 {
		t.Errorf("FailCount = %d, want 0", fake.FailCount)
	}
}

func TestRequestsPerMinutePassesThrough(t *testing.T) {
	_, client := newTestClient(t, anthropic.WithRequestsPerMinute(60))

	msg, err := client.CreateMessage(context.Background(), basicParams())
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.ID == "" {
		t.Error("expected a message within the rate budget")
	}
}

func TestRequestsPerMinuteLimitsRequests(t *testing.T) {
	// Allow only 2 requests per minute.
	_, client := newTestClient(t, anthropic.WithRequestsPerMinute(2))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	// First two should succeed immediately.
	for i := 0; i < 2; i++ {
		if _, err := client.CreateMessage(ctx, basicParams()); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}

	// Third should block and eventually fail due to the context timeout.
	if _, err := client.CreateMessage(ctx, basicParams()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline from rate limiting, got %v", err)
	}
}

func TestNewClientFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	t.Setenv("ANTHROPIC_API_VERSION", "2024-01-01")
	t.Setenv("ANTHROPIC_BASE_URL", "http://localhost:9999/v1")

	client, err := anthropic.NewClientFromEnv()
	if err != nil {
		t.Fatalf("NewClientFromEnv: %v", err)
	}
	if client.BaseURL() != "http://localhost:9999/v1" {
		t.Errorf("BaseURL = %q", client.BaseURL())
	}
	if client.APIVersion() != "2024-01-01" {
		t.Errorf("APIVersion = %q", client.APIVersion())
	}
}

func TestNewClientFromEnvMissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := anthropic.NewClientFromEnv(); !errors.Is(err, anthropic.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestWithBaseURLTrimsSlash(t *testing.T) {
	client := anthropic.NewClient("k", anthropic.WithBaseURL("https://example.com/v1/"))
	if client.BaseURL() != "https://example.com/v1" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", client.BaseURL())
	}
}
