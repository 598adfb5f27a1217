// Package httpx is the JSON-over-HTTP transport shared by the collection and
// flag clients.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/lepinkainen/storefront/internal/errors"
	"github.com/lepinkainen/storefront/internal/ratelimit"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	maxBackoff         = 10 * time.Second
	// Longer Retry-After hints fail the request instead of blocking it.
	maxRetryAfter  = 15 * time.Second
	errorBodyLimit = 512
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client performs rate limited JSON GET requests with retries.
type Client struct {
	name          string
	httpClient    HTTPDoer
	rateLimiter   *ratelimit.Limiter
	retryAttempts int
	userAgent     string
	backoff       func(attempt int) time.Duration
	sleep         func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client. The name identifies the upstream in errors and
// logs.
func NewClient(name string, opts ...Option) *Client {
	client := &Client{
		name:          name,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		retryAttempts: defaultMaxAttempts,
		backoff:       backoffDelay,
		sleep:         sleepContext,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithTimeout replaces the HTTP client with one using the given timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		if timeout > 0 {
			client.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithRetryAttempts sets the number of attempts for retryable failures.
func WithRetryAttempts(attempts int) Option {
	return func(client *Client) {
		if attempts > 0 {
			client.retryAttempts = attempts
		}
	}
}

// WithRateLimiter sets the rate limiter. A nil limiter disables limiting.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		client.rateLimiter = limiter
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(client *Client) {
		client.userAgent = ua
	}
}

// WithBackoff overrides the delay between attempts.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(client *Client) {
		if fn != nil {
			client.backoff = fn
		}
	}
}

// Doer returns the underlying HTTP client, for callers that need raw bodies.
func (c *Client) Doer() HTTPDoer {
	return c.httpClient
}

// GetJSON fetches endpoint and decodes the JSON body into target.
func (c *Client) GetJSON(ctx context.Context, endpoint string, target any) error {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		err := c.doJSONRequest(ctx, endpoint, target)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == c.retryAttempts {
			break
		}

		delay := c.backoff(attempt)
		var rlErr *apperrors.RateLimitError
		if errors.As(err, &rlErr) && rlErr.RetryAfter > 0 {
			if rlErr.RetryAfter > maxRetryAfter {
				break
			}
			delay = rlErr.RetryAfter
		}
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s: %w", c.name, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) doJSONRequest(ctx context.Context, endpoint string, target any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return apperrors.NewRateLimitErrorWithRetry(
			fmt.Sprintf("%s rate limit reached", c.name),
			parseRetryAfter(resp.Header.Get("Retry-After")),
		)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return apperrors.NewStatusError(resp.StatusCode, endpoint, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}

func isRetryable(err error) bool {
	if apperrors.IsTemporaryStatus(err) || apperrors.IsRateLimitError(err) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		// Network errors (connection resets etc.)
		if strings.Contains(urlErr.Error(), "connection") {
			return true
		}
	}
	return false
}

func backoffDelay(attempt int) time.Duration {
	// exponential backoff capped at maxBackoff
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
