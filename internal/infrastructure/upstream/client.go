// Package upstream is the HTTP plumbing shared by provider adapters:
// per-provider quota limiting, one bounded retry for transient failures and
// classification of HTTP outcomes into domain.ProviderError kinds.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/macrolens/foodengine/internal/domain"
	"golang.org/x/time/rate"
)

const (
	// maxAttempts is the first call plus one retry for transient failures
	maxAttempts = 2

	maxBodyBytes = 4 << 20

	defaultRetryDelay = 500 * time.Millisecond
)

// Options configures a Client
type Options struct {
	RatePerSecond float64
	Burst         int
	HTTPTimeout   time.Duration
	RetryDelay    time.Duration
	UserAgent     string
}

// Client executes requests for a single provider
type Client struct {
	provider    string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	retryDelay  time.Duration
	userAgent   string
	debug       bool
}

// NewClient creates a client for the named provider
func NewClient(provider string, opts Options) *Client {
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 30 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "FoodEngine/1.0"
	}

	return &Client{
		provider: provider,
		httpClient: &http.Client{
			Timeout: opts.HTTPTimeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		retryDelay:  opts.RetryDelay,
		userAgent:   opts.UserAgent,
	}
}

// SetDebug enables request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Provider returns the provider tag this client reports errors under
func (c *Client) Provider() string {
	return c.provider
}

// GetJSON issues a GET and decodes a 200 response into out
func (c *Client) GetJSON(ctx context.Context, reqURL string, header http.Header, out interface{}) error {
	return c.do(ctx, http.MethodGet, reqURL, header, nil, out)
}

// PostJSON issues a POST with a JSON body and decodes a 200 response into out
func (c *Client) PostJSON(ctx context.Context, reqURL string, header http.Header, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Type", "application/json")
	return c.do(ctx, http.MethodPost, reqURL, header, payload, out)
}

// exponentialBackoff returns the wait before retry number attempt
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<(attempt-1))
}

func (c *Client) do(ctx context.Context, method, reqURL string, header http.Header, payload []byte, out interface{}) error {
	var lastErr *domain.ProviderError
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, exponentialBackoff(c.retryDelay, attempt-1)); err != nil {
				return c.contextError(err)
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return c.contextError(ctx.Err())
			}
			return domain.NewProviderError(c.provider, domain.KindRateLimited, fmt.Errorf("local quota: %w", err))
		}

		perr, retry := c.attempt(ctx, method, reqURL, header, payload, out)
		if perr == nil {
			return nil
		}
		lastErr = perr
		if !retry {
			return perr
		}
		log.Printf("[%s] transient failure (attempt %d/%d): %v", c.provider, attempt, maxAttempts, perr)
	}
	return lastErr
}

// attempt performs one HTTP exchange. retry reports whether the failure is
// transient.
func (c *Client) attempt(ctx context.Context, method, reqURL string, header http.Header, payload []byte, out interface{}) (*domain.ProviderError, bool) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return domain.NewProviderError(c.provider, domain.KindNetworkError, fmt.Errorf("failed to create request: %w", err)), false
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	if c.debug {
		log.Printf("[%s] %s %s", c.provider, method, redact(req))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return c.contextError(ctx.Err()), false
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return domain.NewProviderError(c.provider, domain.KindTimeout, err), false
		}
		return domain.NewProviderError(c.provider, domain.KindNetworkError, err), true
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.NewProviderError(c.provider, domain.KindNetworkError, fmt.Errorf("failed to read response: %w", err)), true
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if out == nil {
			return nil, false
		}
		if err := json.Unmarshal(data, out); err != nil {
			return domain.NewProviderError(c.provider, domain.KindSchemaError, fmt.Errorf("failed to decode response: %w", err)), false
		}
		return nil, false
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return domain.NewProviderError(c.provider, domain.KindAuthFailure, statusError(resp.StatusCode, data)), false
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewProviderError(c.provider, domain.KindNotFound, statusError(resp.StatusCode, data)), false
	case resp.StatusCode == http.StatusTooManyRequests:
		perr := domain.NewProviderError(c.provider, domain.KindRateLimited, statusError(resp.StatusCode, data))
		perr.RetryAfter = time.Duration(ParseRetryAfterHeader(resp.Header.Get("Retry-After"))) * time.Second
		return perr, false
	case resp.StatusCode >= 500:
		return domain.NewProviderError(c.provider, domain.KindNetworkError, statusError(resp.StatusCode, data)), true
	default:
		return domain.NewProviderError(c.provider, domain.KindNetworkError, statusError(resp.StatusCode, data)), false
	}
}

func (c *Client) contextError(err error) *domain.ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewProviderError(c.provider, domain.KindTimeout, err)
	}
	return domain.NewProviderError(c.provider, domain.KindNetworkError, err)
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}

func statusError(status int, body []byte) error {
	const maxSnippet = 200
	if len(body) > maxSnippet {
		body = body[:maxSnippet]
	}
	return fmt.Errorf("status %d: %s", status, string(body))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// redact strips credentials from the logged URL
func redact(req *http.Request) string {
	u := *req.URL
	q := u.Query()
	for _, k := range []string{"api_key", "app_key", "app_id"} {
		if q.Has(k) {
			q.Set(k, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
