// Package edgar implements the retrieval.Source that scrapes SEC EDGAR.
// EDGAR provides free access to company filings via the browse Atom feed
// and per-filing financial report pages.
//
// No API key required. Requests must include a User-Agent identifying the
// operator per SEC fair-access policy. Rate limit: 10 requests/second.
// Docs: https://www.sec.gov/os/accessing-edgar-data
package edgar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/seenimoa/filinglens/internal/infra"
	"github.com/seenimoa/filinglens/internal/retrieval"
)

const (
	defaultBaseURL = "https://www.sec.gov"

	// Stay under the SEC's published 10 req/s ceiling.
	defaultRateLimit = 8.0
	defaultBurst     = 4

	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	retryDelay        = 500 * time.Millisecond
)

// Client is a polite EDGAR HTTP client: identified User-Agent, token-bucket
// rate limiting, linear-backoff retries, and an optional on-disk response
// cache. Published filings never change, so cached responses stay valid for
// the cache's whole TTL.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	disk       *infra.DiskCache
	maxRetries int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the SEC host, mainly for tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets the request rate in requests per second and the burst
// size. Zero or negative values keep the defaults.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithDiskCache attaches an on-disk response cache.
func WithDiskCache(dc *infra.DiskCache) ClientOption {
	return func(c *Client) {
		if dc != nil {
			c.disk = dc
		}
	}
}

// WithMaxRetries sets how many times a retryable request is reattempted.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// NewClient creates an EDGAR client identifying itself with userAgent.
func NewClient(userAgent string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		disk:       &infra.DiskCache{},
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get fetches a URL, consulting the disk cache first. Responses only reach
// the cache after a 2xx status.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if c.disk.Enabled() {
		if data, ok := c.disk.Get(url); ok {
			return data, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		data, err := c.doGet(ctx, url)
		if err == nil {
			if c.disk.Enabled() {
				c.disk.Set(url, data) //nolint:errcheck // cache write failure is not a fetch failure
			}
			return data, nil
		}
		lastErr = err

		// Don't retry non-retryable errors
		if isNonRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/html, application/xml, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, retrieval.ErrRateLimited
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &retrieval.ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return io.ReadAll(resp.Body)
}

// isNonRetryable reports whether a request error is permanent. Client errors
// other than 429 are; server errors, rate limiting, and transport errors are
// worth another attempt.
func isNonRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var httpErr *retrieval.ErrHTTP
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 400 && httpErr.StatusCode < 500
	}
	return false
}
