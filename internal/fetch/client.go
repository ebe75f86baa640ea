package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/solclaim/solclaim/internal/config"
)

// Client is the shared HTTP GET primitive used by all metadata and price
// providers. Every call gets uniform retry handling: HTTP 429 waits
// backoff*(attempt+1) before retrying (linear growth, or the provider's
// Retry-After hint when given), any other failure waits the fixed backoff.
// Exhausting the retry ceiling returns no data rather than an error, since
// upstream providers are best-effort.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter

	maxRetries int
	backoff    time.Duration
	sleep      func(time.Duration)
	calls      atomic.Int64
}

// NewClient creates the fetch primitive with the default retry policy and
// a per-process rate limiter shared by all providers.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.APITimeout}
	}
	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimitPerHost), config.RateLimitPerHost),
		maxRetries: config.MaxRetries,
		backoff:    config.RetryBackoff,
		sleep:      time.Sleep,
	}
}

// Get fetches a URL with optional headers. Returns (body, true) on HTTP
// 200, or (nil, false) after the retry ceiling. Absent data is a valid,
// expected outcome for callers, not a failure signal.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, bool) {
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, false
		}

		body, err := c.doGet(ctx, url, headers)
		if err == nil {
			return body, true
		}

		last := attempt == c.maxRetries-1

		if config.IsTransient(err) {
			wait := config.GetRetryAfter(err)
			if wait == 0 {
				wait = c.backoff * time.Duration(attempt+1)
			}
			slog.Warn("rate limited, backing off",
				"url", url,
				"attempt", attempt+1,
				"wait", wait,
			)
			if !last {
				c.sleep(wait)
			}
			continue
		}

		slog.Warn("fetch failed", "url", url, "attempt", attempt+1, "error", err)

		if !last {
			c.sleep(c.backoff)
		}
	}

	slog.Warn("fetch retries exhausted", "url", url, "maxRetries", c.maxRetries)
	return nil, false
}

// doGet performs one HTTP GET attempt. A 429 comes back as a transient
// error carrying the provider's Retry-After hint when it sent one.
func (c *Client) doGet(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	c.calls.Add(1)

	reqCtx, cancel := context.WithTimeout(ctx, config.APITimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		rateErr := fmt.Errorf("%w: HTTP 429 from %s", config.ErrProviderRateLimit, url)
		if retryAfter := parseRetryAfter(resp.Header.Get("Retry-After")); retryAfter > 0 {
			return nil, config.NewTransientErrorWithRetry(rateErr, retryAfter)
		}
		return nil, config.NewTransientError(rateErr)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: HTTP %d from %s", config.ErrProviderUnavailable, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}

// parseRetryAfter reads a Retry-After header in delay-seconds form.
// HTTP-date form is rare on the providers we talk to and is ignored.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Calls returns the total number of HTTP attempts made. Used by tests to
// verify cache behavior.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}
