package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FetchError is the terminal failure for one URL: a network error that
// survived all retries, or a non-retryable HTTP status. Status is zero
// when no response was received.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RetryConfig bounds the retry/backoff policy for transient failures.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig returns the retry policy used when none is set.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   700 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// Client wraps outbound HTTP with the shared rate gate and a bounded
// retry/backoff policy. One Client instance is shared by every
// hospital pipeline in a run.
type Client struct {
	http  *http.Client
	gate  *Gate
	retry RetryConfig
	stall time.Duration
	log   zerolog.Logger
}

// NewClient builds a Client. timeout applies per API call; stall is
// the per-chunk timeout for streamed MRF downloads.
func NewClient(gate *Gate, retry RetryConfig, timeout, stall time.Duration, log zerolog.Logger) *Client {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}
	if retry.BaseDelay <= 0 {
		retry.BaseDelay = 700 * time.Millisecond
	}
	if retry.MaxDelay <= 0 {
		retry.MaxDelay = 30 * time.Second
	}
	return &Client{
		http:  &http.Client{Timeout: timeout},
		gate:  gate,
		retry: retry,
		stall: stall,
		log:   log,
	}
}

// Get issues a rate-limited GET and returns the full response body.
// Transient failures are retried with exponential backoff; anything
// else surfaces immediately as a *FetchError.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	target := u.String()

	var lastErr error
	var lastStatus int
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if err := c.gate.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, &FetchError{URL: target, Err: err}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if !isRetryableNetErr(err) || errors.Is(err, context.Canceled) {
				return nil, &FetchError{URL: target, Err: err}
			}
			lastErr = err
			c.backoff(ctx, attempt, 0)
			continue
		}

		body, readErr := readAndClose(resp.Body)
		if readErr != nil {
			lastErr, lastStatus = readErr, resp.StatusCode
			if !isRetryableNetErr(readErr) {
				break
			}
			c.backoff(ctx, attempt, 0)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		statusErr := fmt.Errorf("unexpected status %s: %s", resp.Status, snippet(body, 300))
		if !isRetryableStatus(resp.StatusCode) {
			return nil, &FetchError{URL: target, Status: resp.StatusCode, Err: statusErr}
		}

		lastErr, lastStatus = statusErr, resp.StatusCode
		c.log.Warn().Str("url", target).Int("status", resp.StatusCode).Int("attempt", attempt).Msg("retrying request")
		c.backoff(ctx, attempt, parseRetryAfter(resp))
	}

	return nil, &FetchError{URL: target, Status: lastStatus, Err: fmt.Errorf("giving up after %d attempts: %w", c.retry.MaxAttempts, lastErr)}
}

// backoff sleeps the exponential delay for the given attempt, honoring
// Retry-After when the server provided one. The final attempt gets no
// sleep: there is no retry left to wait for, so the terminal error
// surfaces immediately. Cancellation just returns; the caller's next
// gate.Wait or request surfaces the context error.
func (c *Client) backoff(ctx context.Context, attempt int, retryAfter time.Duration) {
	if attempt >= c.retry.MaxAttempts {
		return
	}
	sleep := retryAfter
	if sleep <= 0 {
		sleep = c.retry.BaseDelay * time.Duration(1<<(attempt-1))
		if sleep > c.retry.MaxDelay {
			sleep = c.retry.MaxDelay
		}
		sleep += time.Duration(rand.Intn(250)) * time.Millisecond
	}
	_ = sleepCtx(ctx, sleep)
}

func readAndClose(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusTooEarly:
		return true
	}
	return code >= 500 && code <= 599
}

func isRetryableNetErr(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "unexpected eof")
}

// parseRetryAfter parses a Retry-After header (seconds or HTTP date).
// Returns 0 when the header is missing or invalid.
func parseRetryAfter(resp *http.Response) time.Duration {
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
