package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"solana-credit-lab/internal/logging"
	"solana-credit-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultRetries    = 3
	DefaultRetryDelay = 1 * time.Second
)

// maxErrorBody bounds how much of a failed response body ends up in errors.
const maxErrorBody = 512

// ErrInvalidRequest is returned for requests rejected before any network call.
var ErrInvalidRequest = errors.New("invalid request")

// Sleeper pauses between attempts and batches. Implementations must return
// early with ctx.Err() when the context is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f(ctx, d).
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// WallClock sleeps on real timers.
var WallClock Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.StatusCode == http.StatusTooManyRequests {
		return "rate limited (429)"
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// RequestError is returned once every attempt has failed. It wraps the
// failure of the final attempt.
type RequestError struct {
	Method   string
	URL      string // api keys redacted
	Attempts int
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %s %s: %v", e.Attempts, e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// RequestClient issues JSON requests with a per-request timeout and a fixed
// number of attempts separated by a fixed delay. It keeps no per-call state
// and is safe for concurrent use.
type RequestClient struct {
	client     *http.Client
	retries    int
	retryDelay time.Duration
	sleeper    Sleeper
	limiter    *rate.Limiter
	header     http.Header
	target     string
	logger     *logrus.Entry
}

// RequestOption configures RequestClient.
type RequestOption func(*RequestClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) RequestOption {
	return func(c *RequestClient) {
		c.client.Timeout = d
	}
}

// WithRetries sets the total number of attempts. Values below 1 become 1.
func WithRetries(n int) RequestOption {
	return func(c *RequestClient) {
		c.retries = n
	}
}

// WithRetryDelay sets the fixed delay between attempts.
func WithRetryDelay(d time.Duration) RequestOption {
	return func(c *RequestClient) {
		c.retryDelay = d
	}
}

// WithSleeper replaces the wall clock used between attempts.
func WithSleeper(s Sleeper) RequestOption {
	return func(c *RequestClient) {
		c.sleeper = s
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) RequestOption {
	return func(c *RequestClient) {
		c.client = client
	}
}

// WithRateLimit paces every attempt to at most rps requests per second.
func WithRateLimit(rps float64, burst int) RequestOption {
	return func(c *RequestClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) RequestOption {
	return func(c *RequestClient) {
		c.header.Set(key, value)
	}
}

// WithTarget names the upstream in metrics and logs.
func WithTarget(name string) RequestOption {
	return func(c *RequestClient) {
		c.target = name
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(e *logrus.Entry) RequestOption {
	return func(c *RequestClient) {
		c.logger = e
	}
}

// NewRequestClient creates a new resilient request client.
func NewRequestClient(opts ...RequestOption) *RequestClient {
	c := &RequestClient{
		client:     &http.Client{Timeout: DefaultTimeout},
		retries:    DefaultRetries,
		retryDelay: DefaultRetryDelay,
		sleeper:    WallClock,
		header:     make(http.Header),
		target:     "http",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retries < 1 {
		c.retries = 1
	}
	if c.sleeper == nil {
		c.sleeper = WallClock
	}
	c.logger = logging.OrDiscard(c.logger)
	return c
}

// Retries returns the configured number of attempts.
func (c *RequestClient) Retries() int {
	return c.retries
}

// Do sends a GET or POST request and decodes the JSON response into out
// (which may be nil). Network errors, non-2xx statuses and undecodable
// bodies are retried; the last failure is wrapped in *RequestError.
func (c *RequestClient) Do(ctx context.Context, method, rawURL string, body, out any) error {
	var payload []byte
	switch method {
	case http.MethodGet:
	case http.MethodPost:
		if body == nil {
			return fmt.Errorf("%w: POST requires a body", ErrInvalidRequest)
		}
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal body: %v", ErrInvalidRequest, err)
		}
		payload = b
	default:
		return fmt.Errorf("%w: unsupported method %q", ErrInvalidRequest, method)
	}

	safeURL := redactURL(rawURL)
	var lastErr error

	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			if err := c.sleeper.Sleep(ctx, c.retryDelay); err != nil {
				return err
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		start := time.Now()
		lastErr = c.attempt(ctx, method, rawURL, payload, out)
		elapsed := time.Since(start).Seconds()

		if lastErr == nil {
			observability.RecordRequest(c.target, observability.OutcomeSuccess, elapsed)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		outcome := observability.OutcomeRetry
		if attempt == c.retries {
			outcome = observability.OutcomeFailure
		}
		observability.RecordRequest(c.target, outcome, elapsed)
		c.logger.WithFields(logrus.Fields{
			"target":  c.target,
			"url":     safeURL,
			"attempt": attempt,
			"of":      c.retries,
		}).WithError(lastErr).Warn("upstream request attempt failed")
	}

	return &RequestError{
		Method:   method,
		URL:      safeURL,
		Attempts: c.retries,
		Err:      lastErr,
	}
}

// attempt performs a single round trip.
func (c *RequestClient) attempt(ctx context.Context, method, rawURL string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", redactErr(err))
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", redactErr(err))
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), maxErrorBody)}
	}

	if !json.Valid(respBody) {
		return fmt.Errorf("decode response: malformed JSON body (%d bytes)", len(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// redactURL hides api keys carried in query strings.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for _, key := range []string{"api-key", "api_key", "apikey"} {
		if q.Has(key) {
			q.Set(key, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// redactErr strips api keys from *url.Error values produced by net/http.
func redactErr(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = redactURL(ue.URL)
	}
	return err
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
