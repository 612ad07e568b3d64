// Package marketdata provides a resilient client for the upstream market-data
// API. Requests rotate user agents, retry on rate limits and errors, and fall
// back from the primary host to a mirror without surfacing retry mechanics to
// callers.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/guttosm/lookthrough/internal/cache"
	"github.com/guttosm/lookthrough/internal/logger"
)

const (
	DefaultPrimaryURL  = "https://query1.finance.yahoo.com"
	DefaultFallbackURL = "https://query2.finance.yahoo.com"
	DefaultTimeout     = 10 * time.Second
	DefaultMaxRetries  = 2
	DefaultRetryDelay  = time.Second
	DefaultCacheTTL    = 60 * time.Second

	maxBodyBytes = 8 << 20
)

var (
	// ErrAllEndpointsFailed is wrapped by every exhausted fetch.
	ErrAllEndpointsFailed = errors.New("all endpoints failed")
	// ErrNoData is returned by typed accessors when a response parses but
	// carries no usable result.
	ErrNoData = errors.New("no data in response")
)

// FetchError describes an exhausted fetch. It matches ErrAllEndpointsFailed
// and the last underlying cause with errors.Is, and also ErrNoData when the
// last answer was a 404.
type FetchError struct {
	Path       string
	Attempts   int
	LastStatus int
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %s after %d attempts", e.Path, ErrAllEndpointsFailed, e.Attempts)
	if e.LastStatus != 0 {
		msg += fmt.Sprintf(" (last status %d)", e.LastStatus)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() []error {
	errs := []error{ErrAllEndpointsFailed}
	if e.LastStatus == http.StatusNotFound {
		errs = append(errs, ErrNoData)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Result is the outcome of one FetchJSON call. Exactly one of Data and Err
// is set.
//
// Status is the HTTP status of the successful response, or 0 when every
// endpoint was exhausted. LastStatus is the last status observed on any
// attempt, 0 if no endpoint ever answered.
type Result struct {
	Data       json.RawMessage
	Err        error
	Status     int
	LastStatus int
	Host       string
	Attempts   int
	Cached     bool
}

// OK reports whether the fetch produced data.
func (r Result) OK() bool {
	return r.Err == nil && r.Data != nil
}

type fetchOptions struct {
	maxRetries int
	retryDelay time.Duration
	cacheTTL   time.Duration
}

// FetchOption tunes the retry and caching policy of a single call.
type FetchOption func(*fetchOptions)

// WithMaxRetries sets how many retries follow the first attempt on each host.
func WithMaxRetries(n int) FetchOption {
	return func(o *fetchOptions) { o.maxRetries = max(n, 0) }
}

// WithRetryDelay sets the base delay between attempts.
func WithRetryDelay(d time.Duration) FetchOption {
	return func(o *fetchOptions) { o.retryDelay = max(d, 0) }
}

// WithCacheTTL sets how long a successful payload may be served from cache.
// Zero disables caching for the call.
func WithCacheTTL(d time.Duration) FetchOption {
	return func(o *fetchOptions) { o.cacheTTL = max(d, 0) }
}

// Client fetches JSON from the upstream API. It is safe for concurrent use;
// concurrent calls share nothing but the response cache and the limiter.
type Client struct {
	hosts      []string
	httpClient *http.Client
	limiter    *rate.Limiter
	defaults   fetchOptions
	responses  *cache.TTL[string, json.RawMessage]
	sleep      func(ctx context.Context, d time.Duration) error
	log        zerolog.Logger
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHosts replaces the ordered list of equivalent base URLs. Blank entries
// are ignored.
func WithHosts(hosts ...string) ClientOption {
	return func(c *Client) {
		kept := make([]string, 0, len(hosts))
		for _, h := range hosts {
			h = strings.TrimRight(strings.TrimSpace(h), "/")
			if h != "" {
				kept = append(kept, h)
			}
		}
		c.hosts = kept
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-attempt network timeout. An injected HTTP client
// is copied first so its own Timeout stays untouched.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

// WithRateLimit throttles outbound attempts to requestsPerSecond.
// A non-positive value disables throttling.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithDefaults sets the policy applied when a call passes no options.
func WithDefaults(opts ...FetchOption) ClientOption {
	return func(c *Client) {
		for _, opt := range opts {
			opt(&c.defaults)
		}
	}
}

// NewClient creates a client for the primary host and its mirror.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		hosts:      []string{DefaultPrimaryURL, DefaultFallbackURL},
		httpClient: &http.Client{Timeout: DefaultTimeout},
		defaults: fetchOptions{
			maxRetries: DefaultMaxRetries,
			retryDelay: DefaultRetryDelay,
			cacheTTL:   DefaultCacheTTL,
		},
		responses: cache.New[string, json.RawMessage](),
		sleep:     sleepContext,
		log:       logger.Component("marketdata"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchJSON retrieves path from the first host that answers with a 2xx JSON
// body. It never panics and never returns a separate error: every failure is
// reported inside the Result.
func (c *Client) FetchJSON(ctx context.Context, path string, opts ...FetchOption) Result {
	o := c.defaults
	for _, opt := range opts {
		opt(&o)
	}

	if o.cacheTTL > 0 {
		if data, ok := c.responses.Get(path); ok {
			return Result{Data: data, Status: http.StatusOK, Cached: true}
		}
	}

	var (
		res     Result
		lastErr error
	)
	m := newRetryMachine(len(c.hosts), o.maxRetries, o.retryDelay)
	for m.state.phase == phaseTrying {
		if err := ctx.Err(); err != nil {
			lastErr = err
			m.abort()
			break
		}

		host := c.hosts[m.state.host]
		attempt := m.state.attempt
		out := c.attempt(ctx, host, path, attempt, o.cacheTTL)
		res.Attempts++
		if out.status != 0 {
			res.LastStatus = out.status
		}

		wait := m.advance(out.kind)
		if m.state.phase == phaseSucceeded {
			if o.cacheTTL > 0 {
				c.responses.Set(path, out.body, o.cacheTTL)
			}
			res.Data = out.body
			res.Status = out.status
			res.Host = host
			return res
		}

		lastErr = out.err
		c.log.Debug().
			Str("host", host).
			Str("path", path).
			Int("attempt", attempt).
			Int("status", out.status).
			Err(out.err).
			Dur("backoff", wait).
			Msg("upstream attempt failed")

		if m.state.phase == phaseTrying && wait > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				lastErr = err
				m.abort()
			}
		}
	}

	res.Err = &FetchError{Path: path, Attempts: res.Attempts, LastStatus: res.LastStatus, Err: lastErr}
	res.Status = 0
	c.log.Warn().
		Str("path", path).
		Int("attempts", res.Attempts).
		Int("last_status", res.LastStatus).
		Err(lastErr).
		Msg("upstream endpoints exhausted")
	return res
}

type attemptResult struct {
	kind   outcome
	status int
	body   json.RawMessage
	err    error
}

// attempt performs one GET against host and classifies the response.
func (c *Client) attempt(ctx context.Context, host, path string, attempt int, cacheTTL time.Duration) attemptResult {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return attemptResult{kind: outcomeFailed, err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+path, nil)
	if err != nil {
		return attemptResult{kind: outcomeFailed, err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgentFor(attempt))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "max-age="+strconv.Itoa(int(cacheTTL/time.Second)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return attemptResult{kind: outcomeFailed, err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return attemptResult{kind: outcomeRateLimited, status: resp.StatusCode, err: fmt.Errorf("upstream rate limited (status %d)", resp.StatusCode)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return attemptResult{kind: outcomeFailed, status: resp.StatusCode, err: fmt.Errorf("upstream status %d", resp.StatusCode)}
	case readErr != nil:
		return attemptResult{kind: outcomeFailed, status: resp.StatusCode, err: fmt.Errorf("read body: %w", readErr)}
	case !json.Valid(body):
		return attemptResult{kind: outcomeFailed, status: resp.StatusCode, err: errors.New("malformed JSON body")}
	}
	return attemptResult{kind: outcomeSuccess, status: resp.StatusCode, body: json.RawMessage(body)}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
