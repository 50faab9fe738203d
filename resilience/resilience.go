// Package resilience builds the HTTP client used to reach remote translation
// services. Requests that fail to connect or come back with a transient
// server status are retried with exponential backoff, and a circuit breaker
// stops hammering a service that keeps failing.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker refuses requests.
var ErrCircuitOpen = errors.New("circuit breaker open")

// MaxBackoff caps a single wait between transport retries.
const MaxBackoff = 120 * time.Second

// Config tunes the client. The zero value disables retries and the breaker.
type Config struct {
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries int
	// BackoffFactor is the wait before the first retry; each later retry
	// doubles it.
	BackoffFactor time.Duration
	// RetryStatuses are the HTTP statuses worth retrying.
	RetryStatuses []int
	// Timeout bounds connecting and waiting for response headers per attempt.
	Timeout time.Duration

	UseProxy bool
	ProxyURL string

	// BreakerThreshold is the number of consecutive failed requests that
	// opens the breaker; 0 disables it. BreakerTimeout is how long it stays
	// open before letting a probe through.
	BreakerThreshold uint32
	BreakerTimeout   time.Duration

	// Sleep waits between retries. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Logf receives one line per retry. Optional.
	Logf func(format string, args ...any)
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxRetries:       3,
		BackoffFactor:    300 * time.Millisecond,
		RetryStatuses:    []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		Timeout:          10 * time.Second,
		BreakerThreshold: 5,
		BreakerTimeout:   30 * time.Second,
	}
}

// TransportError reports a request that could not be completed at the
// connection level after all retries.
type TransportError struct {
	Method   string
	URL      string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: giving up after %d attempt(s): %v", e.Method, e.URL, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Backoff returns the wait before retry number retry (1-based):
// factor × 2^(retry-1), capped at MaxBackoff.
func Backoff(factor time.Duration, retry int) time.Duration {
	if retry < 1 || factor <= 0 {
		return 0
	}
	d := factor
	for i := 1; i < retry; i++ {
		d *= 2
		if d >= MaxBackoff {
			return MaxBackoff
		}
	}
	if d > MaxBackoff {
		return MaxBackoff
	}
	return d
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// Transport is an http.RoundTripper adding retries and a circuit breaker
// around a base transport.
type Transport struct {
	base     http.RoundTripper
	cfg      Config
	statuses map[int]bool
	breaker  *gobreaker.CircuitBreaker
}

// errRetryableStatus marks a response that exhausted its retries with a
// transient status, so the breaker counts it as a failure.
var errRetryableStatus = errors.New("retryable status")

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(cfg Config, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if cfg.Sleep == nil {
		cfg.Sleep = SleepContext
	}
	t := &Transport{
		base:     base,
		cfg:      cfg,
		statuses: make(map[int]bool, len(cfg.RetryStatuses)),
	}
	for _, s := range cfg.RetryStatuses {
		t.statuses[s] = true
	}
	if cfg.BreakerThreshold > 0 {
		threshold := cfg.BreakerThreshold
		t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "translation-http",
			MaxRequests: 1,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= threshold
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				t.logf("circuit %s: %s -> %s", name, from, to)
			},
		})
	}
	return t
}

// BreakerState returns the breaker state ("closed", "open", "half-open"),
// or "disabled".
func (t *Transport) BreakerState() string {
	if t.breaker == nil {
		return "disabled"
	}
	return t.breaker.State().String()
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.breaker == nil {
		return t.retry(req)
	}

	res, err := t.breaker.Execute(func() (interface{}, error) {
		resp, err := t.retry(req)
		if err != nil {
			return nil, err
		}
		if t.statuses[resp.StatusCode] {
			return resp, errRetryableStatus
		}
		return resp, nil
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %s %s", ErrCircuitOpen, req.Method, req.URL.Redacted())
	case errors.Is(err, errRetryableStatus):
		return res.(*http.Response), nil
	case err != nil:
		return nil, err
	}
	return res.(*http.Response), nil
}

func (t *Transport) retry(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	replayable := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if err := t.cfg.Sleep(ctx, Backoff(t.cfg.BackoffFactor, attempt)); err != nil {
				return nil, err
			}
		}

		r, err := rewind(req, attempt)
		if err != nil {
			return nil, err
		}

		last := attempt >= t.cfg.MaxRetries || !replayable
		resp, err := t.base.RoundTrip(r)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if last {
				return nil, &TransportError{Method: req.Method, URL: req.URL.Redacted(), Attempts: attempt + 1, Err: err}
			}
			t.logf("%s %s failed (%v), retry %d/%d", req.Method, req.URL.Host, err, attempt+1, t.cfg.MaxRetries)
			continue
		}

		if !t.statuses[resp.StatusCode] || last {
			return resp, nil
		}
		drain(resp)
		t.logf("%s %s returned %d, retry %d/%d", req.Method, req.URL.Host, resp.StatusCode, attempt+1, t.cfg.MaxRetries)
	}
}

// rewind returns the request to send for attempt, with a fresh body for
// retries.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 || req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("replaying request body: %w", err)
	}
	r := req.Clone(req.Context())
	r.Body = body
	return r, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

func (t *Transport) logf(format string, args ...any) {
	if t.cfg.Logf != nil {
		t.cfg.Logf(format, args...)
	}
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// NewClient returns an http.Client using a retrying Transport. The proxy is
// ProxyURL when UseProxy is set, otherwise taken from the environment.
func NewClient(cfg Config) (*http.Client, error) {
	base, err := baseTransport(cfg)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: NewTransport(cfg, base)}, nil
}

func baseTransport(cfg Config) (*http.Transport, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = http.ProxyFromEnvironment

	if cfg.UseProxy {
		if cfg.ProxyURL == "" {
			return nil, errors.New("proxy enabled but no proxy address set")
		}
		u, err := url.Parse(cfg.ProxyURL)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy address %q", cfg.ProxyURL)
		}
		tr.Proxy = http.ProxyURL(u)
	}

	if cfg.Timeout > 0 {
		tr.DialContext = (&net.Dialer{Timeout: cfg.Timeout, KeepAlive: 30 * time.Second}).DialContext
		tr.TLSHandshakeTimeout = cfg.Timeout
		tr.ResponseHeaderTimeout = cfg.Timeout
	}
	return tr, nil
}
