package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff between HTTP attempts.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used when HTTPAdapter.Backoff is zero.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// breakerTripFailures is the number of consecutive failed attempts against one
// host that opens its breaker. With DefaultBackoff a single exhausted Collect
// makes four attempts, so a second failing run trips it.
const breakerTripFailures = 5

var (
	breakersMu sync.Mutex
	breakers   = make(map[string]*gobreaker.CircuitBreaker)
)

// breakerFor returns the circuit breaker shared by every adapter reading from
// host. Adapters are rebuilt on each pipeline run, so the breaker state has to
// outlive them.
func breakerFor(host string) *gobreaker.CircuitBreaker {
	breakersMu.Lock()
	defer breakersMu.Unlock()

	if cb, ok := breakers[host]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "csv:" + host,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripFailures
		},
		// A 4xx says nothing about the host's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errUnexpected)
		},
	})
	breakers[host] = cb
	return cb
}

// HTTPAdapter downloads a CSV document from a URL and parses it the same way
// CSVAdapter parses a file. Transient failures (transport errors, 429, 5xx)
// are retried with exponential backoff behind a circuit breaker shared per
// host.
type HTTPAdapter struct {
	// URL is the http or https location of the CSV document.
	URL string
	// HTTPClient is optional; if nil a default client with timeout is used.
	HTTPClient *http.Client
	// Backoff is optional; zero value means DefaultBackoff.
	Backoff BackoffConfig
}

func (h *HTTPAdapter) Name() string { return "http" }

// String returns the location the adapter reads from.
func (h *HTTPAdapter) String() string { return h.URL }

// Collect implements Adapter.
func (h *HTTPAdapter) Collect(ctx context.Context) (*DataFrame, error) {
	if h.URL == "" {
		return nil, errors.New("http adapter: URL is required")
	}
	u, err := url.Parse(h.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	cli := h.HTTPClient
	if cli == nil {
		cli = &http.Client{Timeout: 10 * time.Second}
	}
	backoff := h.Backoff
	if backoff.InitialInterval <= 0 {
		backoff = DefaultBackoff
	}

	resp, err := doWithRetry(ctx, breakerFor(u.Host), cli, backoff, u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	df, err := parseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", u.Redacted(), err)
	}
	return df, nil
}

func doWithRetry(ctx context.Context, circuit *gobreaker.CircuitBreaker, cli *http.Client, backoff BackoffConfig, target string) (*http.Response, error) {
	var attempt int
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := circuit.Execute(func() (any, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

			resp, err := cli.Do(req)
			if err != nil {
				return nil, err
			}
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				resp.Body.Close()
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
			return resp, nil
		})
		if err == nil {
			return result.(*http.Response), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		// 4xx other than 429 will not improve on retry.
		if errors.Is(err, errUnexpected) || attempt >= backoff.MaxRetries {
			return nil, err
		}

		delay := backoff.InitialInterval << attempt
		if backoff.MaxInterval > 0 && delay > backoff.MaxInterval {
			delay = backoff.MaxInterval
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}
