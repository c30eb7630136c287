// Package fetch retrieves HTML fragments over HTTP.
//
// A Fetcher makes exactly one GET request per call. Any 2xx response is a
// success; everything else is returned as an *Error with a class describing
// the failure. There is no retry policy: callers that want another attempt
// call Fetch again.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/fragment-loader/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for fragment fetches.
var (
	fragmentRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fragment_requests_total",
		Help: "Total fragment requests by status",
	}, []string{"status"})

	fragmentRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fragment_request_duration_seconds",
		Help:    "Fragment request duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})

	fragmentErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fragment_errors_total",
		Help: "Total fragment fetch errors by class",
	}, []string{"class"})
)

// Fetcher performs fragment requests.
type Fetcher struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the fetcher configuration.
type Config struct {
	// BaseURL resolves relative fragment paths. Optional when every path is
	// an absolute URL.
	BaseURL string

	// User-Agent header sent with every request
	UserAgent string

	// Timeout for the whole request. Zero leaves the request bounded only by
	// the caller's context.
	Timeout time.Duration

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// DefaultConfig returns a configuration for fetching from baseURL.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
	}
}

// New creates a new Fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	var base *url.URL
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		if !u.IsAbs() {
			return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
		}
		base = u
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Fetcher{
		httpClient: httpClient,
		baseURL:    base,
		config:     cfg,
		logger:     log.With().Str("component", "fragment-fetcher").Logger(),
	}, nil
}

// Resolve returns the absolute URL for a fragment path.
func (f *Fetcher) Resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path: %w", err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if f.baseURL == nil {
		return "", fmt.Errorf("relative path %q without base url", path)
	}
	return f.baseURL.ResolveReference(ref).String(), nil
}

// Fetch performs a GET for path and returns the response as a cache entry.
func (f *Fetcher) Fetch(ctx context.Context, path string) (*cache.Entry, error) {
	startTime := time.Now()
	defer func() {
		fragmentRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	target, err := f.Resolve(path)
	if err != nil {
		return nil, f.networkError(path, "", fmt.Errorf("resolve: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, f.networkError(path, target, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html")

	f.logger.Debug().
		Str("path", path).
		Str("url", target).
		Msg("Fetching fragment")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		fragmentRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, f.networkError(path, target, err)
	}
	defer resp.Body.Close()

	fragmentRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)

		class := classifyStatus(resp.StatusCode)
		fragmentErrorsTotal.WithLabelValues(string(class)).Inc()

		f.logger.Warn().
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Fragment request failed")

		return nil, &Error{
			Class:      class,
			StatusCode: resp.StatusCode,
			Path:       path,
			URL:        target,
		}
	}

	entry, err := cache.ResponseToEntry(path, resp)
	if err != nil {
		return nil, f.networkError(path, target, err)
	}

	f.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Int("bytes", entry.Size()).
		Msg("Fragment fetched")

	return entry, nil
}

// networkError records a failure without a response. target is empty when
// path could not be resolved to a URL.
func (f *Fetcher) networkError(path, target string, err error) *Error {
	fragmentErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()

	event := f.logger.Warn()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		event = f.logger.Debug()
	}
	event = event.Err(err).Str("path", path)
	if target != "" {
		event = event.Str("url", target)
	}
	event.Msg("Fragment request failed")

	return &Error{
		Class: ErrorClassNetwork,
		Path:  path,
		URL:   target,
		Err:   err,
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (f *Fetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}
