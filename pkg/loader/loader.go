// Package loader fetches HTML fragments, caches them and injects them into
// documents.
//
// A Loader owns a cache.Store. The first successful fetch of a path is stored
// and every later Load or Preload of that path is served from the store
// without a network request, until ClearCache empties it. Concurrent requests
// for the same uncached path share one fetch.
//
// Failures never panic. They are logged and returned as *Error values whose
// Kind tells callers why the operation failed.
package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/fragment-loader/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Prometheus metrics for loader operations.
var (
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fragment_loads_total",
		Help: "Total loader operations by operation and result",
	}, []string{"operation", "result"}) // operation: "load", "preload", "fragment"; result: "hit", "fetched" or an error kind

	sharedFetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fragment_shared_fetches_total",
		Help: "Total number of callers served by another caller's in-flight fetch",
	})
)

// Fetcher retrieves a fragment from its origin.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (*cache.Entry, error)
}

// Injector is a document holding targets addressable by id.
type Injector interface {
	Inject(targetID, fragment string) error
}

// Config holds the loader configuration.
type Config struct {
	// Fetcher retrieves fragments on cache misses (required)
	Fetcher Fetcher

	// Store caches fetched fragments. Defaults to a new MemoryStore.
	Store cache.Store

	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// Loader is the component loader.
type Loader struct {
	fetcher Fetcher
	store   cache.Store
	flight  singleflight.Group
	logger  zerolog.Logger
}

// flightResult is shared by all callers of one in-flight fetch.
type flightResult struct {
	entry    *cache.Entry
	cacheErr error
}

// New creates a new Loader.
func New(cfg Config) (*Loader, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}

	store := cfg.Store
	if store == nil {
		store = cache.NewMemoryStore()
	}

	logger := log.With().Str("component", "fragment-loader").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Loader{
		fetcher: cfg.Fetcher,
		store:   store,
		logger:  logger,
	}, nil
}

// Store returns the loader's cache.
func (l *Loader) Store() cache.Store {
	return l.store
}

// Load places the fragment at path into the element targetID of doc.
//
// A cached fragment is reused without a request. Otherwise the fragment is
// fetched; a failed fetch leaves both cache and document untouched. A
// successful fetch is cached before the target is looked up, so a missing
// target still leaves the fragment cached.
func (l *Loader) Load(ctx context.Context, doc Injector, path, targetID string) error {
	if path == "" {
		return l.fail("load", &Error{Kind: KindInvalidPath, TargetID: targetID, Err: errors.New("path is empty")})
	}

	content, result, err := l.content(ctx, "load", path)
	if err != nil {
		return err
	}

	if doc == nil {
		return l.fail("load", &Error{Kind: KindTargetNotFound, Path: path, TargetID: targetID, Err: errors.New("no document")})
	}

	if err := doc.Inject(targetID, content); err != nil {
		return l.fail("load", fromInjectError(path, targetID, err))
	}

	loadsTotal.WithLabelValues("load", result).Inc()
	l.logger.Debug().
		Str("path", path).
		Str("target", targetID).
		Bool("cache_hit", result == "hit").
		Msg("Fragment injected")

	return nil
}

// Preload warms the cache for path without touching any document.
func (l *Loader) Preload(ctx context.Context, path string) error {
	if path == "" {
		return l.fail("preload", &Error{Kind: KindInvalidPath, Err: errors.New("path is empty")})
	}

	_, result, err := l.content(ctx, "preload", path)
	if err != nil {
		return err
	}

	loadsTotal.WithLabelValues("preload", result).Inc()
	return nil
}

// Fragment returns the content for path from the cache, fetching and caching
// it on a miss.
func (l *Loader) Fragment(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", l.fail("fragment", &Error{Kind: KindInvalidPath, Err: errors.New("path is empty")})
	}

	content, result, err := l.content(ctx, "fragment", path)
	if err != nil {
		return "", err
	}

	loadsTotal.WithLabelValues("fragment", result).Inc()
	return content, nil
}

// ClearCache empties the whole cache.
func (l *Loader) ClearCache(ctx context.Context) error {
	if err := l.store.Clear(ctx); err != nil {
		l.logger.Error().Err(err).Msg("Failed to clear fragment cache")
		return &Error{Kind: KindCache, Err: err}
	}
	l.logger.Info().Msg("Fragment cache cleared")
	return nil
}

// Cached returns the cached content for path.
func (l *Loader) Cached(ctx context.Context, path string) (string, bool) {
	entry, err := l.store.Get(ctx, path)
	if err != nil {
		return "", false
	}
	return entry.Content, true
}

// content returns the fragment for path from the cache or the network.
// result is "hit" for cache hits and "fetched" otherwise.
func (l *Loader) content(ctx context.Context, op, path string) (string, string, error) {
	entry, err := l.store.Get(ctx, path)
	if err == nil {
		l.logger.Debug().Str("path", path).Msg("Fragment cache hit")
		return entry.Content, "hit", nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.logger.Warn().Err(err).Str("path", path).Msg("Cache get error")
	}

	// The shared fetch is not bound to any single caller's cancellation.
	// Each caller stops waiting when its own ctx ends.
	fetchCtx := context.WithoutCancel(ctx)
	ch := l.flight.DoChan(path, func() (interface{}, error) {
		entry, err := l.fetcher.Fetch(fetchCtx, path)
		if err != nil {
			return nil, err
		}
		res := &flightResult{entry: entry}
		res.cacheErr = l.store.Set(fetchCtx, path, entry)
		return res, nil
	})

	var r singleflight.Result
	select {
	case r = <-ch:
	case <-ctx.Done():
		return "", "", l.fail(op, &Error{Kind: KindNetwork, Path: path, Err: ctx.Err()})
	}
	if r.Shared {
		sharedFetchesTotal.Inc()
	}
	if r.Err != nil {
		return "", "", l.fail(op, fromFetchError(path, r.Err))
	}

	res := r.Val.(*flightResult)
	if res.cacheErr != nil {
		if op == "preload" {
			return "", "", l.fail(op, &Error{Kind: KindCache, Path: path, Err: res.cacheErr})
		}
		l.logger.Warn().Err(res.cacheErr).Str("path", path).Msg("Failed to cache fragment")
	}

	return res.entry.Content, "fetched", nil
}

// fail records and logs a failed operation.
func (l *Loader) fail(op string, err *Error) *Error {
	loadsTotal.WithLabelValues(op, string(err.Kind)).Inc()

	event := l.logger.Warn()
	if err.Kind == KindTargetNotFound {
		event = l.logger.Error()
	}
	event.Err(err.Err).
		Str("operation", op).
		Str("path", err.Path).
		Str("kind", string(err.Kind)).
		Int("status", err.StatusCode).
		Str("target", err.TargetID).
		Msg("Fragment operation failed")

	return err
}
