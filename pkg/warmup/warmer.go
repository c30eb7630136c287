package warmup

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	warmupPathsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fragment_warmup_paths_total",
		Help: "Total paths processed by the warmer by result",
	}, []string{"result"}) // "ok", "failed"

	warmupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fragment_warmup_duration_seconds",
		Help:    "Duration of PreloadAll runs in seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60},
	})
)

// Config holds warmer configuration
type Config struct {
	// MaxConcurrency is the number of parallel preloads
	MaxConcurrency int
	// Timeout per preload
	Timeout time.Duration
	// RatePerSecond caps preloads started per second. Zero disables pacing.
	RatePerSecond float64
}

// DefaultConfig returns the default warmer configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 8,
		Timeout:        15 * time.Second,
	}
}

// Preloader warms the cache for a single path
type Preloader interface {
	Preload(ctx context.Context, path string) error
}

// Report is the outcome of a PreloadAll run
type Report struct {
	// Loaded lists the paths that are now cached, sorted
	Loaded []string
	// Failed maps paths to their preload error
	Failed map[string]error
	// Duration of the run
	Duration time.Duration
}

// Warmer preloads paths with a worker pool
type Warmer struct {
	preloader Preloader
	config    Config
	limiter   *rate.Limiter
}

// New creates a new Warmer
func New(preloader Preloader, config Config) *Warmer {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 8
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	w := &Warmer{
		preloader: preloader,
		config:    config,
	}
	if config.RatePerSecond > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(config.RatePerSecond), 1)
	}
	return w
}

type result struct {
	path string
	err  error
}

// PreloadAll preloads every distinct path. The returned error is non-nil when
// at least one path failed or the context ended before all paths were
// processed; the report is always returned.
func (w *Warmer) PreloadAll(ctx context.Context, paths []string) (*Report, error) {
	start := time.Now()
	unique := dedupe(paths)

	report := &Report{Failed: make(map[string]error)}
	if len(unique) == 0 {
		return report, nil
	}

	log.Info().
		Int("paths", len(unique)).
		Int("workers", w.config.MaxConcurrency).
		Msg("Starting fragment warmup")

	queue := make(chan string)
	results := make(chan result, len(unique))

	var wg sync.WaitGroup
	for i := 0; i < w.config.MaxConcurrency && i < len(unique); i++ {
		wg.Add(1)
		go w.worker(ctx, queue, results, &wg, i)
	}

	// Feed the queue until done or cancelled
	go func() {
		defer close(queue)
		for _, p := range unique {
			select {
			case queue <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	processed := make(map[string]bool, len(unique))
	for r := range results {
		processed[r.path] = true
		if r.err != nil {
			report.Failed[r.path] = r.err
			warmupPathsTotal.WithLabelValues("failed").Inc()
			log.Warn().
				Err(r.err).
				Str("path", r.path).
				Msg("Fragment preload failed")
			continue
		}
		report.Loaded = append(report.Loaded, r.path)
		warmupPathsTotal.WithLabelValues("ok").Inc()
	}

	// Paths never handed to a worker
	if ctx.Err() != nil {
		for _, p := range unique {
			if !processed[p] {
				report.Failed[p] = ctx.Err()
			}
		}
	}

	sort.Strings(report.Loaded)
	report.Duration = time.Since(start)
	warmupDuration.Observe(report.Duration.Seconds())

	log.Info().
		Int("loaded", len(report.Loaded)).
		Int("failed", len(report.Failed)).
		Dur("duration", report.Duration).
		Msg("Fragment warmup complete")

	if len(report.Failed) > 0 {
		return report, fmt.Errorf("warmup incomplete (%d/%d paths failed)", len(report.Failed), len(unique))
	}
	return report, nil
}

// worker preloads paths from the queue
func (w *Warmer) worker(ctx context.Context, queue <-chan string, results chan<- result, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	processed := 0

	for path := range queue {
		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				results <- result{path: path, err: err}
				continue
			}
		}

		pathCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		err := w.preloader.Preload(pathCtx, path)
		cancel()

		results <- result{path: path, err: err}
		processed++
	}

	log.Debug().
		Int("worker_id", workerID).
		Int("paths_processed", processed).
		Msg("Warmup worker completed")
}

// dedupe drops empty and repeated paths, keeping first occurrence order.
func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
