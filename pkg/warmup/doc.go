// Package warmup preloads many fragment paths in parallel.
//
// A Warmer hands paths to a fixed pool of workers, each calling Preload on
// the loader with its own timeout. An optional rate limit paces the calls so
// a cold start does not flood the fragment origin.
//
// Example usage:
//
//	w := warmup.New(fragmentLoader, warmup.DefaultConfig())
//	report, err := w.PreloadAll(ctx, []string{"parts/header.html", "parts/footer.html"})
//
// The warmer:
//   - Deduplicates the requested paths
//   - Spawns a worker pool (default 8 workers)
//   - Collects per-path failures instead of stopping at the first one
//   - Stops handing out work when the context is cancelled
package warmup
