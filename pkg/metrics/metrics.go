// Package metrics exposes the Prometheus registry used by the fragment loader.
// Metrics are defined in the packages that record them (cache, fetch, loader,
// warmup) and registered through promauto on import.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the fragment loader.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - fragment_cache_hits_total{layer} (Counter): Cache hits by layer (memory, redis)
//   - fragment_cache_misses_total{layer} (Counter): Cache misses by layer
//   - fragment_cache_entries{layer} (Gauge): Entries held by the store
//   - fragment_cache_clears_total{layer} (Counter): Clear-all operations
//   - fragment_cache_errors_total{operation} (Counter): Backend errors
//
// Fetch Metrics (pkg/fetch):
//   - fragment_requests_total{status} (Counter): Requests by HTTP status or network_error
//   - fragment_request_duration_seconds (Histogram): Request duration
//   - fragment_errors_total{class} (Counter): Failures by class (network, client, server, status)
//
// Loader Metrics (pkg/loader):
//   - fragment_loads_total{operation, result} (Counter): load/preload outcomes
//   - fragment_shared_fetches_total (Counter): Callers served by another caller's fetch
//
// Warmup Metrics (pkg/warmup):
//   - fragment_warmup_paths_total{result} (Counter): Preloaded paths by result
//   - fragment_warmup_duration_seconds (Histogram): PreloadAll duration
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(fragment_cache_hits_total[5m])) /
//   (sum(rate(fragment_cache_hits_total[5m])) + sum(rate(fragment_cache_misses_total[5m])))
//
//   # Missing targets
//   rate(fragment_loads_total{result="target_not_found"}[5m])
//
//   # P95 Fetch Latency
//   histogram_quantile(0.95, rate(fragment_request_duration_seconds_bucket[5m]))
