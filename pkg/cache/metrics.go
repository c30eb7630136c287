package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Layer labels used by the store metrics.
const (
	LayerMemory = "memory"
	LayerRedis  = "redis"
)

var (
	// CacheHits tracks cache hits by layer
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fragment_cache_hits_total",
			Help: "Total number of fragment cache hits",
		},
		[]string{"layer"}, // "memory", "redis"
	)

	// CacheMisses tracks cache misses by layer
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fragment_cache_misses_total",
			Help: "Total number of fragment cache misses",
		},
		[]string{"layer"},
	)

	// CacheEntries tracks the number of entries held by layer
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fragment_cache_entries",
			Help: "Number of fragments held in the cache",
		},
		[]string{"layer"},
	)

	// CacheClears tracks clear-all operations
	CacheClears = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fragment_cache_clears_total",
			Help: "Total number of fragment cache resets",
		},
		[]string{"layer"},
	)

	// CacheErrors tracks backend operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fragment_cache_errors_total",
			Help: "Total number of fragment cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "clear", "len"
	)
)
