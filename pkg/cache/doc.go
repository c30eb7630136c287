// Package cache holds fetched HTML fragments keyed by their source path.
//
// A Store is an explicit object owned by whoever loads fragments. Entries are
// created on the first successful fetch of a path, are never evicted and are
// only removed by Clear, which empties the whole store.
//
// Two backends are provided:
//
//   - MemoryStore keeps entries in a process-local map (the default).
//   - RedisStore keeps entries in Redis so several processes can share a
//     warmed cache. Entries are stored without a TTL.
//
// # Basic Usage
//
//	store := cache.NewMemoryStore()
//
//	entry, err := store.Get(ctx, "parts/header.html")
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch the fragment, then
//		_ = store.Set(ctx, "parts/header.html", entry)
//	}
//
// # Redis Backend
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewRedisStore(redisClient, "sheets")
//
// Keys have the form fragment:<namespace>:<path>. Clear only removes keys of
// its own namespace.
//
// # Metrics
//
//   - fragment_cache_hits_total{layer} - Cache hits
//   - fragment_cache_misses_total{layer} - Cache misses
//   - fragment_cache_entries{layer} - Entries held by the store
//   - fragment_cache_clears_total{layer} - Clear operations
//   - fragment_cache_errors_total{operation} - Backend errors
package cache
