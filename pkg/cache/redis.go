package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint used when iterating a namespace.
const scanBatch = 256

// redisEntry is the stored form of an Entry. Content travels as bytes, which
// encoding/json base64-encodes, so bodies that are not valid UTF-8 survive
// unchanged.
type redisEntry struct {
	Path         string    `json:"path"`
	Content      []byte    `json:"content"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified,omitempty"`
	ContentType  string    `json:"content_type,omitempty"`
	StatusCode   int       `json:"status_code"`
	CachedAt     time.Time `json:"cached_at"`
}

func encodeEntry(e *Entry) ([]byte, error) {
	return json.Marshal(redisEntry{
		Path:         e.Path,
		Content:      []byte(e.Content),
		ETag:         e.ETag,
		LastModified: e.LastModified,
		ContentType:  e.ContentType,
		StatusCode:   e.StatusCode,
		CachedAt:     e.CachedAt,
	})
}

func decodeEntry(data []byte) (*Entry, error) {
	var stored redisEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &Entry{
		Path:         stored.Path,
		Content:      string(stored.Content),
		ETag:         stored.ETag,
		LastModified: stored.LastModified,
		ContentType:  stored.ContentType,
		StatusCode:   stored.StatusCode,
		CachedAt:     stored.CachedAt,
	}, nil
}

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	redis     *redis.Client
	namespace string
}

// NewRedisStore creates a store that keeps its entries under namespace.
func NewRedisStore(redisClient *redis.Client, namespace string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis:     redisClient,
		namespace: namespace,
	}
}

// Namespace returns the key namespace of the store.
func (s *RedisStore) Namespace() string {
	return s.namespace
}

func (s *RedisStore) key(path string) string {
	return Key{Namespace: s.namespace, Path: path}.String()
}

// Get retrieves the entry cached for path.
// Returns ErrCacheMiss if the key doesn't exist.
func (s *RedisStore) Get(ctx context.Context, path string) (*Entry, error) {
	data, err := s.redis.Get(ctx, s.key(path)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.WithLabelValues(LayerRedis).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.WithLabelValues(LayerRedis).Inc()
	return entry, nil
}

// Set stores entry under path without expiration.
func (s *RedisStore) Set(ctx context.Context, path string, entry *Entry) error {
	if entry == nil {
		CacheErrors.WithLabelValues("set").Inc()
		return ErrNilEntry
	}

	data, err := encodeEntry(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.redis.Set(ctx, s.key(path), data, 0).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Clear deletes every key of the store's namespace.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.redis.Scan(ctx, 0, Pattern(s.namespace), scanBatch).Iterator()

	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.redis.Del(ctx, batch...).Err(); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= scanBatch {
			if err := flush(); err != nil {
				CacheErrors.WithLabelValues("clear").Inc()
				return fmt.Errorf("redis del: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return fmt.Errorf("redis scan: %w", err)
	}
	if err := flush(); err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	CacheClears.WithLabelValues(LayerRedis).Inc()
	CacheEntries.WithLabelValues(LayerRedis).Set(0)
	return nil
}

// Len counts the keys of the store's namespace.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n := 0
	iter := s.redis.Scan(ctx, 0, Pattern(s.namespace), scanBatch).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("len").Inc()
		return 0, fmt.Errorf("redis scan: %w", err)
	}

	CacheEntries.WithLabelValues(LayerRedis).Set(float64(n))
	return n, nil
}
