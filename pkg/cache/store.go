package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested path is not cached
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates a stored entry could not be decoded
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrNilEntry is returned by Set when the entry is nil
	ErrNilEntry = errors.New("cache entry cannot be nil")
)

// Store is a fragment cache keyed by fragment path.
//
// Implementations must be safe for concurrent use. A Set for a path that is
// already present overwrites it (last write wins).
type Store interface {
	// Get returns the entry for path or ErrCacheMiss.
	Get(ctx context.Context, path string) (*Entry, error)

	// Set stores entry under path.
	Set(ctx context.Context, path string, entry *Entry) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Len returns the number of cached entries.
	Len(ctx context.Context) (int, error)
}
