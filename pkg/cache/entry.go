package cache

import (
	"time"
)

// Entry is a cached HTML fragment.
type Entry struct {
	// Path is the fragment path the entry was fetched from
	Path string `json:"path"`

	// Content is the exact response body
	Content string `json:"content"`

	// ETag of the response, if the origin sent one
	ETag string `json:"etag,omitempty"`

	// LastModified from the origin's Last-Modified header
	LastModified time.Time `json:"last_modified,omitempty"`

	// ContentType of the response
	ContentType string `json:"content_type,omitempty"`

	// StatusCode is the HTTP status code of the fetch
	StatusCode int `json:"status_code"`

	// CachedAt is when the fragment was fetched
	CachedAt time.Time `json:"cached_at"`
}

// Size returns the content length in bytes.
func (e *Entry) Size() int {
	return len(e.Content)
}

// Age returns how long ago the entry was fetched.
// Returns 0 if CachedAt is unset.
func (e *Entry) Age() time.Duration {
	if e.CachedAt.IsZero() {
		return 0
	}
	return time.Since(e.CachedAt)
}
