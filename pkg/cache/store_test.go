package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// runStoreContract exercises the behaviour every Store must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	t.Run("miss on empty store", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(context.Background(), "parts/missing.html")
		if !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("set and get", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		entry := &Entry{
			Path:       "parts/header.html",
			Content:    "<h1>Title</h1>",
			ETag:       `"abc123"`,
			StatusCode: 200,
			CachedAt:   time.Now(),
		}
		if err := store.Set(ctx, entry.Path, entry); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		got, err := store.Get(ctx, entry.Path)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Content != entry.Content {
			t.Errorf("Content = %q, want %q", got.Content, entry.Content)
		}
		if got.ETag != entry.ETag {
			t.Errorf("ETag = %q, want %q", got.ETag, entry.ETag)
		}
	})

	t.Run("content is kept byte for byte", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		// Latin-1 body, not valid UTF-8
		content := "<p>caf\xe9 cr\xe8me</p>\x00\xff"
		if err := store.Set(ctx, "latin1.html", &Entry{Content: content}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		got, err := store.Get(ctx, "latin1.html")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Content != content {
			t.Errorf("Content = %q, want %q", got.Content, content)
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_ = store.Set(ctx, "a.html", &Entry{Content: "first"})
		_ = store.Set(ctx, "a.html", &Entry{Content: "second"})

		got, err := store.Get(ctx, "a.html")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Content != "second" {
			t.Errorf("Content = %q, want %q", got.Content, "second")
		}
	})

	t.Run("paths are not normalised", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_ = store.Set(ctx, "parts/a.html", &Entry{Content: "relative"})
		if _, err := store.Get(ctx, "/parts/a.html"); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Expected ErrCacheMiss for distinct path, got %v", err)
		}
	})

	t.Run("nil entry", func(t *testing.T) {
		store := newStore(t)
		if err := store.Set(context.Background(), "a.html", nil); !errors.Is(err, ErrNilEntry) {
			t.Errorf("Expected ErrNilEntry, got %v", err)
		}
	})

	t.Run("clear removes everything", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		for _, p := range []string{"a.html", "b.html", "c.html"} {
			if err := store.Set(ctx, p, &Entry{Content: p}); err != nil {
				t.Fatalf("Set(%s) failed: %v", p, err)
			}
		}
		if n, _ := store.Len(ctx); n != 3 {
			t.Fatalf("Len before Clear = %d, want 3", n)
		}

		if err := store.Clear(ctx); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}

		if n, _ := store.Len(ctx); n != 0 {
			t.Errorf("Len after Clear = %d, want 0", n)
		}
		if _, err := store.Get(ctx, "a.html"); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Expected ErrCacheMiss after Clear, got %v", err)
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = store.Set(ctx, "shared.html", &Entry{Content: "x"})
				_, _ = store.Get(ctx, "shared.html")
			}()
		}
		wg.Wait()

		got, err := store.Get(ctx, "shared.html")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Content != "x" {
			t.Errorf("Content = %q, want %q", got.Content, "x")
		}
	})
}
