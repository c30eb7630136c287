package cache

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis and skips when none is reachable.
// The integration build uses testcontainers-go instead.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewRedisStore(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	store := NewRedisStore(client, "sheets")
	if store == nil {
		t.Fatal("NewRedisStore returned nil")
	}
	if store.redis != client {
		t.Error("store redis client not set correctly")
	}
	if store.Namespace() != "sheets" {
		t.Errorf("Namespace() = %q, want sheets", store.Namespace())
	}
}

func TestNewRedisStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisStore should panic with nil redis client")
		}
	}()
	NewRedisStore(nil, "sheets")
}

func TestRedisStore_Contract(t *testing.T) {
	client := setupTestRedis(t)
	runStoreContract(t, func(t *testing.T) Store {
		client.FlushDB(context.Background())
		return NewRedisStore(client, "contract")
	})
}

func TestRedisStore_ClearKeepsOtherNamespaces(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	sheets := NewRedisStore(client, "sheets")
	other := NewRedisStore(client, "other")

	_ = sheets.Set(ctx, "a.html", &Entry{Content: "a"})
	_ = other.Set(ctx, "a.html", &Entry{Content: "b"})

	if err := sheets.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	got, err := other.Get(ctx, "a.html")
	if err != nil {
		t.Fatalf("other namespace lost its entry: %v", err)
	}
	if got.Content != "b" {
		t.Errorf("Content = %q, want b", got.Content)
	}
}

func TestRedisStore_InvalidEntry(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	store := NewRedisStore(client, "sheets")

	client.Set(ctx, Key{Namespace: "sheets", Path: "bad.html"}.String(), "not json", 0)

	if _, err := store.Get(ctx, "bad.html"); err == nil {
		t.Error("Expected error for corrupted entry")
	}
}

func TestEncodeEntry_KeepsNonUTF8Content(t *testing.T) {
	in := &Entry{
		Path:        "latin1.html",
		Content:     "caf\xe9",
		ContentType: "text/html; charset=iso-8859-1",
		StatusCode:  200,
	}

	data, err := encodeEntry(in)
	if err != nil {
		t.Fatalf("encodeEntry failed: %v", err)
	}

	out, err := decodeEntry(data)
	if err != nil {
		t.Fatalf("decodeEntry failed: %v", err)
	}
	if out.Content != in.Content {
		t.Errorf("Content = %q, want %q", out.Content, in.Content)
	}
	if out.ContentType != in.ContentType || out.Path != in.Path || out.StatusCode != in.StatusCode {
		t.Errorf("metadata = %+v, want %+v", out, in)
	}
}

func TestRedisStore_ClearKeepsNestedNamespace(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	parent := NewRedisStore(client, "a")
	nested := NewRedisStore(client, "a:b")

	_ = parent.Set(ctx, "x.html", &Entry{Content: "parent"})
	_ = nested.Set(ctx, "x.html", &Entry{Content: "nested"})

	if err := parent.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	got, err := nested.Get(ctx, "x.html")
	if err != nil {
		t.Fatalf("nested namespace lost its entry: %v", err)
	}
	if got.Content != "nested" {
		t.Errorf("Content = %q, want nested", got.Content)
	}
	if n, _ := parent.Len(ctx); n != 0 {
		t.Errorf("parent Len = %d, want 0", n)
	}
}
