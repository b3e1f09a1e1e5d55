package redis

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/vietddude/moviesync/internal/infra/storage"
)

func newTestStore(t *testing.T) *KVStore {
	t.Helper()
	url := os.Getenv("MOVIESYNC_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MOVIESYNC_TEST_REDIS_URL not set (integration test)")
	}
	client, err := NewClient(Config{URL: url, KeyPrefix: "test:" + uuid.NewString() + ":"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewKVStore(client)
}

func TestKVStore_TakeIsReadOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "background-search-query", []byte(`{"payload":"batman"}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := s.Take(ctx, "background-search-query")
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if string(got) != `{"payload":"batman"}` {
		t.Errorf("unexpected value %s", got)
	}
	if _, err := s.Take(ctx, "background-search-query"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestKVStore_KeysStripsPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "movie:tt1", []byte(`{}`))
	_ = s.Set(ctx, "movie:tt2", []byte(`{}`))
	_ = s.Set(ctx, "next-launch-query-results", []byte(`[]`))

	keys, err := s.Keys(ctx, "movie:")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "movie:tt1" || keys[1] != "movie:tt2" {
		t.Errorf("unexpected keys %v", keys)
	}

	if err := s.Delete(ctx, "movie:tt1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "movie:tt1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEscapePattern(t *testing.T) {
	if got := escapePattern("a*b?[c]"); got != `a\*b\?\[c\]` {
		t.Errorf("escapePattern = %q", got)
	}
}
