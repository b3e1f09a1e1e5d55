package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/vietddude/moviesync/internal/infra/storage"
)

func newTestRepo(t *testing.T) *KVRepo {
	t.Helper()
	dbURL := os.Getenv("MOVIESYNC_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("MOVIESYNC_TEST_DATABASE_URL not set (integration test)")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, Config{URL: dbURL})
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM kv_store WHERE key LIKE 'test:%'`); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	return NewKVRepo(db)
}

func TestKVRepo_SetGetTake(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "test:slot", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := repo.Set(ctx, "test:slot", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Set (overwrite) failed: %v", err)
	}

	got, err := repo.Get(ctx, "test:slot")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"a":2}` {
		t.Errorf("expected overwritten value, got %s", got)
	}

	got, err = repo.Take(ctx, "test:slot")
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if string(got) != `{"a":2}` {
		t.Errorf("unexpected taken value %s", got)
	}

	if _, err := repo.Take(ctx, "test:slot"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second Take should be ErrNotFound, got %v", err)
	}
}

func TestKVRepo_Keys(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_ = repo.Set(ctx, "test:movie:tt2", []byte(`{}`))
	_ = repo.Set(ctx, "test:movie:tt1", []byte(`{}`))
	_ = repo.Set(ctx, "test:other", []byte(`{}`))

	keys, err := repo.Keys(ctx, "test:movie:")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "test:movie:tt1" {
		t.Errorf("unexpected keys %v", keys)
	}

	if err := repo.Delete(ctx, "test:other"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, "test:other"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
