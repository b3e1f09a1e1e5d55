package assets

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/vietddude/moviesync/internal/infra/storage/memory"
)

func TestCache_InstallEmbeddedDefaults(t *testing.T) {
	store := memory.NewMemoryStorage()
	c := NewCache(store, "", nil)
	ctx := context.Background()

	n, err := c.Install(ctx, nil, DefaultPaths)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if n != len(DefaultPaths) {
		t.Fatalf("installed %d assets, want %d", n, len(DefaultPaths))
	}

	entry, found, err := c.Match(ctx, OfflinePath)
	if err != nil || !found {
		t.Fatalf("offline payload not cached: found=%v err=%v", found, err)
	}
	if !strings.HasPrefix(entry.ContentType, "application/json") {
		t.Errorf("content type = %q", entry.ContentType)
	}

	var body struct {
		Offline bool `json:"offline"`
	}
	if err := json.Unmarshal(entry.Body, &body); err != nil || !body.Offline {
		t.Errorf("offline payload should carry the offline marker: %s", entry.Body)
	}

	root, found, _ := c.Match(ctx, "/")
	if !found || !strings.Contains(string(root.Body), "<html") {
		t.Error("root path should map to index.html")
	}

	keys, _ := store.Keys(ctx, "cache:"+DefaultName+":")
	if len(keys) != len(DefaultPaths) {
		t.Errorf("expected %d keys under the cache name, got %v", len(DefaultPaths), keys)
	}
}

func TestCache_InstallSkipsMissing(t *testing.T) {
	c := NewCache(memory.NewMemoryStorage(), "v-test", nil)
	src := fstest.MapFS{
		"style.css": &fstest.MapFile{Data: []byte("body{}")},
	}

	n, err := c.Install(context.Background(), src, []string{"/style.css", "/script.js"})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("installed %d, want 1", n)
	}
	if _, found, _ := c.Match(context.Background(), "/script.js"); found {
		t.Error("missing asset should not be cached")
	}
}

func TestCache_VersionsAreIsolated(t *testing.T) {
	store := memory.NewMemoryStorage()
	ctx := context.Background()
	v2 := NewCache(store, "v2", nil)
	v3 := NewCache(store, "v3", nil)

	_ = v2.Put(ctx, OfflinePath, Entry{Body: []byte("old")})
	if _, found, _ := v3.Match(ctx, OfflinePath); found {
		t.Error("v3 should not see v2 entries")
	}
}

func TestDefaultOfflinePayload(t *testing.T) {
	entry := DefaultOfflinePayload()
	if len(entry.Body) == 0 {
		t.Fatal("built-in offline payload is empty")
	}
	if !json.Valid(entry.Body) {
		t.Error("built-in offline payload is not valid JSON")
	}
}
