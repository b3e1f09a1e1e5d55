package assets

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/vietddude/moviesync/internal/infra/storage"
)

//go:embed static
var embedded embed.FS

// OfflinePath is the cache path of the canned offline response.
const OfflinePath = "/offline-request-response.json"

// DefaultName is the default cache version name.
const DefaultName = "my-movie-list-v3"

// DefaultPaths is the install-time asset list shipped with the binary.
var DefaultPaths = []string{
	"/",
	"/index.html",
	"/favicon.svg",
	OfflinePath,
}

// Entry is a cached response body.
type Entry struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Matcher looks up cached responses by request path.
type Matcher interface {
	Match(ctx context.Context, path string) (*Entry, bool, error)
}

// Cache is a named, versioned response cache persisted in the durable store.
// Entries live under "cache:<name>:<path>".
type Cache struct {
	store storage.KeyValueStore
	name  string
	log   *slog.Logger
}

var _ Matcher = (*Cache)(nil)

// NewCache opens the cache called name.
func NewCache(store storage.KeyValueStore, name string, log *slog.Logger) *Cache {
	if name == "" {
		name = DefaultName
	}
	if log == nil {
		log = slog.Default()
	}
	return &Cache{store: store, name: name, log: log}
}

// Name returns the cache version name.
func (c *Cache) Name() string {
	return c.name
}

func (c *Cache) key(p string) string {
	return fmt.Sprintf("cache:%s:%s", c.name, p)
}

// Put stores entry under path.
func (c *Cache) Put(ctx context.Context, p string, entry Entry) error {
	return storage.SetJSON(ctx, c.store, c.key(p), entry)
}

// Match returns the entry cached under path.
func (c *Cache) Match(ctx context.Context, p string) (*Entry, bool, error) {
	var entry Entry
	found, err := storage.GetJSON(ctx, c.store, c.key(p), &entry)
	if err != nil || !found {
		return nil, false, err
	}
	return &entry, true, nil
}

// Install copies paths from src into the cache. Paths missing from src are
// logged and skipped. It returns the number of cached entries.
func (c *Cache) Install(ctx context.Context, src fs.FS, paths []string) (int, error) {
	if src == nil {
		src = Embedded()
	}
	installed := 0
	for _, p := range paths {
		name := sourceName(p)
		body, err := fs.ReadFile(src, name)
		if errors.Is(err, fs.ErrNotExist) {
			c.log.Warn("Asset missing from install source, skipping", "path", p)
			continue
		}
		if err != nil {
			return installed, fmt.Errorf("failed to read asset %s: %w", p, err)
		}
		entry := Entry{ContentType: contentType(name), Body: body}
		if err := c.Put(ctx, p, entry); err != nil {
			return installed, fmt.Errorf("failed to cache asset %s: %w", p, err)
		}
		installed++
	}
	c.log.Info("Asset cache installed", "cache", c.name, "assets", installed)
	return installed, nil
}

// Embedded returns the asset set compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		panic(err) // static is part of the binary
	}
	return sub
}

// DefaultOfflinePayload returns the built-in offline response, used when the
// cache itself cannot be read.
func DefaultOfflinePayload() Entry {
	body, _ := fs.ReadFile(Embedded(), sourceName(OfflinePath))
	return Entry{ContentType: "application/json", Body: body}
}

func sourceName(p string) string {
	name := strings.TrimPrefix(path.Clean("/"+p), "/")
	if name == "" {
		return "index.html"
	}
	return name
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
