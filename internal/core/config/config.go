package config

import (
	"time"

	"github.com/vietddude/moviesync/internal/bgsync"
	redisclient "github.com/vietddude/moviesync/internal/infra/redis"
	"github.com/vietddude/moviesync/internal/infra/movieapi"
	"github.com/vietddude/moviesync/internal/infra/storage/postgres"
	"github.com/vietddude/moviesync/internal/server"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   server.Config      `yaml:"server"`
	Upstream movieapi.Config    `yaml:"upstream"`
	Storage  StorageConfig      `yaml:"storage"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
	Sync     SyncConfig         `yaml:"sync"`
	Assets   AssetsConfig       `yaml:"assets"`
	Notify   NotifyConfig       `yaml:"notify"`
	Logging  LoggingConfig      `yaml:"logging"`
	Client   ClientConfig       `yaml:"client"`
}

// StorageConfig selects the durable store backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // memory, redis, postgres
}

// SyncConfig holds background sync settings.
type SyncConfig struct {
	// Disabled runs the mediator without background sync: failed requests
	// get the offline response and are never retried.
	Disabled      bool `yaml:"disabled"`
	bgsync.Config `yaml:",inline"`
}

// AssetsConfig controls the install-time asset cache.
type AssetsConfig struct {
	CacheName string   `yaml:"cache_name"`
	Dir       string   `yaml:"dir"` // optional; defaults to the embedded set
	Paths     []string `yaml:"paths"`
}

// NotifyConfig holds notification delivery settings.
type NotifyConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
	PrefsPath  string        `yaml:"prefs_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// ClientConfig tells the foreground where the mediator listens.
type ClientConfig struct {
	MediatorURL string        `yaml:"mediator_url"`
	Timeout     time.Duration `yaml:"timeout"`
}
