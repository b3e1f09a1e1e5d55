package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/moviesync/internal/infra/assets"
	"github.com/vietddude/moviesync/internal/infra/movieapi"
)

const defaultUpstream = "https://neighborly-airy-agate.glitch.me"

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	var cfg AppConfig
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}

	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = defaultUpstream
	}
	if cfg.Upstream.Style == "" {
		cfg.Upstream.Style = movieapi.StyleProxy
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 10 * time.Second
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverMemory
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "moviesync:"
	}

	if cfg.Sync.ProbeInterval == 0 {
		cfg.Sync.ProbeInterval = 5 * time.Second
	}
	if cfg.Sync.MaxAttempts == 0 {
		cfg.Sync.MaxAttempts = 3
	}

	if cfg.Assets.CacheName == "" {
		cfg.Assets.CacheName = assets.DefaultName
	}
	if len(cfg.Assets.Paths) == 0 {
		cfg.Assets.Paths = assets.DefaultPaths
	}

	if cfg.Notify.Timeout == 0 {
		cfg.Notify.Timeout = 5 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Client.MediatorURL == "" {
		cfg.Client.MediatorURL = fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = 15 * time.Second
	}
}

// Validate checks settings that have no sensible default.
func (c *AppConfig) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("storage driver redis requires redis.url")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("storage driver postgres requires database.url")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Upstream.Style {
	case movieapi.StyleProxy:
	case movieapi.StyleOMDb:
		if c.Upstream.APIKey == "" {
			return fmt.Errorf("upstream style omdb requires upstream.api_key")
		}
	default:
		return fmt.Errorf("unknown upstream style %q", c.Upstream.Style)
	}
	return nil
}
