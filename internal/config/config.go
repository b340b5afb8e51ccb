package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dkendall/homefeed/pkg/source"
)

// Config is the root configuration, loaded once per invocation.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Sources  SourcesConfig  `toml:"sources"`
	CORS     CORSConfig     `toml:"cors"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// ServerConfig configures the HTTP server and the daemon sync interval.
type ServerConfig struct {
	Address      string `toml:"address"`
	SyncInterval string `toml:"sync_interval"`
}

// ParseSyncInterval returns the daemon sync interval as a time.Duration.
func (s ServerConfig) ParseSyncInterval() time.Duration {
	d, err := time.ParseDuration(s.SyncInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// SourcesConfig holds one optional block per singleton kind and one list
// per multi-instance kind.
type SourcesConfig struct {
	Substack *SubstackConfig  `toml:"substack"`
	Bluesky  *BlueskyConfig   `toml:"bluesky"`
	Leaflet  []LeafletConfig  `toml:"leaflet"`
	BearBlog []BearBlogConfig `toml:"bearblog"`
}

// SubstackConfig addresses a single Substack publication.
type SubstackConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

// BlueskyConfig addresses a single Bluesky account.
type BlueskyConfig struct {
	Enabled bool   `toml:"enabled"`
	Handle  string `toml:"handle"`
}

// LeafletConfig addresses one of possibly several Leaflet publications.
type LeafletConfig struct {
	Enabled bool   `toml:"enabled"`
	ID      string `toml:"id"`
	BaseURL string `toml:"base_url"`
}

// BearBlogConfig addresses one of possibly several BearBlog publications.
type BearBlogConfig struct {
	Enabled bool   `toml:"enabled"`
	ID      string `toml:"id"`
	BaseURL string `toml:"base_url"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./homefeed.db"},
		Server: ServerConfig{
			Address:      "127.0.0.1:8080",
			SyncInterval: "1h",
		},
	}
}

// Load reads configuration from a TOML file and applies env var overrides.
// An empty path loads defaults only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read config %s: %v", source.ErrConfig, path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse config %s: %v", source.ErrConfig, path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Parse decodes TOML into cfg.
func Parse(data []byte, cfg *Config) error {
	return toml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOMEFEED_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("HOMEFEED_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("HOMEFEED_DEV_KEY"); v != "" {
		cfg.CORS.DevKey = v
	}
}
