package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const AppName = "wandergram"

type Config struct {
	Cache  CacheConfig  `koanf:"cache"`
	Remote RemoteConfig `koanf:"remote"`
	Drafts DraftConfig  `koanf:"drafts"`
}

// CacheConfig controls the embedded store. TTLs are fixed per entity and
// intentionally not configurable here; only capacities and placement are.
type CacheConfig struct {
	Path string `koanf:"path"` // SQLite file location

	PostCapacity int `koanf:"post_capacity"` // capacity trim bound for posts
	UserCapacity int `koanf:"user_capacity"` // capacity trim bound for users

	SweepMaxAgeHours int `koanf:"sweep_max_age_hours"` // TTL sweep deletion age
}

type RemoteConfig struct {
	BaseURL        string  `koanf:"base_url"`
	AuthToken      string  `koanf:"auth_token"`
	RequestsPerSec float64 `koanf:"requests_per_sec"`
	TimeoutSeconds int     `koanf:"timeout_seconds"`
}

type DraftConfig struct {
	UploadWorkers       int `koanf:"upload_workers"`
	FailedRetentionDays int `koanf:"failed_retention_days"`
}

func (c *CacheConfig) SweepMaxAge() time.Duration {
	return time.Duration(c.SweepMaxAgeHours) * time.Hour
}

func (c *DraftConfig) FailedRetention() time.Duration {
	return time.Duration(c.FailedRetentionDays) * 24 * time.Hour
}

// Default returns the default configuration with the cache placed in the
// XDG data directory.
func Default() (*Config, error) {
	dbPath, err := xdg.DataFile(filepath.Join(AppName, "cache.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve default cache path: %w", err)
	}

	return &Config{
		Cache: CacheConfig{
			Path:             dbPath,
			PostCapacity:     10000,
			UserCapacity:     5000,
			SweepMaxAgeHours: 7 * 24,
		},
		Remote: RemoteConfig{
			BaseURL:        "https://api.wandergram.app",
			RequestsPerSec: 5,
			TimeoutSeconds: 15,
		},
		Drafts: DraftConfig{
			UploadWorkers:       2,
			FailedRetentionDays: 14,
		},
	}, nil
}

// Load reads configuration from path, falling back to the XDG config file
// and writing a commented default when none exists yet.
func Load(path string) (*Config, error) {
	def, err := Default()
	if err != nil {
		return nil, err
	}

	cfgPath := path
	if cfgPath == "" {
		cfgPath, err = xdg.ConfigFile(filepath.Join(AppName, "config.yaml"))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve default config path: %w", err)
		}
	}
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		if err := writeDefaultConfig(cfgPath, def); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(cfgPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	// Unmarshal into a value copy so the fallback reads below still see
	// the untouched defaults.
	cfg := *def
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Cache.Path == "" {
		cfg.Cache.Path = def.Cache.Path
	}
	if cfg.Cache.PostCapacity <= 0 {
		cfg.Cache.PostCapacity = def.Cache.PostCapacity
	}
	if cfg.Cache.UserCapacity <= 0 {
		cfg.Cache.UserCapacity = def.Cache.UserCapacity
	}
	if cfg.Drafts.UploadWorkers <= 0 {
		cfg.Drafts.UploadWorkers = def.Drafts.UploadWorkers
	}
	return &cfg, nil
}

func writeDefaultConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	content := fmt.Sprintf(`# wandergram cache engine configuration.
cache:
  # SQLite file backing the offline cache.
  path: "%s"
  # Keep at most this many posts / users; older rows are trimmed.
  post_capacity: %d
  user_capacity: %d
  # Rows older than this are removed by the TTL sweep.
  sweep_max_age_hours: %d
remote:
  base_url: "%s"
  # Leave empty to run unauthenticated.
  auth_token: ""
  requests_per_sec: %g
  timeout_seconds: %d
drafts:
  upload_workers: %d
  failed_retention_days: %d
`,
		cfg.Cache.Path,
		cfg.Cache.PostCapacity,
		cfg.Cache.UserCapacity,
		cfg.Cache.SweepMaxAgeHours,
		cfg.Remote.BaseURL,
		cfg.Remote.RequestsPerSec,
		cfg.Remote.TimeoutSeconds,
		cfg.Drafts.UploadWorkers,
		cfg.Drafts.FailedRetentionDays,
	)
	return os.WriteFile(path, []byte(content), 0600)
}
