// Package config provides the YAML configuration model and
// load/save behavior, including first-run config creation.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/pmorell/localevents/internal/rank"
)

// DeviceClass tunes fetch limits and timeouts. Constrained clients get
// a larger limit and timeout so a slow first load still completes.
type DeviceClass string

const (
	DeviceStandard    DeviceClass = "standard"
	DeviceConstrained DeviceClass = "constrained"
)

// FetchConfig holds per-device-class fetch tuning.
type FetchConfig struct {
	// Limit is the maximum number of events requested per fetch.
	Limit int `yaml:"limit" json:"limit"`
	// TimeoutSeconds bounds a single fetch request.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
	// BackupDelaySeconds is how long to wait before the one-shot
	// backup fetch fires when the store is still empty.
	BackupDelaySeconds int `yaml:"backup_delay_seconds" json:"backup_delay_seconds"`
}

// DatabaseConfig holds the optional Postgres event source settings.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Host     string `yaml:"host" json:"host"`
	Port     string `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	DBName   string `yaml:"dbname" json:"dbname"`
	SSLMode  string `yaml:"sslmode" json:"sslmode"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// UpstreamURL is the base URL of the upstream event API. Ignored
	// when the database source is enabled.
	UpstreamURL string `yaml:"upstream_url" json:"upstream_url"`

	// DeviceClass selects which fetch tuning applies.
	DeviceClass DeviceClass `yaml:"device_class" json:"device_class"`

	// Fetch holds per-class fetch tuning.
	Fetch map[DeviceClass]FetchConfig `yaml:"fetch" json:"fetch"`

	// RefreshCron is a cron-style schedule for periodic refetch of the
	// event list (e.g. "*/15 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Ranking holds the priority-score tuning constants. The stock
	// values were tuned empirically; change with care.
	Ranking rank.Weights `yaml:"ranking" json:"ranking"`

	// Database configures the optional Postgres-backed event source.
	Database DatabaseConfig `yaml:"database" json:"database"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		UpstreamURL: "http://127.0.0.1:9000/api",
		DeviceClass: DeviceStandard,
		Fetch: map[DeviceClass]FetchConfig{
			DeviceStandard:    {Limit: 500, TimeoutSeconds: 10, BackupDelaySeconds: 5},
			DeviceConstrained: {Limit: 1000, TimeoutSeconds: 30, BackupDelaySeconds: 12},
		},
		RefreshCron: "*/15 * * * *",
		Ranking:     rank.DefaultWeights(),
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			DBName:  "localevents",
			SSLMode: "disable",
		},
	}
}

// Normalize fills in missing/zero values so partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.UpstreamURL == "" {
		c.UpstreamURL = d.UpstreamURL
	}
	switch c.DeviceClass {
	case DeviceStandard, DeviceConstrained:
	default:
		c.DeviceClass = DeviceStandard
	}
	if c.Fetch == nil {
		c.Fetch = map[DeviceClass]FetchConfig{}
	}
	for _, class := range []DeviceClass{DeviceStandard, DeviceConstrained} {
		fc := c.Fetch[class]
		def := d.Fetch[class]
		if fc.Limit <= 0 {
			fc.Limit = def.Limit
		}
		if fc.TimeoutSeconds <= 0 {
			fc.TimeoutSeconds = def.TimeoutSeconds
		}
		if fc.BackupDelaySeconds <= 0 {
			fc.BackupDelaySeconds = def.BackupDelaySeconds
		}
		c.Fetch[class] = fc
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.Database.Host == "" {
		c.Database = d.Database
	}
}

// ActiveFetch returns the fetch tuning for the configured device class.
func (c *Config) ActiveFetch() FetchConfig {
	return c.Fetch[c.DeviceClass]
}

// Load loads configuration from the given YAML path. If the file does
// not exist a default config is written there and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the configuration atomically via a temp file + rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".localevents-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
