package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Defaults applied when a value is absent from the config file.
const (
	DefaultScanDuration    = 10 // seconds
	DefaultScanInterval    = 30 // seconds
	DefaultPublishInterval = 5  // seconds
	DefaultDBPath          = "presence.db"
	DefaultListenAddr      = ":8080"
)

// Config holds the runtime settings the service persists between runs.
// All durations are whole seconds, matching what the config API accepts.
type Config struct {
	ScanDuration    int    `json:"scan_duration"`
	ScanInterval    int    `json:"scan_interval"`
	PublishInterval int    `json:"publish_interval"`
	DBPath          string `json:"db_path"`
	Listen          string `json:"listen"`
}

// DefaultConfig returns a Config populated with every default.
func DefaultConfig() *Config {
	return &Config{
		ScanDuration:    DefaultScanDuration,
		ScanInterval:    DefaultScanInterval,
		PublishInterval: DefaultPublishInterval,
		DBPath:          DefaultDBPath,
		Listen:          DefaultListenAddr,
	}
}

// Validate rejects settings the scanner cannot run with.
func (c *Config) Validate() error {
	if c.ScanDuration <= 0 {
		return fmt.Errorf("scan_duration must be positive, got %d", c.ScanDuration)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan_interval must be positive, got %d", c.ScanInterval)
	}
	if c.PublishInterval <= 0 {
		return fmt.Errorf("publish_interval must be positive, got %d", c.PublishInterval)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.Listen == "" {
		return fmt.Errorf("listen must not be empty")
	}
	return nil
}

// ScanDurationValue returns the scan duration as a time.Duration.
func (c *Config) ScanDurationValue() time.Duration {
	return time.Duration(c.ScanDuration) * time.Second
}

// ScanIntervalValue returns the rest between passes as a time.Duration.
func (c *Config) ScanIntervalValue() time.Duration {
	return time.Duration(c.ScanInterval) * time.Second
}

// PublishIntervalValue returns the live publish pace as a time.Duration.
func (c *Config) PublishIntervalValue() time.Duration {
	return time.Duration(c.PublishInterval) * time.Second
}

// Update carries a partial config change. Nil fields leave the current
// value untouched, so callers can PATCH a single setting.
type Update struct {
	ScanDuration    *int    `json:"scan_duration,omitempty"`
	ScanInterval    *int    `json:"scan_interval,omitempty"`
	PublishInterval *int    `json:"publish_interval,omitempty"`
	DBPath          *string `json:"db_path,omitempty"`
	Listen          *string `json:"listen,omitempty"`
}

// Apply copies the update's set fields onto a copy of c and validates
// the result. The receiver is never modified: a rejected update leaves
// the running config exactly as it was.
func (c *Config) Apply(u *Update) (*Config, error) {
	next := *c
	if u.ScanDuration != nil {
		next.ScanDuration = *u.ScanDuration
	}
	if u.ScanInterval != nil {
		next.ScanInterval = *u.ScanInterval
	}
	if u.PublishInterval != nil {
		next.PublishInterval = *u.PublishInterval
	}
	if u.DBPath != nil {
		next.DBPath = *u.DBPath
	}
	if u.Listen != nil {
		next.Listen = *u.Listen
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return &next, nil
}

// Load reads a Config from a JSON file. A missing file yields the
// defaults; fields omitted from the JSON keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the config as indented JSON. The write goes through a
// temp file and rename so a crash cannot leave a half-written config.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config file: %w", err)
	}

	return nil
}
