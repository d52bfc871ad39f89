package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/saworbit/scratchfile/internal/logging"
	"gopkg.in/yaml.v3"
)

// Config holds the tool's ambient settings. Nothing here changes the scratch
// file name, the integer range, or the bytes written.
type Config struct {
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// HashAlgo specifies the digest hash ("sha256" or "blake3")
	HashAlgo string `yaml:"hash_algo"`

	// LeafSizeKB is the Merkle leaf size in kilobytes
	LeafSizeKB int `yaml:"leaf_size_kb"`

	// StateDir holds the run history store; empty disables history
	StateDir string `yaml:"state_dir"`

	// MetricsTextfile receives a Prometheus text dump after each command; empty disables it
	MetricsTextfile string `yaml:"metrics_textfile"`

	// StrictExit makes a failed write exit non-zero instead of only logging
	StrictExit bool `yaml:"strict_exit"`

	// PackFormat is the default compression format ("zstd" or "xz")
	PackFormat string `yaml:"pack_format"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   "info",
		HashAlgo:   "sha256",
		LeafSizeKB: 64,
		PackFormat: "zstd",
	}
}

// Load builds a configuration from defaults, then the YAML file at path (if
// non-empty), then SCRATCH_* environment variables.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables over the defaults
func LoadFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// LoadFile overlays the fields set in a YAML file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays SCRATCH_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SCRATCH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	if v := os.Getenv("SCRATCH_HASH_ALGO"); v != "" {
		c.HashAlgo = v
	}

	if v := os.Getenv("SCRATCH_LEAF_SIZE_KB"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			c.LeafSizeKB = size
		}
	}

	if v := os.Getenv("SCRATCH_STATE_DIR"); v != "" {
		c.StateDir = v
	}

	if v := os.Getenv("SCRATCH_METRICS_TEXTFILE"); v != "" {
		c.MetricsTextfile = v
	}

	if v := os.Getenv("SCRATCH_STRICT_EXIT"); v != "" {
		c.StrictExit = v == "1" || v == "true" || v == "TRUE"
	}

	if v := os.Getenv("SCRATCH_PACK_FORMAT"); v != "" {
		c.PackFormat = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", c.LogLevel)
	}

	if c.HashAlgo != "sha256" && c.HashAlgo != "blake3" {
		return fmt.Errorf("invalid hash algorithm: %s (must be 'sha256' or 'blake3')", c.HashAlgo)
	}

	if c.LeafSizeKB <= 0 {
		return fmt.Errorf("leaf size must be positive, got: %d", c.LeafSizeKB)
	}

	if c.PackFormat != "zstd" && c.PackFormat != "xz" {
		return fmt.Errorf("invalid pack format: %s (must be 'zstd' or 'xz')", c.PackFormat)
	}

	return nil
}

// LeafSizeBytes returns the Merkle leaf size in bytes
func (c *Config) LeafSizeBytes() int {
	return c.LeafSizeKB * 1024
}

// HistoryEnabled reports whether runs should be recorded
func (c *Config) HistoryEnabled() bool {
	return c.StateDir != ""
}
