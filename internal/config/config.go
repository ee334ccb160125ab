package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Default configuration values
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
	DefaultNoCache   = false
)

// Holds the configuration options for incbuild
type Config struct {
	// Directory holding the file-set snapshot database.
	// Empty means .incbuild-cache in the working directory.
	CacheDir string

	// Log level: debug, info, warn, error
	LogLevel string

	// Log format: console or json
	LogFormat string

	// Skip the mini-config side-car cache and always re-parse
	NoCache bool
}

func Load() (*Config, error) {
	cfg := &Config{
		CacheDir:  viper.GetString("cache_dir"),
		LogLevel:  viper.GetString("log_level"),
		LogFormat: viper.GetString("log_format"),
		NoCache:   viper.GetBool("no_cache"),
	}

	// Apply defaults if not set
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.CacheDir != "" {
		abs, err := filepath.Abs(c.CacheDir)
		if err != nil {
			return fmt.Errorf("invalid cache directory path: %v", err)
		}

		c.CacheDir = abs
	}

	if !isValidLogFormat(c.LogFormat) {
		return fmt.Errorf("invalid log format: %s", c.LogFormat)
	}

	return nil
}

func isValidLogFormat(format string) bool {
	return format == "console" || format == "json"
}
