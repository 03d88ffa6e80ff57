package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// Load reads the configuration file at path, applies NPLUSONE_* environment
// overrides and defaults, and validates the result. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration again, e.g. after command-line overrides
// were applied on top of Load's result.
func (c *Config) Validate() error {
	if err := validate(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if len(cfg.CorsAllowedOrigins) == 0 {
		cfg.CorsAllowedOrigins = DefaultCorsAllowedOrigins
	}

	// Loader defaults
	if cfg.Loader.MaxBatchSize == nil {
		size := DefaultMaxBatchSize
		cfg.Loader.MaxBatchSize = &size
	}
	if cfg.Loader.CacheEnabled == nil {
		enabled := DefaultCacheEnabled
		cfg.Loader.CacheEnabled = &enabled
	}
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("logLevel must be one of: debug, info, warn, error")
	}

	if cfg.MaxBodySize < 0 {
		return fmt.Errorf("maxBodySize must be non-negative")
	}

	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("requestTimeout must be non-negative")
	}

	if cfg.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdownTimeout must be non-negative")
	}

	if cfg.Loader.GetMaxBatchSize() < 0 {
		return fmt.Errorf("loader.maxBatchSize must be non-negative")
	}

	if cfg.Loader.CacheSize < 0 {
		return fmt.Errorf("loader.cacheSize must be non-negative")
	}

	if cfg.Loader.CacheSize > 0 && !cfg.Loader.IsCacheEnabled() {
		return fmt.Errorf("loader.cacheSize requires loader.cacheEnabled")
	}

	if cfg.Loader.BatchTimeout < 0 {
		return fmt.Errorf("loader.batchTimeout must be non-negative")
	}

	return nil
}
