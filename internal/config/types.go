package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Host               string       `json:"host" split_words:"true"`
	Port               int          `json:"port" split_words:"true"`
	LogLevel           string       `json:"logLevel" split_words:"true"`
	MaxBodySize        int64        `json:"maxBodySize" split_words:"true"`
	RequestTimeout     int          `json:"requestTimeout" split_words:"true"`  // ms
	ShutdownTimeout    int          `json:"shutdownTimeout" split_words:"true"` // ms
	CorsAllowedOrigins []string     `json:"corsAllowedOrigins" split_words:"true"`
	Loader             LoaderConfig `json:"loader"`
}

// LoaderConfig configures the per-operation data loaders
type LoaderConfig struct {
	MaxBatchSize *int  `json:"maxBatchSize" split_words:"true"` // unset means DefaultMaxBatchSize, 0 means no limit
	CacheEnabled *bool `json:"cacheEnabled" split_words:"true"`
	CacheSize    int   `json:"cacheSize" split_words:"true"`    // entries per loader, 0 means unbounded
	BatchTimeout int   `json:"batchTimeout" split_words:"true"` // ms, 0 means no timeout
}

// EnvPrefix is the prefix of environment overrides, e.g. NPLUSONE_PORT
const EnvPrefix = "NPLUSONE"

// Default values
const (
	DefaultHost            = "localhost"
	DefaultPort            = 4000
	DefaultLogLevel        = "info"
	DefaultMaxBodySize     = int64(0) // 0 means no limit
	DefaultRequestTimeout  = 5000     // ms
	DefaultShutdownTimeout = 30000    // ms
	DefaultMaxBatchSize    = 100
	DefaultCacheEnabled    = true
)

// DefaultCorsAllowedOrigins allows any origin
var DefaultCorsAllowedOrigins = []string{"*"}

// GetRequestTimeoutDuration returns request timeout as time.Duration
func (c *Config) GetRequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}

// GetShutdownTimeoutDuration returns shutdown timeout as time.Duration
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Millisecond
}

// IsCacheEnabled returns true unless the loader cache was explicitly disabled
func (c *LoaderConfig) IsCacheEnabled() bool {
	return c.CacheEnabled == nil || *c.CacheEnabled
}

// GetMaxBatchSize returns the distinct keys allowed per batch, 0 meaning no limit
func (c *LoaderConfig) GetMaxBatchSize() int {
	if c.MaxBatchSize == nil {
		return DefaultMaxBatchSize
	}
	return *c.MaxBatchSize
}

// GetBatchTimeoutDuration returns batch timeout as time.Duration
func (c *LoaderConfig) GetBatchTimeoutDuration() time.Duration {
	return time.Duration(c.BatchTimeout) * time.Millisecond
}
