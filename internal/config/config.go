package config

import "time"

// ServerConfig is the root configuration for the coinboard server.
type ServerConfig struct {
	Server    HTTPConfig      `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Provider  ProviderConfig  `yaml:"provider"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	History   HistoryConfig   `yaml:"history"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// HTTPConfig holds the query API listener settings.
type HTTPConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StorageConfig holds the persistence connection.
// The URL scheme selects the backend: postgres://, redis:// or memory://.
type StorageConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ProviderConfig holds market data provider settings.
type ProviderConfig struct {
	URL        string        `yaml:"url"`     // Full markets endpoint URL
	APIKey     string        `yaml:"api_key"` // Optional demo/pro key
	Currency   string        `yaml:"currency"`
	PerPage    int           `yaml:"per_page"`
	Timeout    time.Duration `yaml:"timeout"` // 0 means DefaultProviderTimeout
	MaxRetries int           `yaml:"max_retries"`
}

// SchedulerConfig holds the history ingestion schedule.
type SchedulerConfig struct {
	Spec       string        `yaml:"spec"` // Cron expression
	Timeout    time.Duration `yaml:"timeout"`
	RunOnStart bool          `yaml:"run_on_start"`
}

// HistoryConfig holds history retention settings.
type HistoryConfig struct {
	Retention time.Duration `yaml:"retention"` // 0 keeps history forever
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MetricsEnabled reports whether the metrics endpoint should be served.
func (c *ServerConfig) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}
