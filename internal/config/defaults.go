package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultPort             = 5000
	DefaultReadTimeout      = 15 * time.Second
	DefaultWriteTimeout     = 60 * time.Second
	DefaultStorageURL       = "memory://"
	DefaultMaxConns         = 10
	DefaultMinConns         = 2
	DefaultProviderURL      = "https://api.coingecko.com/api/v3/coins/markets"
	DefaultCurrency         = "usd"
	DefaultPerPage          = 10
	DefaultProviderTimeout  = 30 * time.Second
	DefaultScheduleSpec     = "0 * * * *"
	DefaultSchedulerTimeout = 5 * time.Minute
	DefaultMetricsPath      = "/metrics"
)

func (c *ServerConfig) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}

	// Storage defaults
	if c.Storage.URL == "" {
		c.Storage.URL = DefaultStorageURL
	}
	if c.Storage.MaxConns == 0 {
		c.Storage.MaxConns = DefaultMaxConns
	}
	if c.Storage.MinConns == 0 {
		c.Storage.MinConns = DefaultMinConns
	}

	// Provider defaults
	if c.Provider.URL == "" {
		c.Provider.URL = DefaultProviderURL
	}
	if c.Provider.Currency == "" {
		c.Provider.Currency = DefaultCurrency
	}
	if c.Provider.PerPage == 0 {
		c.Provider.PerPage = DefaultPerPage
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = DefaultProviderTimeout
	}

	// Scheduler defaults
	if c.Scheduler.Spec == "" {
		c.Scheduler.Spec = DefaultScheduleSpec
	}
	if c.Scheduler.Timeout == 0 {
		c.Scheduler.Timeout = DefaultSchedulerTimeout
	}

	// Metrics defaults
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
