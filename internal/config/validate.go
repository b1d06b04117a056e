package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/robfig/cron/v3"
)

// Validate checks that all required fields are set and values are valid.
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if err := c.Storage.validate(); err != nil {
		return err
	}

	u, err := url.Parse(c.Provider.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("provider.url must be an absolute URL, got %q", c.Provider.URL)
	}
	if c.Provider.PerPage < 1 || c.Provider.PerPage > 250 {
		return fmt.Errorf("provider.per_page must be between 1 and 250, got %d", c.Provider.PerPage)
	}
	if c.Provider.Timeout < 0 {
		return errors.New("provider.timeout must be >= 0")
	}
	if c.Provider.MaxRetries < 0 {
		return errors.New("provider.max_retries must be >= 0")
	}

	if _, err := cron.ParseStandard(c.Scheduler.Spec); err != nil {
		return fmt.Errorf("scheduler.spec %q: %w", c.Scheduler.Spec, err)
	}

	if c.History.Retention < 0 {
		return errors.New("history.retention must be >= 0")
	}

	return nil
}

func (s *StorageConfig) validate() error {
	if s.URL == "" {
		return errors.New("storage.url is required")
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("storage.url: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql", "redis", "rediss", "memory":
	case "mongodb", "mongodb+srv":
		return fmt.Errorf("storage.url scheme %q is not supported: MongoDB is not a storage backend, use postgres://, redis:// or memory://", u.Scheme)
	default:
		return fmt.Errorf("storage.url scheme %q is not supported", u.Scheme)
	}
	if s.MaxConns < 1 {
		return errors.New("storage.max_conns must be >= 1")
	}
	if s.MinConns < 0 {
		return errors.New("storage.min_conns must be >= 0")
	}
	if s.MinConns > s.MaxConns {
		return fmt.Errorf("storage.min_conns (%d) cannot exceed max_conns (%d)", s.MinConns, s.MaxConns)
	}
	return nil
}
