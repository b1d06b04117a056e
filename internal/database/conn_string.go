package database

import (
	"fmt"
	"net/url"
)

// DefaultSSLMode is used when the connection string does not set sslmode.
const DefaultSSLMode = "prefer"

// BuildConnString normalizes a PostgreSQL URL for pgx: the scheme becomes
// postgres:// and sslmode defaults to DefaultSSLMode.
func BuildConnString(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse connection string: %w", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		u.Scheme = "postgres"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", DefaultSSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
