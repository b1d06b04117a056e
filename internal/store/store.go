package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/coinboard/internal/config"
	"github.com/rickgao/coinboard/internal/database"
	"github.com/rickgao/coinboard/internal/model"
)

// Store persists the current snapshot and the history log.
type Store interface {
	// ReplaceCurrent replaces the whole current snapshot with records.
	ReplaceCurrent(ctx context.Context, records []model.CoinRecord) error

	// Current returns the current snapshot in the order it was written.
	Current(ctx context.Context) ([]model.CoinRecord, error)

	// AppendHistory appends records to the history log and returns how many were written.
	AppendHistory(ctx context.Context, records []model.CoinRecord) (int, error)

	// History returns history records for coinID, ascending by timestamp.
	// The result is empty, not nil, when nothing matches.
	History(ctx context.Context, coinID string, q HistoryQuery) ([]model.CoinRecord, error)

	// PruneHistory deletes history records older than before.
	PruneHistory(ctx context.Context, before time.Time) (int64, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// HistoryQuery narrows a history lookup. The zero value returns everything.
type HistoryQuery struct {
	Since time.Time // Inclusive lower bound, zero = unbounded
	Until time.Time // Exclusive upper bound, zero = unbounded
	Limit int       // Max records (oldest first), 0 = unlimited
}

// Matches reports whether ts falls inside the query window.
func (q HistoryQuery) Matches(ts time.Time) bool {
	if !q.Since.IsZero() && ts.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !ts.Before(q.Until) {
		return false
	}
	return true
}

// Error is a storage failure.
type Error struct {
	Op  string // Store operation, e.g. "replace current"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Open connects to the backend named by cfg.URL's scheme.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, wrap("open", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, wrap("open", err)
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, wrap("open", err)
		}
		return NewPostgresStore(pool, logger), nil

	case "redis", "rediss":
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, wrap("open", err)
		}
		if cfg.MaxConns > 0 {
			opts.PoolSize = cfg.MaxConns
		}
		opts.MinIdleConns = cfg.MinConns
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, wrap("open", err)
		}
		return NewRedisStore(client, DefaultRedisPrefix, logger), nil

	case "memory":
		return NewMemoryStore(), nil

	default:
		return nil, wrap("open", fmt.Errorf("unsupported storage scheme %q", u.Scheme))
	}
}
