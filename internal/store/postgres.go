package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/coinboard/internal/model"
)

// PostgresStore persists snapshots in PostgreSQL.
//
// The current snapshot is versioned: each replace writes its rows under a new
// version id and repoints current_pointer in the same transaction, deleting
// the superseded versions.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an open pool. The schema must already exist
// (see database.EnsureSchema).
func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		pool:   pool,
		logger: logger,
	}
}

var historyColumns = []string{"id", "coin_id", "name", "symbol", "price", "market_cap", "change_24h", "ts", "image"}

func (s *PostgresStore) ReplaceCurrent(ctx context.Context, records []model.CoinRecord) error {
	start := time.Now()
	version := uuid.New()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, r := range records {
			batch.Queue(`
				INSERT INTO current_snapshots (version, position, coin_id, name, symbol, price, market_cap, change_24h, ts, image)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			`, version, i, r.CoinID, r.Name, r.Symbol, r.Price, r.MarketCap, r.Change24h, r.Timestamp, r.Image)
		}
		batch.Queue(`
			INSERT INTO current_pointer (id, version, updated_at)
			VALUES (1, $1, now())
			ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version, updated_at = EXCLUDED.updated_at
		`, version)
		batch.Queue(`DELETE FROM current_snapshots WHERE version <> $1`, version)

		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return wrap("replace current", err)
	}

	s.logger.Debug("replaced current snapshot",
		"version", version,
		"count", len(records),
		"duration", time.Since(start),
	)
	return nil
}

func (s *PostgresStore) Current(ctx context.Context) ([]model.CoinRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.coin_id, s.name, s.symbol, s.price, s.market_cap, s.change_24h, s.ts, s.image
		FROM current_snapshots s
		JOIN current_pointer p ON p.id = 1 AND s.version = p.version
		ORDER BY s.position
	`)
	if err != nil {
		return nil, wrap("current", err)
	}

	records, err := collectRecords(rows)
	if err != nil {
		return nil, wrap("current", err)
	}
	return records, nil
}

func (s *PostgresStore) AppendHistory(ctx context.Context, records []model.CoinRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"coin_history"},
		historyColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{uuid.New(), r.CoinID, r.Name, r.Symbol, r.Price, r.MarketCap, r.Change24h, r.Timestamp, r.Image}, nil
		}),
	)
	if err != nil {
		return 0, wrap("append history", err)
	}
	return int(n), nil
}

func (s *PostgresStore) History(ctx context.Context, coinID string, q HistoryQuery) ([]model.CoinRecord, error) {
	var limit *int64
	if q.Limit > 0 {
		l := int64(q.Limit)
		limit = &l
	}

	rows, err := s.pool.Query(ctx, `
		SELECT coin_id, name, symbol, price, market_cap, change_24h, ts, image
		FROM coin_history
		WHERE coin_id = $1
		  AND ($2::timestamptz IS NULL OR ts >= $2)
		  AND ($3::timestamptz IS NULL OR ts < $3)
		ORDER BY ts ASC, seq ASC
		LIMIT $4::bigint
	`, coinID, nullTime(q.Since), nullTime(q.Until), limit)
	if err != nil {
		return nil, wrap("history", err)
	}

	records, err := collectRecords(rows)
	if err != nil {
		return nil, wrap("history", err)
	}
	return records, nil
}

func (s *PostgresStore) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM coin_history WHERE ts < $1`, before)
	if err != nil {
		return 0, wrap("prune history", err)
	}
	return ct.RowsAffected(), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return wrap("ping", s.pool.Ping(ctx))
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// collectRecords scans rows in column order coin_id..image.
func collectRecords(rows pgx.Rows) ([]model.CoinRecord, error) {
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CoinRecord, error) {
		var r model.CoinRecord
		err := row.Scan(&r.CoinID, &r.Name, &r.Symbol, &r.Price, &r.MarketCap, &r.Change24h, &r.Timestamp, &r.Image)
		r.Timestamp = r.Timestamp.UTC()
		return r, err
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.CoinRecord{}
	}
	return records, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
