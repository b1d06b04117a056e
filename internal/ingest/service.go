package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/rickgao/coinboard/internal/metrics"
	"github.com/rickgao/coinboard/internal/model"
	"github.com/rickgao/coinboard/internal/store"
)

// Operation names used in logs and metrics.
const (
	OpRefresh = "refresh"
	OpHistory = "history"
	OpPrune   = "prune"
)

// Fetcher returns the provider's current market list.
type Fetcher interface {
	FetchCoins(ctx context.Context) ([]model.CoinRecord, error)
}

// Publisher receives every snapshot that replaced the current one.
type Publisher interface {
	Publish(records []model.CoinRecord)
}

// Config holds service configuration.
type Config struct {
	Retention time.Duration // History kept by Prune, 0 = forever
}

// Service runs ingestion operations.
type Service struct {
	cfg       Config
	fetcher   Fetcher
	store     store.Store
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher publishes refreshed snapshots to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithMetrics records ingestion metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the clock used for retention cutoffs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service.
func NewService(cfg Config, fetcher Fetcher, st store.Store, opts ...Option) *Service {
	s := &Service{
		cfg:     cfg,
		fetcher: fetcher,
		store:   st,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Refresh fetches the market list and replaces the current snapshot with it.
// On any failure the stored snapshot is left as it was.
func (s *Service) Refresh(ctx context.Context) (records []model.CoinRecord, err error) {
	start := time.Now()
	defer func() { s.observe(OpRefresh, err, start) }()

	records, err = s.fetcher.FetchCoins(ctx)
	if err != nil {
		return nil, err
	}
	if err = s.store.ReplaceCurrent(ctx, records); err != nil {
		return nil, err
	}
	s.metrics.AddRecordsWritten("current", len(records))

	if s.publisher != nil {
		s.publisher.Publish(records)
	}

	s.logger.Debug("current snapshot replaced", "coins", len(records))
	return records, nil
}

// AppendHistory fetches the market list and appends it to the history log.
// It returns the number of records written.
func (s *Service) AppendHistory(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { s.observe(OpHistory, err, start) }()

	records, err := s.fetcher.FetchCoins(ctx)
	if err != nil {
		return 0, err
	}
	n, err = s.store.AppendHistory(ctx, records)
	if err != nil {
		return 0, err
	}
	s.metrics.AddRecordsWritten("history", n)

	s.logger.Debug("history appended", "records", n)
	return n, nil
}

// Current returns the stored snapshot without contacting the provider.
func (s *Service) Current(ctx context.Context) ([]model.CoinRecord, error) {
	return s.store.Current(ctx)
}

// History returns the stored history of one coin, ascending by timestamp.
func (s *Service) History(ctx context.Context, coinID string, q store.HistoryQuery) ([]model.CoinRecord, error) {
	return s.store.History(ctx, coinID, q)
}

// Prune deletes history older than the retention window. It is a no-op when
// no retention is configured.
func (s *Service) Prune(ctx context.Context) (n int64, err error) {
	if s.cfg.Retention <= 0 {
		return 0, nil
	}

	start := time.Now()
	defer func() { s.observe(OpPrune, err, start) }()

	cutoff := s.now().Add(-s.cfg.Retention)
	n, err = s.store.PruneHistory(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.metrics.AddHistoryPruned(n)

	if n > 0 {
		s.logger.Info("history pruned", "deleted", n, "before", cutoff)
	}
	return n, nil
}

// RecordHistory is the scheduled job: append a history snapshot, then prune.
func (s *Service) RecordHistory(ctx context.Context) error {
	n, err := s.AppendHistory(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("hourly history recorded", "records", n)

	_, err = s.Prune(ctx)
	return err
}

func (s *Service) observe(op string, err error, start time.Time) {
	elapsed := time.Since(start)
	s.metrics.RecordIngest(op, err, elapsed)
	if err != nil {
		s.logger.Warn("ingestion failed",
			"operation", op,
			"error", err,
			"duration", elapsed,
		)
	}
}
