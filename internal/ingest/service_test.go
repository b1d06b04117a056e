package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/coinboard/internal/metrics"
	"github.com/rickgao/coinboard/internal/model"
	"github.com/rickgao/coinboard/internal/store"
)

type fakeFetcher struct {
	mu      sync.Mutex
	records []model.CoinRecord
	err     error
	calls   int
}

func (f *fakeFetcher) FetchCoins(ctx context.Context) ([]model.CoinRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return model.CloneRecords(f.records), nil
}

func (f *fakeFetcher) set(records []model.CoinRecord, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
	f.err = err
}

type fakePublisher struct {
	published [][]model.CoinRecord
}

func (p *fakePublisher) Publish(records []model.CoinRecord) {
	p.published = append(p.published, records)
}

type failingStore struct {
	*store.MemoryStore
	err error
}

func (s *failingStore) ReplaceCurrent(ctx context.Context, records []model.CoinRecord) error {
	return s.err
}

func (s *failingStore) AppendHistory(ctx context.Context, records []model.CoinRecord) (int, error) {
	return 0, s.err
}

// counterValue reads a counter from the registry. labelValues match the
// metric's label pairs in order.
func counterValue(t *testing.T, m *metrics.Metrics, name string, labelValues ...string) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, metric := range mf.GetMetric() {
			labels := metric.GetLabel()
			if len(labels) != len(labelValues) {
				continue
			}
			for i, l := range labels {
				if l.GetValue() != labelValues[i] {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func coins(ts time.Time, ids ...string) []model.CoinRecord {
	out := make([]model.CoinRecord, len(ids))
	for i, id := range ids {
		out[i] = model.CoinRecord{
			CoinID:    id,
			Name:      id,
			Symbol:    id[:3],
			Price:     float64(100 * (i + 1)),
			MarketCap: float64(1000 * (i + 1)),
			Change24h: model.Float64(1.5),
			Timestamp: ts,
		}
	}
	return out
}

func TestService_Refresh(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{records: coins(t0, "bitcoin", "ethereum")}
	st := store.NewMemoryStore()
	pub := &fakePublisher{}
	m := metrics.New()
	svc := NewService(Config{}, fetcher, st, WithPublisher(pub), WithMetrics(m))

	got, err := svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(got) != 2 || got[0].CoinID != "bitcoin" {
		t.Errorf("Refresh() = %+v, want bitcoin, ethereum", got)
	}

	current, _ := st.Current(ctx)
	if len(current) != 2 || current[1].CoinID != "ethereum" {
		t.Errorf("Current() = %+v, want the refreshed snapshot", current)
	}
	if len(pub.published) != 1 || len(pub.published[0]) != 2 {
		t.Errorf("published = %v, want one snapshot of 2", pub.published)
	}

	if n := counterValue(t, m, "coinboard_ingest_runs_total", OpRefresh, "success"); n != 1 {
		t.Errorf("refresh success runs = %v, want 1", n)
	}
}

func TestService_RefreshFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{records: coins(t0, "bitcoin")}
	st := store.NewMemoryStore()
	pub := &fakePublisher{}
	m := metrics.New()
	svc := NewService(Config{}, fetcher, st, WithPublisher(pub), WithMetrics(m))

	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	providerErr := errors.New("provider down")
	fetcher.set(nil, providerErr)

	if _, err := svc.Refresh(ctx); !errors.Is(err, providerErr) {
		t.Fatalf("Refresh() error = %v, want %v", err, providerErr)
	}

	current, _ := st.Current(ctx)
	if len(current) != 1 || current[0].CoinID != "bitcoin" {
		t.Errorf("Current() = %+v, want previous snapshot", current)
	}
	if len(pub.published) != 1 {
		t.Errorf("published %d snapshots, want 1", len(pub.published))
	}
	if n := counterValue(t, m, "coinboard_ingest_runs_total", OpRefresh, "error"); n != 1 {
		t.Errorf("refresh error runs = %v, want 1", n)
	}
}

func TestService_RefreshStoreFailure(t *testing.T) {
	storeErr := errors.New("disk full")
	st := &failingStore{MemoryStore: store.NewMemoryStore(), err: storeErr}
	pub := &fakePublisher{}
	svc := NewService(Config{}, &fakeFetcher{records: coins(t0, "bitcoin")}, st, WithPublisher(pub))

	if _, err := svc.Refresh(context.Background()); !errors.Is(err, storeErr) {
		t.Errorf("Refresh() error = %v, want %v", err, storeErr)
	}
	if len(pub.published) != 0 {
		t.Errorf("published %d snapshots after failed write, want 0", len(pub.published))
	}
}

func TestService_AppendHistory(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{records: coins(t0, "bitcoin", "ethereum", "solana")}
	st := store.NewMemoryStore()
	svc := NewService(Config{}, fetcher, st)

	n, err := svc.AppendHistory(ctx)
	if err != nil {
		t.Fatalf("AppendHistory() error = %v", err)
	}
	if n != 3 {
		t.Errorf("AppendHistory() = %d, want 3", n)
	}

	// A second identical fetch is appended, not deduplicated.
	if _, err := svc.AppendHistory(ctx); err != nil {
		t.Fatalf("AppendHistory() error = %v", err)
	}

	hist, err := svc.History(ctx, "bitcoin", store.HistoryQuery{})
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(hist) != 2 {
		t.Errorf("len(History) = %d, want 2", len(hist))
	}

	// Current is untouched by history appends.
	current, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if len(current) != 0 {
		t.Errorf("len(Current) = %d, want 0", len(current))
	}
}

func TestService_AppendHistoryFailure(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeFetcher
		store   store.Store
	}{
		{
			name:    "provider",
			fetcher: &fakeFetcher{err: errors.New("timeout")},
			store:   store.NewMemoryStore(),
		},
		{
			name:    "storage",
			fetcher: &fakeFetcher{records: coins(t0, "bitcoin")},
			store:   &failingStore{MemoryStore: store.NewMemoryStore(), err: errors.New("down")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(Config{}, tt.fetcher, tt.store)
			n, err := svc.AppendHistory(context.Background())
			if err == nil {
				t.Fatal("AppendHistory() error = nil, want error")
			}
			if n != 0 {
				t.Errorf("AppendHistory() = %d, want 0", n)
			}
		})
	}
}

func TestService_Prune(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	st.AppendHistory(ctx, coins(t0.Add(-48*time.Hour), "bitcoin"))
	st.AppendHistory(ctx, coins(t0.Add(-time.Hour), "bitcoin"))

	m := metrics.New()
	svc := NewService(Config{Retention: 24 * time.Hour}, &fakeFetcher{}, st,
		WithMetrics(m),
		WithClock(func() time.Time { return t0 }),
	)

	n, err := svc.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}

	hist, _ := st.History(ctx, "bitcoin", store.HistoryQuery{})
	if len(hist) != 1 || !hist[0].Timestamp.Equal(t0.Add(-time.Hour)) {
		t.Errorf("History() = %+v, want only the recent record", hist)
	}
	if got := counterValue(t, m, "coinboard_store_history_pruned_total"); got != 1 {
		t.Errorf("history pruned = %v, want 1", got)
	}
}

func TestService_PruneWithoutRetention(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	st.AppendHistory(ctx, coins(t0.AddDate(-1, 0, 0), "bitcoin"))

	svc := NewService(Config{}, &fakeFetcher{}, st)
	n, err := svc.Prune(ctx)
	if err != nil || n != 0 {
		t.Errorf("Prune() = %d, %v, want 0, nil", n, err)
	}

	hist, _ := st.History(ctx, "bitcoin", store.HistoryQuery{})
	if len(hist) != 1 {
		t.Errorf("len(History) = %d, want 1", len(hist))
	}
}

func TestService_RecordHistory(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	st.AppendHistory(ctx, coins(t0.Add(-72*time.Hour), "bitcoin"))

	svc := NewService(Config{Retention: 24 * time.Hour}, &fakeFetcher{records: coins(t0, "bitcoin")}, st,
		WithClock(func() time.Time { return t0 }),
	)

	if err := svc.RecordHistory(ctx); err != nil {
		t.Fatalf("RecordHistory() error = %v", err)
	}

	hist, _ := st.History(ctx, "bitcoin", store.HistoryQuery{})
	if len(hist) != 1 || !hist[0].Timestamp.Equal(t0) {
		t.Errorf("History() = %+v, want only the new record", hist)
	}
}
