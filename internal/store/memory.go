package store

import (
	"context"
	"sync"
	"time"

	"github.com/rickgao/coinboard/internal/model"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	current []model.CoinRecord
	history []model.CoinRecord
	closed  bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) ReplaceCurrent(ctx context.Context, records []model.CoinRecord) error {
	next := model.CloneRecords(records)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return wrap("replace current", ErrClosed)
	}
	s.current = next
	return nil
}

func (s *MemoryStore) Current(ctx context.Context) ([]model.CoinRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, wrap("current", ErrClosed)
	}
	return model.CloneRecords(s.current), nil
}

func (s *MemoryStore) AppendHistory(ctx context.Context, records []model.CoinRecord) (int, error) {
	added := model.CloneRecords(records)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, wrap("append history", ErrClosed)
	}
	s.history = append(s.history, added...)
	return len(added), nil
}

func (s *MemoryStore) History(ctx context.Context, coinID string, q HistoryQuery) ([]model.CoinRecord, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, wrap("history", ErrClosed)
	}
	out := make([]model.CoinRecord, 0)
	for _, r := range s.history {
		if r.CoinID == coinID && q.Matches(r.Timestamp) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	out = model.CloneRecords(out)
	model.SortRecordsByTime(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryStore) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, wrap("prune history", ErrClosed)
	}

	kept := s.history[:0]
	for _, r := range s.history {
		if !r.Timestamp.Before(before) {
			kept = append(kept, r)
		}
	}
	pruned := int64(len(s.history) - len(kept))
	// Clear the tail so pruned records can be collected.
	clear(s.history[len(kept):])
	s.history = kept
	return pruned, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return wrap("ping", ErrClosed)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
