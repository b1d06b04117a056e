package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/coinboard/internal/model"
)

var suiteBase = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func coin(id string, price float64, ts time.Time) model.CoinRecord {
	return model.CoinRecord{
		CoinID:    id,
		Name:      "Coin " + id,
		Symbol:    id[:3],
		Price:     price,
		MarketCap: price * 1e6,
		Change24h: model.Float64(price / 100),
		Timestamp: ts,
		Image:     "https://img.example/" + id + ".png",
	}
}

// runStoreSuite checks the behavior every backend must share.
// newStore must return an empty store.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		s := newStore(t)

		current, err := s.Current(ctx)
		if err != nil {
			t.Fatalf("Current() error = %v", err)
		}
		if current == nil || len(current) != 0 {
			t.Errorf("Current() = %v, want empty non-nil", current)
		}

		history, err := s.History(ctx, "unknown-coin", HistoryQuery{})
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if history == nil || len(history) != 0 {
			t.Errorf("History() = %v, want empty non-nil", history)
		}
	})

	t.Run("replace current is idempotent", func(t *testing.T) {
		s := newStore(t)
		snapshot := []model.CoinRecord{
			coin("bitcoin", 50000, suiteBase),
			coin("ethereum", 3000, suiteBase),
			{CoinID: "tether", Name: "Tether", Symbol: "usdt", Price: 1, MarketCap: 9e10, Timestamp: suiteBase},
		}

		for i := 0; i < 2; i++ {
			if err := s.ReplaceCurrent(ctx, snapshot); err != nil {
				t.Fatalf("ReplaceCurrent() #%d error = %v", i+1, err)
			}
		}

		current, err := s.Current(ctx)
		if err != nil {
			t.Fatalf("Current() error = %v", err)
		}
		assertRecords(t, current, snapshot)
	})

	t.Run("replace current drops previous records", func(t *testing.T) {
		s := newStore(t)
		first := []model.CoinRecord{
			coin("bitcoin", 50000, suiteBase),
			coin("ethereum", 3000, suiteBase),
		}
		second := []model.CoinRecord{coin("solana", 100, suiteBase.Add(time.Hour))}

		if err := s.ReplaceCurrent(ctx, first); err != nil {
			t.Fatalf("ReplaceCurrent(first) error = %v", err)
		}
		if err := s.ReplaceCurrent(ctx, second); err != nil {
			t.Fatalf("ReplaceCurrent(second) error = %v", err)
		}

		current, err := s.Current(ctx)
		if err != nil {
			t.Fatalf("Current() error = %v", err)
		}
		assertRecords(t, current, second)

		if err := s.ReplaceCurrent(ctx, nil); err != nil {
			t.Fatalf("ReplaceCurrent(nil) error = %v", err)
		}
		current, err = s.Current(ctx)
		if err != nil {
			t.Fatalf("Current() error = %v", err)
		}
		if len(current) != 0 {
			t.Errorf("Current() after empty replace = %v, want empty", current)
		}
	})

	t.Run("history is ordered for any insertion order", func(t *testing.T) {
		s := newStore(t)
		offsets := []int{3, 0, 4, 1, 2}
		for _, h := range offsets {
			batch := []model.CoinRecord{
				coin("bitcoin", float64(50000+h), suiteBase.Add(time.Duration(h)*time.Hour)),
				coin("ethereum", float64(3000+h), suiteBase.Add(time.Duration(h)*time.Hour)),
			}
			n, err := s.AppendHistory(ctx, batch)
			if err != nil {
				t.Fatalf("AppendHistory() error = %v", err)
			}
			if n != len(batch) {
				t.Errorf("AppendHistory() = %d, want %d", n, len(batch))
			}
		}

		history, err := s.History(ctx, "bitcoin", HistoryQuery{})
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(history) != len(offsets) {
			t.Fatalf("len(History()) = %d, want %d", len(history), len(offsets))
		}
		for i := range history {
			if history[i].CoinID != "bitcoin" {
				t.Errorf("history[%d].CoinID = %q, want bitcoin", i, history[i].CoinID)
			}
			if i > 0 && history[i].Timestamp.Before(history[i-1].Timestamp) {
				t.Errorf("history not ascending at %d: %v before %v", i, history[i].Timestamp, history[i-1].Timestamp)
			}
		}
		if history[0].Price != 50000 || history[len(history)-1].Price != 50004 {
			t.Errorf("prices = %v..%v, want 50000..50004", history[0].Price, history[len(history)-1].Price)
		}
	})

	t.Run("history keeps identical snapshots", func(t *testing.T) {
		s := newStore(t)
		r := coin("bitcoin", 50000, suiteBase)
		for i := 0; i < 2; i++ {
			if _, err := s.AppendHistory(ctx, []model.CoinRecord{r}); err != nil {
				t.Fatalf("AppendHistory() error = %v", err)
			}
		}

		history, err := s.History(ctx, "bitcoin", HistoryQuery{})
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(history) != 2 {
			t.Errorf("len(History()) = %d, want 2", len(history))
		}
	})

	t.Run("history window and limit", func(t *testing.T) {
		s := newStore(t)
		var batch []model.CoinRecord
		for h := 0; h < 6; h++ {
			batch = append(batch, coin("bitcoin", float64(h), suiteBase.Add(time.Duration(h)*time.Hour)))
		}
		if _, err := s.AppendHistory(ctx, batch); err != nil {
			t.Fatalf("AppendHistory() error = %v", err)
		}

		got, err := s.History(ctx, "bitcoin", HistoryQuery{
			Since: suiteBase.Add(time.Hour),
			Until: suiteBase.Add(4 * time.Hour),
		})
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		assertPrices(t, got, 1, 2, 3)

		got, err = s.History(ctx, "bitcoin", HistoryQuery{Since: suiteBase.Add(2 * time.Hour), Limit: 2})
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		assertPrices(t, got, 2, 3)
	})

	t.Run("collections are independent", func(t *testing.T) {
		s := newStore(t)
		r := coin("bitcoin", 1, suiteBase)

		if _, err := s.AppendHistory(ctx, []model.CoinRecord{r}); err != nil {
			t.Fatalf("AppendHistory() error = %v", err)
		}
		current, err := s.Current(ctx)
		if err != nil {
			t.Fatalf("Current() error = %v", err)
		}
		if len(current) != 0 {
			t.Errorf("Current() = %v, want empty after history append", current)
		}

		if err := s.ReplaceCurrent(ctx, nil); err != nil {
			t.Fatalf("ReplaceCurrent() error = %v", err)
		}
		history, err := s.History(ctx, "bitcoin", HistoryQuery{})
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(history) != 1 {
			t.Errorf("len(History()) = %d, want 1 after replace", len(history))
		}
	})

	t.Run("prune history", func(t *testing.T) {
		s := newStore(t)
		var batch []model.CoinRecord
		for h := 0; h < 4; h++ {
			batch = append(batch,
				coin("bitcoin", float64(h), suiteBase.Add(time.Duration(h)*time.Hour)),
				coin("ethereum", float64(h), suiteBase.Add(time.Duration(h)*time.Hour)),
			)
		}
		if _, err := s.AppendHistory(ctx, batch); err != nil {
			t.Fatalf("AppendHistory() error = %v", err)
		}

		pruned, err := s.PruneHistory(ctx, suiteBase.Add(2*time.Hour))
		if err != nil {
			t.Fatalf("PruneHistory() error = %v", err)
		}
		if pruned != 4 {
			t.Errorf("PruneHistory() = %d, want 4", pruned)
		}

		got, err := s.History(ctx, "ethereum", HistoryQuery{})
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		assertPrices(t, got, 2, 3)
	})

	t.Run("concurrent replaces never mix snapshots", func(t *testing.T) {
		s := newStore(t)
		const writers = 8

		var wg sync.WaitGroup
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				snapshot := []model.CoinRecord{
					coin(fmt.Sprintf("aaa-%d", w), float64(w), suiteBase),
					coin(fmt.Sprintf("bbb-%d", w), float64(w), suiteBase),
				}
				if err := s.ReplaceCurrent(ctx, snapshot); err != nil {
					t.Errorf("ReplaceCurrent() error = %v", err)
				}
			}(w)
		}
		wg.Wait()

		current, err := s.Current(ctx)
		if err != nil {
			t.Fatalf("Current() error = %v", err)
		}
		if len(current) != 2 {
			t.Fatalf("len(Current()) = %d, want 2", len(current))
		}
		if current[0].Price != current[1].Price {
			t.Errorf("snapshot mixes writers: %v and %v", current[0].Price, current[1].Price)
		}
	})
}

func assertRecords(t *testing.T, got, want []model.CoinRecord) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.CoinID != w.CoinID || g.Name != w.Name || g.Symbol != w.Symbol ||
			g.Price != w.Price || g.MarketCap != w.MarketCap || g.Image != w.Image {
			t.Errorf("record %d = %+v, want %+v", i, g, w)
		}
		if !g.Timestamp.Equal(w.Timestamp) {
			t.Errorf("record %d Timestamp = %v, want %v", i, g.Timestamp, w.Timestamp)
		}
		if (g.Change24h == nil) != (w.Change24h == nil) ||
			(g.Change24h != nil && *g.Change24h != *w.Change24h) {
			t.Errorf("record %d Change24h = %v, want %v", i, g.Change24h, w.Change24h)
		}
	}
}

func assertPrices(t *testing.T, got []model.CoinRecord, want ...float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i, p := range want {
		if got[i].Price != p {
			t.Errorf("record %d Price = %v, want %v", i, got[i].Price, p)
		}
	}
}
