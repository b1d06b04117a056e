package viewer

import (
	"testing"
	"time"

	"github.com/rickgao/coinboard/internal/model"
)

func sampleCoins() []model.CoinRecord {
	ts := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	return []model.CoinRecord{
		{CoinID: "bitcoin", Name: "Bitcoin", Symbol: "btc", Price: 50000, MarketCap: 1e12, Change24h: model.Float64(2.5), Timestamp: ts},
		{CoinID: "ethereum", Name: "Ethereum", Symbol: "eth", Price: 3000, MarketCap: 4e11, Change24h: model.Float64(-1.2), Timestamp: ts},
		{CoinID: "wrapped-bitcoin", Name: "Wrapped Bitcoin", Symbol: "wbtc", Price: 49900, MarketCap: 1e10, Timestamp: ts},
		{CoinID: "solana", Name: "solana", Symbol: "SOL", Price: 100, MarketCap: 4e10, Change24h: model.Float64(0), Timestamp: ts},
	}
}

func ids(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.CoinID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestState_SearchIsCaseInsensitive(t *testing.T) {
	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"bitcoin", "ethereum", "wrapped-bitcoin", "solana"}},
		{"BTC", []string{"bitcoin", "wrapped-bitcoin"}},
		{"btc", []string{"bitcoin", "wrapped-bitcoin"}},
		{"bitcoin", []string{"bitcoin", "wrapped-bitcoin"}},
		{"Sol", []string{"solana"}},
		{"ETH", []string{"ethereum"}},
		{"doge", []string{}},
	}

	s := NewState()
	s.SetData(sampleCoins(), time.Now())

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			s.SetSearch(tt.term)
			if got := ids(s.View()); !equal(got, tt.want) {
				t.Errorf("View() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState_ClickSortToggles(t *testing.T) {
	s := NewState()
	s.SetData([]model.CoinRecord{
		{CoinID: "a", Name: "A", Price: 1},
		{CoinID: "c", Name: "C", Price: 3},
		{CoinID: "b", Name: "B", Price: 2},
	}, time.Now())

	prices := func() []float64 {
		var out []float64
		for _, r := range s.View() {
			out = append(out, r.Price)
		}
		return out
	}
	check := func(want ...float64) {
		t.Helper()
		got := prices()
		if len(got) != len(want) {
			t.Fatalf("prices = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("prices = %v, want %v", got, want)
			}
		}
	}

	check(1, 3, 2)

	if cfg := s.ClickSort(SortPrice); cfg.Direction != Ascending {
		t.Errorf("first click direction = %v, want asc", cfg.Direction)
	}
	check(1, 2, 3)

	if cfg := s.ClickSort(SortPrice); cfg.Direction != Descending {
		t.Errorf("second click direction = %v, want desc", cfg.Direction)
	}
	check(3, 2, 1)

	// A third click flips back to ascending.
	s.ClickSort(SortPrice)
	check(1, 2, 3)

	// A new column always starts ascending.
	s.ClickSort(SortPrice)
	if cfg := s.ClickSort(SortName); cfg.Key != SortName || cfg.Direction != Ascending {
		t.Errorf("new column = %+v, want name asc", cfg)
	}
}

func TestState_SortKeys(t *testing.T) {
	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortName, []string{"bitcoin", "ethereum", "solana", "wrapped-bitcoin"}},
		{SortSymbol, []string{"bitcoin", "ethereum", "solana", "wrapped-bitcoin"}},
		{SortPrice, []string{"solana", "ethereum", "wrapped-bitcoin", "bitcoin"}},
		{SortMarketCap, []string{"wrapped-bitcoin", "solana", "ethereum", "bitcoin"}},
		// Unknown change sorts as 0 and ties keep dataset order.
		{SortChange, []string{"ethereum", "wrapped-bitcoin", "solana", "bitcoin"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			s := NewState()
			s.SetData(sampleCoins(), time.Now())
			s.ClickSort(tt.key)
			if got := ids(s.View()); !equal(got, tt.want) {
				t.Errorf("View() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState_SortIsStableDescending(t *testing.T) {
	s := NewState()
	s.SetData([]model.CoinRecord{
		{CoinID: "x", Price: 1},
		{CoinID: "y", Price: 2},
		{CoinID: "z", Price: 1},
	}, time.Now())
	s.ClickSort(SortPrice)
	s.ClickSort(SortPrice)

	if got, want := ids(s.View()), []string{"y", "x", "z"}; !equal(got, want) {
		t.Errorf("View() = %v, want %v", got, want)
	}
}

func TestState_RankFollowsDataset(t *testing.T) {
	s := NewState()
	s.SetData(sampleCoins(), time.Now())
	s.ClickSort(SortPrice)

	rows := s.View()
	if rows[0].CoinID != "solana" || rows[0].Rank != 4 {
		t.Errorf("rows[0] = %s rank %d, want solana rank 4", rows[0].CoinID, rows[0].Rank)
	}
}

func TestState_ErrorKeepsData(t *testing.T) {
	s := NewState()
	at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	s.SetData(sampleCoins(), at)
	s.SetError(errTest)

	if s.Err() == nil {
		t.Error("Err() = nil, want error")
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
	if !s.LastUpdated().Equal(at) {
		t.Errorf("LastUpdated() = %v, want %v", s.LastUpdated(), at)
	}

	s.SetData(sampleCoins()[:1], at.Add(time.Hour))
	if s.Err() != nil {
		t.Errorf("Err() after success = %v, want nil", s.Err())
	}
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in      string
		want    SortKey
		wantErr bool
	}{
		{"price", SortPrice, false},
		{"MarketCap", SortMarketCap, false},
		{"change24h", SortChange, false},
		{"volume", SortNone, true},
	}

	for _, tt := range tests {
		got, err := ParseSortKey(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortKey(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseSortKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
