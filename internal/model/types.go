package model

import (
	"sort"
	"time"
)

// CoinRecord is a single market snapshot of one coin.
//
// Records are produced by the provider mapping step and are never mutated
// after they are written to history.
type CoinRecord struct {
	CoinID    string    `json:"coinId"`    // Provider slug (e.g. "bitcoin"), repeats across history
	Name      string    `json:"name"`      // Display name
	Symbol    string    `json:"symbol"`    // Ticker symbol as reported (usually lower case)
	Price     float64   `json:"price"`     // Current price (USD)
	MarketCap float64   `json:"marketCap"` // Market capitalization (USD)
	Change24h *float64  `json:"change24h"` // 24h price change in percent, nil if absent
	Timestamp time.Time `json:"timestamp"` // Snapshot time
	Image     string    `json:"image,omitempty"`
}

// Float64 returns a pointer to v. Handy for Change24h literals.
func Float64(v float64) *float64 {
	return &v
}

// ChangeOrZero returns Change24h or 0 when it is unknown.
func (r CoinRecord) ChangeOrZero() float64 {
	if r.Change24h == nil {
		return 0
	}
	return *r.Change24h
}

// SortRecordsByTime sorts records ascending by Timestamp.
// Records with equal timestamps keep their relative order.
func SortRecordsByTime(records []CoinRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}

// CloneRecords returns a copy of records that shares no Change24h pointers
// with the input.
func CloneRecords(records []CoinRecord) []CoinRecord {
	out := make([]CoinRecord, len(records))
	for i, r := range records {
		if r.Change24h != nil {
			r.Change24h = Float64(*r.Change24h)
		}
		out[i] = r
	}
	return out
}
