package provider

import (
	"time"

	"github.com/rickgao/coinboard/internal/model"
)

// ToModel converts a MarketCoin to model.CoinRecord stamped with ts.
func (m *MarketCoin) ToModel(ts time.Time) model.CoinRecord {
	var change *float64
	if m.PriceChangePercentage24h != nil {
		change = model.Float64(*m.PriceChangePercentage24h)
	}

	return model.CoinRecord{
		CoinID:    m.ID,
		Name:      m.Name,
		Symbol:    m.Symbol,
		Price:     m.CurrentPrice,
		MarketCap: m.MarketCap,
		Change24h: change,
		Timestamp: ts.UTC(),
		Image:     m.Image,
	}
}

// ToRecords converts items in order. All records share the same timestamp.
func ToRecords(items []MarketCoin, ts time.Time) []model.CoinRecord {
	records := make([]model.CoinRecord, 0, len(items))
	for i := range items {
		records = append(records, items[i].ToModel(ts))
	}
	return records
}
