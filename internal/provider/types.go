package provider

import (
	"net/url"
	"strconv"
)

// MarketCoin is one item of the GET /coins/markets response.
type MarketCoin struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             float64  `json:"current_price"`
	MarketCap                float64  `json:"market_cap"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
}

// MarketsQuery configures a GET /coins/markets request.
type MarketsQuery struct {
	Currency string // vs_currency
	Order    string // order
	PerPage  int    // per_page
	Page     int    // page
}

// DefaultMarketsQuery returns the top 10 coins by market cap in USD.
func DefaultMarketsQuery() MarketsQuery {
	return MarketsQuery{
		Currency: "usd",
		Order:    "market_cap_desc",
		PerPage:  10,
		Page:     1,
	}
}

// Values encodes the query parameters.
func (q MarketsQuery) Values() url.Values {
	v := url.Values{}
	if q.Currency != "" {
		v.Set("vs_currency", q.Currency)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}
