package provider

import (
	"context"
	"errors"

	"github.com/rickgao/coinboard/internal/model"
)

// FetchCoins fetches the configured markets page and maps it to records
// stamped with the current time.
func (c *Client) FetchCoins(ctx context.Context) ([]model.CoinRecord, error) {
	var items []MarketCoin
	if err := c.get(ctx, c.query.Values(), &items); err != nil {
		return nil, err
	}
	if items == nil {
		return nil, &Error{Message: "unmarshal response", Err: errors.New("expected JSON array, got null")}
	}

	records := ToRecords(items, c.now())

	c.logger.Debug("fetched coins",
		"count", len(records),
		"currency", c.query.Currency,
	)

	return records, nil
}
