package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rickgao/coinboard/internal/model"
)

// Client reads the refreshed snapshot from the query API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client for the API at baseURL (e.g. http://localhost:5000).
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchCoins calls GET /api/coins, which refreshes the snapshot server-side.
func (c *Client) FetchCoins(ctx context.Context) ([]model.CoinRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/coins", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch coins: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("fetch coins: status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("fetch coins: status %d", resp.StatusCode)
	}

	var records []model.CoinRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode coins: %w", err)
	}

	c.logger.Debug("fetched coins", "count", len(records))
	return records, nil
}
