package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/rickgao/coinboard/internal/model"
	"github.com/rickgao/coinboard/internal/store"
)

// Service is the ingestion surface the handlers need.
type Service interface {
	Refresh(ctx context.Context) ([]model.CoinRecord, error)
	AppendHistory(ctx context.Context) (int, error)
	Current(ctx context.Context) ([]model.CoinRecord, error)
	History(ctx context.Context, coinID string, q store.HistoryQuery) ([]model.CoinRecord, error)
}

// Pinger reports storage reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type handlers struct {
	svc    Service
	pinger Pinger
	logger *slog.Logger
}

// getCoins refreshes the snapshot from the provider and returns it.
func (h *handlers) getCoins(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.Refresh(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, nonNil(records))
}

func (h *handlers) getCurrent(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.Current(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, nonNil(records))
}

func (h *handlers) postHistory(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.AppendHistory(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, historySavedResponse{
		Message: "History saved",
		Count:   n,
	})
}

func (h *handlers) getHistory(w http.ResponseWriter, r *http.Request) {
	coinID := mux.Vars(r)["coinId"]

	q, err := parseHistoryQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	records, err := h.svc.History(r.Context(), coinID, q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, nonNil(records))
}

// getHealth reports storage reachability.
func (h *handlers) getHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := struct {
		Status     string                 `json:"status"`
		Components map[string]interface{} `json:"components"`
	}{
		Status:     "healthy",
		Components: make(map[string]interface{}),
	}

	status := http.StatusOK
	if h.pinger != nil {
		if err := h.pinger.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["storage"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
			status = http.StatusServiceUnavailable
		} else {
			health.Components["storage"] = "connected"
		}
	}

	writeJSON(w, h.logger, status, health)
}

// parseHistoryQuery reads the optional since, until (RFC 3339) and limit
// query parameters.
func parseHistoryQuery(r *http.Request) (store.HistoryQuery, error) {
	var q store.HistoryQuery
	values := r.URL.Query()

	if v := values.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, fmt.Errorf("invalid since: %w", err)
		}
		q.Since = t
	}
	if v := values.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, fmt.Errorf("invalid until: %w", err)
		}
		q.Until = t
	}
	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("invalid limit: %w", err)
		}
		if n < 0 {
			return q, fmt.Errorf("invalid limit: %d is negative", n)
		}
		q.Limit = n
	}

	return q, nil
}

// nonNil makes empty results encode as [] rather than null.
func nonNil(records []model.CoinRecord) []model.CoinRecord {
	if records == nil {
		return []model.CoinRecord{}
	}
	return records
}
