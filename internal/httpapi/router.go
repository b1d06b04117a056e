package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rickgao/coinboard/internal/metrics"
)

// Options holds the router's dependencies. Only Service is required.
type Options struct {
	Service     Service
	Pinger      Pinger           // Storage health, optional
	Feed        http.Handler     // Websocket snapshot feed, optional
	Metrics     *metrics.Metrics // Optional
	MetricsPath string           // Default: /metrics
	Logger      *slog.Logger
}

// NewRouter builds the API router.
func NewRouter(opts Options) *mux.Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{
		svc:    opts.Service,
		pinger: opts.Pinger,
		logger: logger,
	}

	r := mux.NewRouter()
	r.Use(recoveryMiddleware(logger), loggingMiddleware(logger), corsMiddleware)
	if opts.Metrics != nil {
		r.Use(metricsMiddleware(opts.Metrics))
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/coins", h.getCoins).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/coins/current", h.getCurrent).Methods(http.MethodGet, http.MethodOptions)
	if opts.Feed != nil {
		api.Handle("/coins/stream", opts.Feed).Methods(http.MethodGet)
	}
	api.HandleFunc("/history", h.postHistory).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/history/{coinId}", h.getHistory).Methods(http.MethodGet, http.MethodOptions)

	r.HandleFunc("/health", h.getHealth).Methods(http.MethodGet)
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	return r
}
