// Package httpapi serves the coin query API.
//
// Routes:
//
//	GET  /api/coins              refresh from the provider, return the new snapshot
//	GET  /api/coins/current      stored snapshot, no provider call
//	GET  /api/coins/stream       websocket feed of snapshot replacements
//	POST /api/history            append a fresh fetch to the history log
//	GET  /api/history/{coinId}   history of one coin, oldest first
//	GET  /health                 storage reachability
//	GET  /metrics                Prometheus metrics
//
// Every failure is reported as 500 with a JSON body {"error": message}.
package httpapi
