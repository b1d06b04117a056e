// Package ingest ties the provider, the store and the snapshot feed together.
//
// Service is the single entry point used by both the HTTP API and the
// scheduler:
//   - Refresh fetches the market list, replaces the current snapshot and
//     publishes it to feed subscribers
//   - AppendHistory fetches the market list and appends it to the history log
//   - Prune enforces the history retention window
//
// Calls are not serialized. Overlapping refreshes resolve to whichever
// snapshot the store commits last.
package ingest
