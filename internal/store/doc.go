// Package store is the persistence layer for coin snapshots.
//
// Two logical collections:
//   - Current snapshot: at most one record per coin, replaced wholesale on refresh
//   - History: append-only, queried per coin in ascending timestamp order
//
// Backends are selected by storage URL scheme (see Open): PostgreSQL, Redis or
// in-process memory. Every backend swaps the current snapshot atomically, so
// readers see either the previous or the next snapshot, never a mix.
package store
