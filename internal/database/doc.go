// Package database provides PostgreSQL connection pool management and schema
// bootstrap for the coinboard store.
//
// Tables:
//   - current_snapshots: versioned rows of every written snapshot
//   - current_pointer: single row naming the live snapshot version
//   - coin_history: append-only log of every snapshot ever appended
package database
