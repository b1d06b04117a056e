// Package model defines shared data types used across coinboard.
//
// Conventions:
//   - Prices and market caps: float64 in the quote currency (USD)
//   - Percentages: float64 percent points (2.5 = +2.5%), nil when unknown
//   - Timestamps: time.Time, UTC, stamped at ingestion
//   - IDs: provider slug strings for coins (e.g. "bitcoin")
package model
