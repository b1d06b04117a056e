// Package viewer is the terminal presentation client.
//
// It polls GET /api/coins, keeps the last good dataset, and derives a
// filtered and sorted table from the user's search term and sort column.
package viewer
