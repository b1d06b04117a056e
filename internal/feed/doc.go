// Package feed pushes current snapshots to websocket subscribers.
//
// The server side (Hub) is mounted at GET /api/coins/stream and broadcasts
// every snapshot written by a refresh. The client side (Client) is used by
// coinwatch in follow mode.
//
// Slow subscribers never block a publish: when a subscriber's buffer is full
// the message is dropped for that subscriber only.
package feed
