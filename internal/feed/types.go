package feed

import (
	"errors"
	"time"

	"github.com/rickgao/coinboard/internal/model"
)

// Errors
var (
	ErrStaleConnection = errors.New("connection stale (no pong)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// MessageTypeSnapshot marks a full current snapshot.
const MessageTypeSnapshot = "snapshot"

// Message is the JSON frame sent to subscribers.
type Message struct {
	Type   string             `json:"type"`
	Coins  []model.CoinRecord `json:"coins"`
	SentAt time.Time          `json:"sentAt"`
}

// Config configures both ends of the feed.
type Config struct {
	BufferSize   int           // Per-subscriber outbound buffer (messages)
	WriteTimeout time.Duration // Write deadline for frames and control messages
	PingInterval time.Duration // How often keepalive pings are sent
	PongTimeout  time.Duration // Max silence before a peer is considered stale
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:   16,
		WriteTimeout: 5 * time.Second,
		PingInterval: 30 * time.Second,
		PongTimeout:  75 * time.Second,
	}
}
