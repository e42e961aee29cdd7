package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceCache provides fast store-balance reads for dashboards. It is
// strictly a read accelerator; the database row is authoritative and the
// cache is invalidated by every settlement.
type BalanceCache interface {
	Set(ctx context.Context, storeID string, wallet, escrow decimal.Decimal, ttl time.Duration) error
	Get(ctx context.Context, storeID string) (wallet, escrow decimal.Decimal, ok bool, err error)
	Invalidate(ctx context.Context, storeID string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// StreamMessage represents a single entry from a Redis stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub and durable streams for marketplace events.
// StreamTail backs the catch-up replay new WebSocket clients get on
// connect.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamTail(ctx context.Context, stream string, count int) ([]StreamMessage, error)
}
