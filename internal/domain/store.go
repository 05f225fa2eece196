package domain

import (
	"context"
	"time"
)

// TradeRecordStore persists executed basket records for cross-run auditing.
type TradeRecordStore interface {
	Create(ctx context.Context, record *TradeRecord) error
	GetByID(ctx context.Context, id string) (*TradeRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*TradeRecord, error)
}

// BasketCache holds the most recent normalized basket per market, for
// operator inspection. Entries expire on their own; misses return
// ErrNotFound.
type BasketCache interface {
	Put(ctx context.Context, basket *Basket, ttl time.Duration) error
	Get(ctx context.Context, marketID string) (*Basket, error)
}

// RateLimiter gates outbound venue requests. Allow reports whether another
// request may be made under the key's window right now.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	// Wait blocks until a request is allowed or the context is done.
	Wait(ctx context.Context, key string) error
}

// TradeArchiver receives settled trade records for durable archival.
type TradeArchiver interface {
	Record(record *TradeRecord)
	Flush(ctx context.Context) error
}
