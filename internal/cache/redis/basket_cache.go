package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/basketbot/internal/domain"
)

// BasketCache implements domain.BasketCache using JSON-serialized baskets
// under per-market string keys. Entries carry the TTL the scanner hands in,
// so a market that drops off the listing ages out on its own.
//
// Key schema:
//
//	basket:{marketID} - JSON-encoded domain.Basket
type BasketCache struct {
	rdb *redis.Client
}

var _ domain.BasketCache = (*BasketCache)(nil)

// NewBasketCache creates a BasketCache backed by the given Client.
func NewBasketCache(c *Client) *BasketCache {
	return &BasketCache{rdb: c.Underlying()}
}

func basketKey(marketID string) string { return "basket:" + marketID }

// Put stores the normalized basket under its market ID with the given TTL.
func (bc *BasketCache) Put(ctx context.Context, basket *domain.Basket, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	data, err := json.Marshal(basket)
	if err != nil {
		return fmt.Errorf("redis: marshal basket %s: %w", basket.MarketID, err)
	}

	if err := bc.rdb.Set(ctx, basketKey(basket.MarketID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: put basket %s: %w", basket.MarketID, err)
	}
	return nil
}

// Get retrieves the most recent basket for the market. Misses return
// domain.ErrNotFound.
func (bc *BasketCache) Get(ctx context.Context, marketID string) (*domain.Basket, error) {
	data, err := bc.rdb.Get(ctx, basketKey(marketID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get basket %s: %w", marketID, err)
	}

	var basket domain.Basket
	if err := json.Unmarshal(data, &basket); err != nil {
		return nil, fmt.Errorf("redis: unmarshal basket %s: %w", marketID, err)
	}
	return &basket, nil
}
