package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
	"github.com/redis/go-redis/v9"
)

// OddsCache implements domain.OddsCache using Redis string values.
// Prices are stored at key "odds:{key}" where the caller-supplied key already
// encodes match, market, selection and line.
type OddsCache struct {
	rdb *redis.Client
}

// NewOddsCache creates an OddsCache backed by the given Client.
func NewOddsCache(c *Client) *OddsCache {
	return &OddsCache{rdb: c.Underlying()}
}

// Get retrieves a cached price.
// It returns domain.ErrNotFound when the key does not exist or has expired.
func (oc *OddsCache) Get(ctx context.Context, key string) (float64, error) {
	val, err := oc.rdb.Get(ctx, "odds:"+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("redis: get odds %s: %w", key, err)
	}

	price, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("redis: parse odds %s: %w", key, err)
	}
	return price, nil
}

// Set stores a price with the given TTL.
func (oc *OddsCache) Set(ctx context.Context, key string, price float64, ttl time.Duration) error {
	val := strconv.FormatFloat(price, 'f', -1, 64)
	if err := oc.rdb.Set(ctx, "odds:"+key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set odds %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.OddsCache = (*OddsCache)(nil)
