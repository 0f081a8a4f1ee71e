package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
	"github.com/redis/go-redis/v9"
)

// StatsCache implements domain.StatsCache using Redis string values.
// Each match's stat rows are stored JSON-encoded at key "stats:{matchID}"
// with the TTL supplied by the caller.
type StatsCache struct {
	rdb *redis.Client
}

// NewStatsCache creates a StatsCache backed by the given Client.
func NewStatsCache(c *Client) *StatsCache {
	return &StatsCache{rdb: c.Underlying()}
}

func statsKey(matchID string) string {
	return "stats:" + matchID
}

// Get retrieves cached stat rows for a match.
// It returns domain.ErrNotFound when the key does not exist or has expired.
func (sc *StatsCache) Get(ctx context.Context, matchID string) ([]domain.StatRow, error) {
	data, err := sc.rdb.Get(ctx, statsKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get stats %s: %w", matchID, err)
	}

	var rows []domain.StatRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("redis: decode stats %s: %w", matchID, err)
	}
	return rows, nil
}

// Set stores stat rows for a match with the given TTL.
func (sc *StatsCache) Set(ctx context.Context, matchID string, rows []domain.StatRow, ttl time.Duration) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("redis: encode stats %s: %w", matchID, err)
	}
	if err := sc.rdb.Set(ctx, statsKey(matchID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set stats %s: %w", matchID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.StatsCache = (*StatsCache)(nil)
