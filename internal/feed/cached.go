package feed

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// CachedStats fronts a StatsSource with a short-TTL cache to bound upstream
// call volume. Cache failures fall through to the source; source failures
// propagate so the extractor can degrade to zero stats.
type CachedStats struct {
	source domain.StatsSource
	cache  domain.StatsCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStats creates a CachedStats. cache may be nil to disable caching.
func NewCachedStats(source domain.StatsSource, cache domain.StatsCache, ttl time.Duration, logger *slog.Logger) *CachedStats {
	return &CachedStats{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "stats_cache")),
	}
}

// FetchStats implements domain.StatsSource.
func (c *CachedStats) FetchStats(ctx context.Context, matchID string) ([]domain.StatRow, error) {
	if c.cache != nil {
		rows, err := c.cache.Get(ctx, matchID)
		if err == nil {
			return rows, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.WarnContext(ctx, "stats cache read failed",
				slog.String("match_id", matchID),
				slog.String("error", err.Error()),
			)
		}
	}

	rows, err := c.source.FetchStats(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, matchID, rows, c.ttl); err != nil {
			c.logger.WarnContext(ctx, "stats cache write failed",
				slog.String("match_id", matchID),
				slog.String("error", err.Error()),
			)
		}
	}
	return rows, nil
}

// CachedOdds fronts an OddsSource with a short-TTL cache.
type CachedOdds struct {
	source domain.OddsSource
	cache  domain.OddsCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedOdds creates a CachedOdds. cache may be nil to disable caching.
func NewCachedOdds(source domain.OddsSource, cache domain.OddsCache, ttl time.Duration, logger *slog.Logger) *CachedOdds {
	return &CachedOdds{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "odds_cache")),
	}
}

func oddsKey(matchID string, market domain.Market, sel domain.Side, line *float64) string {
	k := matchID + "|" + string(market) + "|" + string(sel)
	if line != nil {
		k += "|" + strconv.FormatFloat(*line, 'f', 2, 64)
	}
	return k
}

// FetchPrice implements domain.OddsSource.
func (c *CachedOdds) FetchPrice(ctx context.Context, matchID string, market domain.Market, sel domain.Side, line *float64) (float64, error) {
	key := oddsKey(matchID, market, sel, line)

	if c.cache != nil {
		price, err := c.cache.Get(ctx, key)
		if err == nil {
			return price, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.WarnContext(ctx, "odds cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	price, err := c.source.FetchPrice(ctx, matchID, market, sel, line)
	if err != nil {
		return 0, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, price, c.ttl); err != nil {
			c.logger.WarnContext(ctx, "odds cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
	return price, nil
}

var (
	_ domain.StatsSource = (*CachedStats)(nil)
	_ domain.OddsSource  = (*CachedOdds)(nil)
)
