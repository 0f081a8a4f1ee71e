package domain

import (
	"context"
	"time"
)

// PickStore persists emitted picks.
type PickStore interface {
	// Insert stores a new pick. ErrAlreadyExists is returned when a pick
	// with the same deterministic ID was already emitted.
	Insert(ctx context.Context, pick Pick) error
	// ListPending returns all picks still awaiting settlement.
	ListPending(ctx context.Context) ([]Pick, error)
	// MarkSettled transitions a pick to its terminal status.
	MarkSettled(ctx context.Context, id string, status PickStatus) error
	// ListByDay returns picks emitted on the given UTC day.
	ListByDay(ctx context.Context, day time.Time) ([]Pick, error)
}

// SettlementStore persists settlement records, at most one per pick ID.
type SettlementStore interface {
	// Insert stores a settlement record. A record for an already-settled
	// pick is silently ignored; Insert reports whether the row was written.
	Insert(ctx context.Context, rec SettlementRecord) (bool, error)
	// ListByDay returns all records whose pick was emitted on the given UTC
	// day, in emission order.
	ListByDay(ctx context.Context, day time.Time) ([]SettlementRecord, error)
	// ListRange returns records for picks emitted in [from, to), in emission
	// order, for reporting queries.
	ListRange(ctx context.Context, from, to time.Time) ([]SettlementRecord, error)
}

// StrategyConfigStore loads and persists strategy rule sets.
type StrategyConfigStore interface {
	ListEnabled(ctx context.Context) ([]StrategyConfig, error)
	List(ctx context.Context) ([]StrategyConfig, error)
	Upsert(ctx context.Context, cfg StrategyConfig) error
}

// MatchFeed is the upstream match-state collaborator.
type MatchFeed interface {
	// LiveMatches returns a snapshot of every in-play match.
	LiveMatches(ctx context.Context) ([]MatchSnapshot, error)
	// FinalState returns the final score and status for a match. The status
	// may still be unfinished, in which case settlement retries later.
	FinalState(ctx context.Context, matchID string) (Score, MatchStatus, error)
}

// StatsSource fetches raw statistic rows for one match. A failed fetch
// degrades to zero-valued statistics, never a failed cycle.
type StatsSource interface {
	FetchStats(ctx context.Context, matchID string) ([]StatRow, error)
}

// OddsSource fetches the current decimal price for a selection. ErrNotFound
// means no live price exists for that market, which is not an error for
// markets settled without one.
type OddsSource interface {
	FetchPrice(ctx context.Context, matchID string, market Market, sel Side, line *float64) (float64, error)
}

// StatsCache is a short-TTL cache in front of a StatsSource.
type StatsCache interface {
	Get(ctx context.Context, matchID string) ([]StatRow, error)
	Set(ctx context.Context, matchID string, rows []StatRow, ttl time.Duration) error
}

// OddsCache is a short-TTL cache in front of an OddsSource.
type OddsCache interface {
	Get(ctx context.Context, key string) (float64, error)
	Set(ctx context.Context, key string, price float64, ttl time.Duration) error
}

// BlobWriter uploads an object to cold storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
}
