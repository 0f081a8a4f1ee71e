package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// SettlementStore implements domain.SettlementStore using PostgreSQL.
// The pick ID is the primary key, so re-settling a pick is a no-op at the
// storage layer regardless of what the caller computed.
type SettlementStore struct {
	pool *pgxpool.Pool
}

// NewSettlementStore creates a new SettlementStore backed by the given connection pool.
func NewSettlementStore(pool *pgxpool.Pool) *SettlementStore {
	return &SettlementStore{pool: pool}
}

const settlementColumns = `pick_id, strategy_id, market, final_home, final_away, outcome,
	skip_reason, stake, profit, closing_price, clv, emitted_at, settled_at`

// Insert stores a settlement record. It reports whether the row was written;
// false means a record for this pick already existed and was left untouched.
func (s *SettlementStore) Insert(ctx context.Context, rec domain.SettlementRecord) (bool, error) {
	const query = `
		INSERT INTO settlements (` + settlementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (pick_id) DO NOTHING`

	tag, err := s.pool.Exec(ctx, query,
		rec.PickID,
		rec.StrategyID,
		string(rec.Market),
		rec.FinalScore.Home,
		rec.FinalScore.Away,
		string(rec.Outcome),
		rec.SkipReason,
		rec.Stake,
		rec.Profit,
		rec.ClosingPrice,
		rec.CLV,
		rec.EmittedAt,
		rec.SettledAt,
	)
	if err != nil {
		return false, fmt.Errorf("postgres: insert settlement %s: %w", rec.PickID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByDay returns all records whose pick was emitted on the given UTC day,
// in emission order.
func (s *SettlementStore) ListByDay(ctx context.Context, day time.Time) ([]domain.SettlementRecord, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	return s.ListRange(ctx, start, start.Add(24*time.Hour))
}

// ListRange returns records for picks emitted in [from, to), in emission order.
func (s *SettlementStore) ListRange(ctx context.Context, from, to time.Time) ([]domain.SettlementRecord, error) {
	const query = `SELECT ` + settlementColumns + ` FROM settlements
		WHERE emitted_at >= $1 AND emitted_at < $2 ORDER BY emitted_at`

	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: list settlements: %w", err)
	}
	defer rows.Close()

	return scanSettlements(rows)
}

func scanSettlements(rows pgx.Rows) ([]domain.SettlementRecord, error) {
	var recs []domain.SettlementRecord
	for rows.Next() {
		var (
			rec             domain.SettlementRecord
			market, outcome string
		)
		err := rows.Scan(
			&rec.PickID,
			&rec.StrategyID,
			&market,
			&rec.FinalScore.Home,
			&rec.FinalScore.Away,
			&outcome,
			&rec.SkipReason,
			&rec.Stake,
			&rec.Profit,
			&rec.ClosingPrice,
			&rec.CLV,
			&rec.EmittedAt,
			&rec.SettledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan settlement: %w", err)
		}
		rec.Market = domain.Market(market)
		rec.Outcome = domain.Outcome(outcome)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: settlement rows: %w", err)
	}
	return recs, nil
}

// Compile-time interface check.
var _ domain.SettlementStore = (*SettlementStore)(nil)
