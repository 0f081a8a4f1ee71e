package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// PickStore implements domain.PickStore using PostgreSQL.
type PickStore struct {
	pool *pgxpool.Pool
}

// NewPickStore creates a new PickStore backed by the given connection pool.
func NewPickStore(pool *pgxpool.Pool) *PickStore {
	return &PickStore{pool: pool}
}

const pickColumns = `id, strategy_id, match_id, market, selection, line, strength, note,
	model_prob, price, implied_prob, edge, kelly_frac, stake, tier,
	score_home, score_away, emitted_at, status`

// Insert stores a new pick. The deterministic pick ID doubles as the
// primary key, so a duplicate emission surfaces as domain.ErrAlreadyExists.
func (s *PickStore) Insert(ctx context.Context, pick domain.Pick) error {
	const query = `
		INSERT INTO picks (` + pickColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := s.pool.Exec(ctx, query,
		pick.ID,
		pick.Signal.StrategyID,
		pick.Signal.MatchID,
		string(pick.Signal.Market),
		string(pick.Signal.Selection),
		pick.Signal.Line,
		pick.Signal.Strength,
		pick.Signal.Note,
		pick.ModelProb,
		pick.Price,
		pick.ImpliedProb,
		pick.Edge,
		pick.KellyFrac,
		pick.Stake,
		string(pick.Tier),
		pick.ScoreAtEmission.Home,
		pick.ScoreAtEmission.Away,
		pick.EmittedAt,
		string(pick.Status),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: insert pick %s: %w", pick.ID, err)
	}
	return nil
}

// ListPending returns all picks still awaiting settlement, oldest first.
func (s *PickStore) ListPending(ctx context.Context) ([]domain.Pick, error) {
	const query = `SELECT ` + pickColumns + ` FROM picks WHERE status = $1 ORDER BY emitted_at`

	rows, err := s.pool.Query(ctx, query, string(domain.PickStatusPending))
	if err != nil {
		return nil, fmt.Errorf("postgres: list pending picks: %w", err)
	}
	defer rows.Close()

	return scanPicks(rows)
}

// MarkSettled transitions a pick to its terminal status.
func (s *PickStore) MarkSettled(ctx context.Context, id string, status domain.PickStatus) error {
	const query = `UPDATE picks SET status = $2 WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("postgres: mark pick %s settled: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByDay returns picks emitted on the given UTC day, oldest first.
func (s *PickStore) ListByDay(ctx context.Context, day time.Time) ([]domain.Pick, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	const query = `SELECT ` + pickColumns + ` FROM picks
		WHERE emitted_at >= $1 AND emitted_at < $2 ORDER BY emitted_at`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("postgres: list picks for %s: %w", start.Format(time.DateOnly), err)
	}
	defer rows.Close()

	return scanPicks(rows)
}

func scanPicks(rows pgx.Rows) ([]domain.Pick, error) {
	var picks []domain.Pick
	for rows.Next() {
		var (
			p                 domain.Pick
			market, selection string
			tier, status      string
		)
		err := rows.Scan(
			&p.ID,
			&p.Signal.StrategyID,
			&p.Signal.MatchID,
			&market,
			&selection,
			&p.Signal.Line,
			&p.Signal.Strength,
			&p.Signal.Note,
			&p.ModelProb,
			&p.Price,
			&p.ImpliedProb,
			&p.Edge,
			&p.KellyFrac,
			&p.Stake,
			&tier,
			&p.ScoreAtEmission.Home,
			&p.ScoreAtEmission.Away,
			&p.EmittedAt,
			&status,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan pick: %w", err)
		}
		p.Signal.Market = domain.Market(market)
		p.Signal.Selection = domain.Side(selection)
		p.Tier = domain.Tier(tier)
		p.Status = domain.PickStatus(status)
		picks = append(picks, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: pick rows: %w", err)
	}
	return picks, nil
}

// Compile-time interface check.
var _ domain.PickStore = (*PickStore)(nil)
