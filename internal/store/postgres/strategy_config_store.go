package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// StrategyConfigStore implements domain.StrategyConfigStore using PostgreSQL.
// Threshold params are stored as JSONB and re-parsed leniently on the way
// out, so a hand-edited row with a bad value degrades that one threshold
// instead of failing the load.
type StrategyConfigStore struct {
	pool *pgxpool.Pool
}

// NewStrategyConfigStore creates a new StrategyConfigStore backed by the given connection pool.
func NewStrategyConfigStore(pool *pgxpool.Pool) *StrategyConfigStore {
	return &StrategyConfigStore{pool: pool}
}

// ListEnabled returns the rule sets that should run this cycle.
func (s *StrategyConfigStore) ListEnabled(ctx context.Context) ([]domain.StrategyConfig, error) {
	const query = `SELECT id, label, enabled, params, updated_at
		FROM strategy_configs WHERE enabled ORDER BY id`
	return s.list(ctx, query)
}

// List returns all strategy configurations, enabled or not.
func (s *StrategyConfigStore) List(ctx context.Context) ([]domain.StrategyConfig, error) {
	const query = `SELECT id, label, enabled, params, updated_at
		FROM strategy_configs ORDER BY id`
	return s.list(ctx, query)
}

func (s *StrategyConfigStore) list(ctx context.Context, query string) ([]domain.StrategyConfig, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list strategy configs: %w", err)
	}
	defer rows.Close()

	var configs []domain.StrategyConfig
	for rows.Next() {
		cfg, err := scanStrategyConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: strategy config rows: %w", err)
	}
	return configs, nil
}

func scanStrategyConfig(rows pgx.Rows) (domain.StrategyConfig, error) {
	var cfg domain.StrategyConfig
	var paramsJSON []byte

	if err := rows.Scan(&cfg.ID, &cfg.Label, &cfg.Enabled, &paramsJSON, &cfg.UpdatedAt); err != nil {
		return domain.StrategyConfig{}, fmt.Errorf("postgres: scan strategy config: %w", err)
	}

	if len(paramsJSON) > 0 {
		var raw map[string]any
		if err := json.Unmarshal(paramsJSON, &raw); err != nil {
			return domain.StrategyConfig{}, fmt.Errorf("postgres: unmarshal strategy params %s: %w", cfg.ID, err)
		}
		cfg.Params = domain.ParseParams(raw)
	}
	return cfg, nil
}

// Upsert inserts or updates a strategy configuration. Params are stored as JSONB.
func (s *StrategyConfigStore) Upsert(ctx context.Context, cfg domain.StrategyConfig) error {
	paramsJSON, err := json.Marshal(cfg.Params)
	if err != nil {
		return fmt.Errorf("postgres: marshal strategy params %s: %w", cfg.ID, err)
	}

	const query = `
		INSERT INTO strategy_configs (id, label, enabled, params, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			label      = EXCLUDED.label,
			enabled    = EXCLUDED.enabled,
			params     = EXCLUDED.params,
			updated_at = NOW()`

	if _, err := s.pool.Exec(ctx, query, cfg.ID, cfg.Label, cfg.Enabled, paramsJSON); err != nil {
		return fmt.Errorf("postgres: upsert strategy config %s: %w", cfg.ID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.StrategyConfigStore = (*StrategyConfigStore)(nil)
