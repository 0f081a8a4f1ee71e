package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kzharov/pitchsignal/internal/domain"
	"github.com/kzharov/pitchsignal/internal/emit"
	"github.com/kzharov/pitchsignal/internal/feature"
	"github.com/kzharov/pitchsignal/internal/pipeline"
	"github.com/kzharov/pitchsignal/internal/report"
	"github.com/kzharov/pitchsignal/internal/risk"
	"github.com/kzharov/pitchsignal/internal/settle"
	"github.com/kzharov/pitchsignal/internal/staking"
	"github.com/kzharov/pitchsignal/internal/strategy"
)

// reportWindowDays is how far back the report mode aggregates.
const reportWindowDays = 30

// ScanMode runs only the live scan loop (plus the push stream when one is
// configured). Settlement is left to a separate process.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	if err := a.seedStrategyConfigs(ctx, deps); err != nil {
		return err
	}

	scanner, emitter := a.buildScanner(deps)
	orch := pipeline.NewOrchestrator(
		scanner, nil, emitter, nil,
		a.cfg.Scan.Interval.Duration, a.cfg.Settle.Interval.Duration,
		a.logger,
	)
	return a.runWithStream(ctx, orch, scanner, deps)
}

// SettleMode runs only the settlement loop and the optional daily archive.
func (a *App) SettleMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting settle mode")

	orch := pipeline.NewOrchestrator(
		nil, a.buildSettler(deps), nil, deps.Archiver,
		a.cfg.Scan.Interval.Duration, a.cfg.Settle.Interval.Duration,
		a.logger,
	)
	return orch.Run(ctx)
}

// FullMode runs the scan loop, the settlement loop, the emission prune, the
// optional push stream, and the optional daily archive in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	if err := a.seedStrategyConfigs(ctx, deps); err != nil {
		return err
	}

	scanner, emitter := a.buildScanner(deps)
	orch := pipeline.NewOrchestrator(
		scanner, a.buildSettler(deps), emitter, deps.Archiver,
		a.cfg.Scan.Interval.Duration, a.cfg.Settle.Interval.Duration,
		a.logger,
	)
	return a.runWithStream(ctx, orch, scanner, deps)
}

// ReportMode aggregates recent settlement history per strategy and per market
// and prints the table to stdout, then exits.
func (a *App) ReportMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting report mode")

	to := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	from := to.AddDate(0, 0, -reportWindowDays)

	records, err := deps.SettlementStore.ListRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("app: report query: %w", err)
	}

	rows := report.Aggregate(records, report.Options{ByMarket: true})

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "strategy\tmarket\tbets\tW\tL\tP\thW\thL\tskip\twin%%\tstake\tprofit\troi\n")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.1f\t%.2f\t%+.2f\t%+.3f\n",
			r.StrategyID, r.Market, r.Bets,
			r.Wins, r.Losses, r.Pushes, r.HalfWins, r.HalfLosses, r.Skips,
			r.WinRate*100, r.Stake, r.Profit, r.ROI,
		)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("app: report output: %w", err)
	}

	a.logger.InfoContext(ctx, "report complete",
		slog.Int("settlements", len(records)),
		slog.Int("rows", len(rows)),
	)
	return nil
}

// buildScanner assembles the scan pipeline from configuration.
func (a *App) buildScanner(deps *Dependencies) (*pipeline.Scanner, *emit.Controller) {
	emitter := emit.New(emit.Config{
		Cooldown:      a.cfg.Emission.Cooldown.Duration,
		MinEdgeDelta:  a.cfg.Emission.MinEdgeDelta,
		MinPriceDelta: a.cfg.Emission.MinPriceDelta,
		MinEdge:       a.cfg.Emission.MinEdge,
	})

	stakingCfg := staking.DefaultConfig()
	stakingCfg.KellyMultiplier = a.cfg.Staking.KellyMultiplier
	stakingCfg.StakeFloor = a.cfg.Staking.StakeFloor
	stakingCfg.StakeCeiling = a.cfg.Staking.StakeCeiling

	scanner := pipeline.NewScanner(pipeline.ScannerDeps{
		Feed:        deps.Feed,
		Odds:        deps.Odds,
		Extractor:   feature.New(deps.Stats, a.logger),
		Registry:    strategy.Default(),
		Model:       staking.New(stakingCfg),
		Emitter:     emitter,
		Picks:       deps.PickStore,
		Settlements: deps.SettlementStore,
		Configs:     deps.StratCfgStore,
		RiskConfig: risk.Config{
			DailyLossFloor:       a.cfg.Risk.DailyLossFloor,
			MaxConsecutiveLosses: a.cfg.Risk.MaxConsecutiveLosses,
			ReducedScale:         a.cfg.Risk.ReducedScale,
		},
		Notifier: deps.Notifier,
	}, a.logger)

	return scanner, emitter
}

// buildSettler assembles the settlement pipeline from configuration.
func (a *App) buildSettler(deps *Dependencies) *pipeline.Settler {
	engine := settle.New(settle.Config{AssumedPrice: a.cfg.Settle.AssumedPrice})
	return pipeline.NewSettler(
		deps.Feed, deps.Odds, engine,
		deps.PickStore, deps.SettlementStore,
		deps.Notifier, a.logger,
	)
}

// runWithStream runs the orchestrator and, when a websocket URL is
// configured, the push stream feeding a second scan path. Pushed snapshots
// and polled cycles go through the same emission gate, so overlap is safe.
func (a *App) runWithStream(ctx context.Context, orch *pipeline.Orchestrator, scanner *pipeline.Scanner, deps *Dependencies) error {
	if deps.Stream == nil {
		return orch.Run(ctx)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return orch.Run(ctx)
	})

	snaps := make(chan domain.MatchSnapshot, 64)
	g.Go(func() error {
		err := deps.Stream.Run(ctx, snaps)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("app: feed stream: %w", err)
	})
	g.Go(func() error {
		err := scanner.RunStream(ctx, snaps, a.cfg.Scan.Interval.Duration)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})

	return g.Wait()
}

// seedStrategyConfigs installs the built-in rule sets on first run so a fresh
// database starts scanning without manual setup. Existing rows always win.
func (a *App) seedStrategyConfigs(ctx context.Context, deps *Dependencies) error {
	existing, err := deps.StratCfgStore.List(ctx)
	if err != nil {
		return fmt.Errorf("app: list strategy configs: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, cfg := range defaultStrategyConfigs() {
		if err := deps.StratCfgStore.Upsert(ctx, cfg); err != nil {
			return fmt.Errorf("app: seed strategy config %s: %w", cfg.ID, err)
		}
		a.logger.InfoContext(ctx, "seeded strategy config", slog.String("strategy", cfg.ID))
	}
	return nil
}

// defaultStrategyConfigs returns the starting thresholds for each built-in
// strategy. Operators tune these through the strategy_configs table.
func defaultStrategyConfigs() []domain.StrategyConfig {
	return []domain.StrategyConfig{
		{
			ID:      "trailing_surge",
			Label:   "Trailing side statistical surge",
			Enabled: true,
			Params: map[string]float64{
				strategy.ParamMinMinute:      60,
				strategy.ParamMaxMinute:      85,
				strategy.ParamMinPressure:    0.55,
				strategy.ParamMinSOTDiff:     2,
				strategy.ParamMaxGoalDeficit: 1,
			},
		},
		{
			ID:      "late_over",
			Label:   "Late-game over on next goal line",
			Enabled: true,
			Params: map[string]float64{
				strategy.ParamMinMinute:    65,
				strategy.ParamMaxMinute:    88,
				strategy.ParamMinXGSum:     1.2,
				strategy.ParamMinSOTSum:    6,
				strategy.ParamMinCornerSum: 8,
			},
		},
		{
			ID:      "ah_pressure",
			Label:   "Dominant side quarter-line handicap",
			Enabled: true,
			Params: map[string]float64{
				strategy.ParamMinMinute:     55,
				strategy.ParamMaxMinute:     84,
				strategy.ParamMinPressure:   0.60,
				strategy.ParamMinSOTDiff:    3,
				strategy.ParamMinCornerDiff: 3,
			},
		},
		{
			ID:      "draw_break",
			Label:   "Dominant side to break a draw",
			Enabled: true,
			Params: map[string]float64{
				strategy.ParamMinMinute:   60,
				strategy.ParamMaxMinute:   82,
				strategy.ParamMinPressure: 0.62,
				strategy.ParamMinSOTDiff:  2,
			},
		},
	}
}
