// Package pipeline wires the scan and settlement loops that drive the engine.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kzharov/pitchsignal/internal/domain"
	"github.com/kzharov/pitchsignal/internal/emit"
	"github.com/kzharov/pitchsignal/internal/feature"
	"github.com/kzharov/pitchsignal/internal/notify"
	"github.com/kzharov/pitchsignal/internal/risk"
	"github.com/kzharov/pitchsignal/internal/staking"
	"github.com/kzharov/pitchsignal/internal/strategy"
)

// maxConcurrentMatches bounds the per-cycle fan-out over live matches.
const maxConcurrentMatches = 8

// Scanner runs the live scan cycle: fetch in-play matches, extract metrics,
// evaluate strategies, price and stake qualifying signals, and emit the picks
// that survive dedup and risk gating.
type Scanner struct {
	feed        domain.MatchFeed
	odds        domain.OddsSource
	extractor   *feature.Extractor
	registry    *strategy.Registry
	model       *staking.Model
	emitter     *emit.Controller
	picks       domain.PickStore
	settlements domain.SettlementStore
	configs     domain.StrategyConfigStore
	riskCfg     risk.Config
	notifier    *notify.Notifier
	logger      *slog.Logger
	now         func() time.Time

	mu        sync.Mutex
	wasPaused bool
}

// ScannerDeps bundles the collaborators a Scanner needs.
type ScannerDeps struct {
	Feed        domain.MatchFeed
	Odds        domain.OddsSource
	Extractor   *feature.Extractor
	Registry    *strategy.Registry
	Model       *staking.Model
	Emitter     *emit.Controller
	Picks       domain.PickStore
	Settlements domain.SettlementStore
	Configs     domain.StrategyConfigStore
	RiskConfig  risk.Config
	Notifier    *notify.Notifier
}

// NewScanner creates a Scanner.
func NewScanner(deps ScannerDeps, logger *slog.Logger) *Scanner {
	return &Scanner{
		feed:        deps.Feed,
		odds:        deps.Odds,
		extractor:   deps.Extractor,
		registry:    deps.Registry,
		model:       deps.Model,
		emitter:     deps.Emitter,
		picks:       deps.Picks,
		settlements: deps.Settlements,
		configs:     deps.Configs,
		riskCfg:     deps.RiskConfig,
		notifier:    deps.Notifier,
		logger:      logger.With(slog.String("component", "scanner")),
		now:         time.Now,
	}
}

// RunLoop runs scan cycles on a ticker until ctx is cancelled. Individual
// cycle failures are logged and the loop continues; only cancellation stops it.
func (s *Scanner) RunLoop(ctx context.Context, interval time.Duration) error {
	if err := s.RunCycle(ctx); err != nil {
		s.logger.Error("scan cycle failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scan loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunCycle(ctx); err != nil {
				s.logger.Error("scan cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunCycle executes one complete scan pass over every live match.
func (s *Scanner) RunCycle(ctx context.Context) error {
	started := s.now()

	state, err := s.refreshRisk(ctx)
	if err != nil {
		return err
	}

	enabled, err := s.enabledConfigs(ctx)
	if err != nil {
		return err
	}
	if len(enabled) == 0 {
		s.logger.Debug("no enabled strategies, skipping cycle")
		return nil
	}

	matches, err := s.feed.LiveMatches(ctx)
	if err != nil {
		return err
	}

	// Evaluation and pricing fan out per match; emission below stays
	// serialized so the dedup controller sees candidates one at a time.
	var (
		candMu     sync.Mutex
		candidates []domain.Pick
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentMatches)
	for _, snap := range matches {
		g.Go(func() error {
			picks := s.evaluateMatch(gctx, snap, enabled, state)
			if len(picks) > 0 {
				candMu.Lock()
				candidates = append(candidates, picks...)
				candMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	emitted := 0
	for _, pick := range candidates {
		if s.emitPick(ctx, pick, state) {
			emitted++
		}
	}

	s.logger.Info("scan cycle complete",
		slog.Int("matches", len(matches)),
		slog.Int("candidates", len(candidates)),
		slog.Int("emitted", emitted),
		slog.Duration("elapsed", s.now().Sub(started)),
	)
	return nil
}

// RunStream consumes pushed match snapshots instead of polling. Risk state
// and strategy configs are refreshed lazily, at most once per refresh window.
func (s *Scanner) RunStream(ctx context.Context, snaps <-chan domain.MatchSnapshot, refresh time.Duration) error {
	var (
		state       domain.RiskState
		enabled     map[string]domain.StrategyConfig
		refreshedAt time.Time
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stream scan stopped")
			return ctx.Err()
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}

			if enabled == nil || s.now().Sub(refreshedAt) >= refresh {
				st, err := s.refreshRisk(ctx)
				if err != nil {
					s.logger.Error("risk refresh failed", slog.String("error", err.Error()))
					continue
				}
				en, err := s.enabledConfigs(ctx)
				if err != nil {
					s.logger.Error("config refresh failed", slog.String("error", err.Error()))
					continue
				}
				state, enabled, refreshedAt = st, en, s.now()
			}
			if len(enabled) == 0 {
				continue
			}

			for _, pick := range s.evaluateMatch(ctx, snap, enabled, state) {
				s.emitPick(ctx, pick, state)
			}
		}
	}
}

// refreshRisk recomputes today's risk state from settlement history and
// notifies once when the day flips into a paused state.
func (s *Scanner) refreshRisk(ctx context.Context) (domain.RiskState, error) {
	day := s.now().UTC().Truncate(24 * time.Hour)

	settled, err := s.settlements.ListByDay(ctx, day)
	if err != nil {
		return domain.RiskState{}, err
	}
	state := risk.Recompute(day, settled, s.riskCfg)

	s.mu.Lock()
	pauseEdge := state.Paused && !s.wasPaused
	s.wasPaused = state.Paused
	s.mu.Unlock()

	if pauseEdge {
		s.logger.Warn("daily loss floor hit, emission paused",
			slog.Float64("daily_profit", state.DailyProfit),
		)
		if s.notifier != nil {
			title, msg := notify.FormatRiskPause(state)
			go s.notifier.Notify(context.WithoutCancel(ctx), notify.EventRiskPause, title, msg)
		}
	}
	return state, nil
}

// enabledConfigs returns the persisted rule sets for strategies the registry
// actually knows. A config row for an unknown strategy is skipped with a log.
func (s *Scanner) enabledConfigs(ctx context.Context) (map[string]domain.StrategyConfig, error) {
	configs, err := s.configs.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	enabled := make(map[string]domain.StrategyConfig, len(configs))
	for _, cfg := range configs {
		if _, err := s.registry.Get(cfg.ID); err != nil {
			s.logger.Warn("config references unknown strategy", slog.String("strategy", cfg.ID))
			continue
		}
		enabled[cfg.ID] = cfg
	}
	return enabled, nil
}

// evaluateMatch extracts metrics for one snapshot and runs every enabled
// strategy over them, returning fully built candidate picks.
func (s *Scanner) evaluateMatch(ctx context.Context, snap domain.MatchSnapshot, enabled map[string]domain.StrategyConfig, state domain.RiskState) []domain.Pick {
	metrics, err := s.extractor.Extract(ctx, snap)
	if err != nil {
		s.logger.Warn("metrics extraction failed",
			slog.String("match", snap.MatchID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	var picks []domain.Pick
	for id, cfg := range enabled {
		strat, err := s.registry.Get(id)
		if err != nil {
			continue
		}

		eval := strat.Evaluate(cfg, metrics)
		if !eval.Qualified() {
			continue
		}
		sig := *eval.Signal
		if err := sig.Validate(); err != nil {
			s.logger.Error("strategy produced invalid signal",
				slog.String("strategy", id),
				slog.String("error", err.Error()),
			)
			continue
		}

		price := s.fetchPrice(ctx, sig)
		pick := s.model.BuildPick(sig, price, state, s.now())
		pick.ScoreAtEmission = metrics.Score
		picks = append(picks, pick)
	}
	return picks
}

// fetchPrice asks the odds source for a live quote. A missing quote is a
// normal condition and yields a non-priceable pick.
func (s *Scanner) fetchPrice(ctx context.Context, sig domain.Signal) *float64 {
	price, err := s.odds.FetchPrice(ctx, sig.MatchID, sig.Market, sig.Selection, sig.Line)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("price fetch failed",
				slog.String("match", sig.MatchID),
				slog.String("market", string(sig.Market)),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return &price
}

// emitPick runs the emission gate and persists the pick when allowed. It
// reports whether the pick was actually stored.
func (s *Scanner) emitPick(ctx context.Context, pick domain.Pick, state domain.RiskState) bool {
	decision := s.emitter.Decide(pick, state)
	if !decision.Allow {
		s.logger.Debug("pick suppressed",
			slog.String("key", pick.Signal.Key()),
			slog.String("reason", decision.Reason),
		)
		return false
	}

	if err := s.picks.Insert(ctx, pick); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Debug("duplicate pick id, skipping", slog.String("id", pick.ID))
			return false
		}
		s.logger.Error("pick insert failed",
			slog.String("id", pick.ID),
			slog.String("error", err.Error()),
		)
		return false
	}

	s.logger.Info("pick emitted",
		slog.String("id", pick.ID),
		slog.String("strategy", pick.Signal.StrategyID),
		slog.String("match", pick.Signal.MatchID),
		slog.String("market", string(pick.Signal.Market)),
		slog.String("tier", string(pick.Tier)),
		slog.Float64("stake", pick.Stake),
	)

	if s.notifier != nil {
		title, msg := notify.FormatPick(pick)
		go s.notifier.Notify(context.WithoutCancel(ctx), notify.EventPick, title, msg)
	}
	return true
}
