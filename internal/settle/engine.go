// Package settle resolves finished matches against pending picks. Settlement
// is idempotent: a pick already carrying a terminal outcome is skipped, and
// the settlement store ignores duplicate records by pick ID.
package settle

import (
	"fmt"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// Config holds settlement parameters.
type Config struct {
	// AssumedPrice realizes profit for picks that were emitted without a
	// market price when no closing price could be fetched either. 1.90 is
	// the standard juice on half-goal handicap lines.
	AssumedPrice float64
}

// DefaultConfig returns the settlement parameters used when none are configured.
func DefaultConfig() Config {
	return Config{AssumedPrice: 1.90}
}

// Engine settles picks against final scores.
type Engine struct {
	cfg Config
	now func() time.Time
}

// New creates an Engine. A zero AssumedPrice falls back to the default.
func New(cfg Config) *Engine {
	if cfg.AssumedPrice <= 1 {
		cfg.AssumedPrice = DefaultConfig().AssumedPrice
	}
	return &Engine{cfg: cfg, now: time.Now}
}

// Settle resolves one pick against the match's final state. It returns
// domain.ErrNotFinished when the match status is not settleable yet (the pick
// stays pending, to be retried) and domain.ErrAlreadySettled when the pick
// already carries a terminal status. closing is the market's last quoted
// price for the selection, nil when unavailable.
func (e *Engine) Settle(pick domain.Pick, final domain.Score, status domain.MatchStatus, closing *float64) (domain.SettlementRecord, error) {
	if pick.Status != domain.PickStatusPending {
		return domain.SettlementRecord{}, domain.ErrAlreadySettled
	}
	if !status.Finished() {
		return domain.SettlementRecord{}, domain.ErrNotFinished
	}

	outcome, skipReason := resolve(pick, final)

	rec := domain.SettlementRecord{
		PickID:     pick.ID,
		StrategyID: pick.Signal.StrategyID,
		Market:     pick.Signal.Market,
		FinalScore: final,
		Outcome:    outcome,
		SkipReason: skipReason,
		Stake:      pick.Stake,
		Profit:     profit(outcome, e.effectivePrice(pick, closing), pick.Stake),
		EmittedAt:  pick.EmittedAt,
		SettledAt:  e.now().UTC(),
	}

	if closing != nil && pick.Price != nil && *closing > 1 {
		rec.ClosingPrice = closing
		rec.CLV = domain.Float((*pick.Price - *closing) / *closing * 100)
	}
	return rec, nil
}

// effectivePrice picks the odds used to realize profit: the price taken,
// falling back to the closing price, falling back to the configured
// assumption for never-priced markets.
func (e *Engine) effectivePrice(pick domain.Pick, closing *float64) float64 {
	if pick.Price != nil {
		return *pick.Price
	}
	if closing != nil && *closing > 1 {
		return *closing
	}
	return e.cfg.AssumedPrice
}

// resolve computes the bet outcome for a pick given the final score. It
// never fails: anything unsettleable comes back as SKIP with a reason.
func resolve(pick domain.Pick, final domain.Score) (domain.Outcome, string) {
	sig := pick.Signal
	switch sig.Market {
	case domain.MarketHeadToHead:
		return resolveHeadToHead(sig.Selection, final)
	case domain.MarketTotalGoals:
		return resolveTotals(sig.Selection, sig.Line, final)
	case domain.MarketNextGoal:
		return resolveNextGoal(sig.Selection, pick.ScoreAtEmission, final)
	case domain.MarketAsianHandicap:
		return resolveHandicap(sig.Selection, sig.Line, final)
	default:
		return domain.OutcomeSkip, fmt.Sprintf("unsupported market %q", sig.Market)
	}
}

// resolveHeadToHead wins on a strict goal majority for the selected side.
// A draw satisfies neither side.
func resolveHeadToHead(sel domain.Side, final domain.Score) (domain.Outcome, string) {
	switch sel {
	case domain.SideHome:
		if final.Home > final.Away {
			return domain.OutcomeWin, ""
		}
		return domain.OutcomeLose, ""
	case domain.SideAway:
		if final.Away > final.Home {
			return domain.OutcomeWin, ""
		}
		return domain.OutcomeLose, ""
	}
	return domain.OutcomeSkip, fmt.Sprintf("h2h selection %q is not a team side", sel)
}

func resolveTotals(sel domain.Side, line *float64, final domain.Score) (domain.Outcome, string) {
	if line == nil {
		return domain.OutcomeSkip, "totals pick has no line"
	}
	if sel != domain.SideOver && sel != domain.SideUnder {
		return domain.OutcomeSkip, fmt.Sprintf("totals selection %q is not over/under", sel)
	}

	total := float64(final.Total())
	switch {
	case total == *line:
		return domain.OutcomePush, ""
	case total > *line:
		if sel == domain.SideOver {
			return domain.OutcomeWin, ""
		}
		return domain.OutcomeLose, ""
	default:
		if sel == domain.SideUnder {
			return domain.OutcomeWin, ""
		}
		return domain.OutcomeLose, ""
	}
}

// resolveNextGoal settles against the goals scored after emission. The final
// score alone cannot order goals, so when both sides scored again the result
// is a conservative PUSH.
func resolveNextGoal(sel domain.Side, atEmission, final domain.Score) (domain.Outcome, string) {
	if sel != domain.SideHome && sel != domain.SideAway {
		return domain.OutcomeSkip, fmt.Sprintf("next-goal selection %q is not a team side", sel)
	}

	dh := final.Home - atEmission.Home
	da := final.Away - atEmission.Away
	if dh < 0 || da < 0 {
		return domain.OutcomeSkip, fmt.Sprintf("final score %d-%d below score at emission %d-%d",
			final.Home, final.Away, atEmission.Home, atEmission.Away)
	}

	own, opp := dh, da
	if sel == domain.SideAway {
		own, opp = da, dh
	}
	switch {
	case own > 0 && opp == 0:
		return domain.OutcomeWin, ""
	case opp > 0 && own == 0:
		return domain.OutcomeLose, ""
	case own == 0 && opp == 0:
		// No further goal: the backed side did not score next.
		return domain.OutcomeLose, ""
	default:
		// Both scored after emission; goal order is unknowable here.
		return domain.OutcomePush, ""
	}
}

// profit realizes the monetary result of an outcome in stake units.
func profit(outcome domain.Outcome, price, stake float64) float64 {
	switch outcome {
	case domain.OutcomeWin:
		return (price - 1) * stake
	case domain.OutcomeHalfWin:
		return (price - 1) * stake / 2
	case domain.OutcomeLose:
		return -stake
	case domain.OutcomeHalfLose:
		return -stake / 2
	default: // PUSH, SKIP
		return 0
	}
}
