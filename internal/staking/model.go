// Package staking converts qualifying signals into priced, staked picks. The
// model probability is deliberately conservative: it never claims underdog
// edge (floor 0.50) and never near-certainty (ceiling 0.70).
package staking

import (
	"math"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// Model probability bounds. Design invariants, not tunables.
const (
	probFloor   = 0.50
	probCeiling = 0.70
)

// TierThreshold assigns a confidence tier to any model probability at or
// above MinProb. Thresholds are evaluated in descending order.
type TierThreshold struct {
	MinProb float64
	Tier    domain.Tier
}

// Config holds the staking parameters.
type Config struct {
	// KellyMultiplier is the fractional-Kelly scale applied to the full
	// Kelly fraction.
	KellyMultiplier float64
	// StakeFloor and StakeCeiling clamp the final stake in units.
	StakeFloor   float64
	StakeCeiling float64
	// Tiers is the descending list of probability thresholds. A probability
	// below every threshold falls to the lowest tier.
	Tiers []TierThreshold
}

// DefaultConfig returns the staking parameters used when none are configured.
func DefaultConfig() Config {
	return Config{
		KellyMultiplier: 0.25,
		StakeFloor:      0.25,
		StakeCeiling:    3.0,
		Tiers: []TierThreshold{
			{MinProb: 0.64, Tier: domain.TierA},
			{MinProb: 0.57, Tier: domain.TierB},
			{MinProb: 0, Tier: domain.TierC},
		},
	}
}

// strategyProbBase maps each strategy to its base probability and the span
// added at full strength. base + span must stay at or below the ceiling.
var strategyProbBase = map[string]struct{ base, span float64 }{
	"trailing_surge": {0.53, 0.14},
	"late_over":      {0.54, 0.12},
	"ah_pressure":    {0.52, 0.15},
	"draw_break":     {0.51, 0.13},
}

// defaultProbBase covers strategies without a tuned entry.
var defaultProbBase = struct{ base, span float64 }{0.52, 0.12}

// Model builds picks from signals.
type Model struct {
	cfg Config
}

// New creates a Model. Zero-valued config fields fall back to defaults.
func New(cfg Config) *Model {
	def := DefaultConfig()
	if cfg.KellyMultiplier <= 0 {
		cfg.KellyMultiplier = def.KellyMultiplier
	}
	if cfg.StakeCeiling <= 0 {
		cfg.StakeFloor = def.StakeFloor
		cfg.StakeCeiling = def.StakeCeiling
	}
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = def.Tiers
	}
	return &Model{cfg: cfg}
}

// Probability maps a strategy and signal strength to the model win
// probability, always within [0.50, 0.70].
func (m *Model) Probability(strategyID string, strength float64) float64 {
	pb, ok := strategyProbBase[strategyID]
	if !ok {
		pb = defaultProbBase
	}
	p := pb.base + pb.span*clamp(strength, 0, 1)
	return clamp(p, probFloor, probCeiling)
}

// BuildPick prices and stakes a signal. price is nil when no live market
// price exists for the selection; such picks go out non-priceable with a
// heuristic stake. risk supplies the cycle's stake-scale snapshot.
func (m *Model) BuildPick(sig domain.Signal, price *float64, risk domain.RiskState, at time.Time) domain.Pick {
	pick := domain.Pick{
		ID:        domain.PickID(sig.MatchID, sig.StrategyID, sig.Selection, sig.Line, at),
		Signal:    sig,
		ModelProb: m.Probability(sig.StrategyID, sig.Strength),
		EmittedAt: at,
		Status:    domain.PickStatusPending,
	}

	if price == nil || *price <= 1 {
		pick.Stake = m.scale(m.heuristicStake(sig), risk)
		pick.Tier = m.tierFor(pick.ModelProb)
		return pick
	}

	p := *price
	implied := 1 / p
	edge := pick.ModelProb - implied
	kelly := clamp(edge/(p-1), 0, 1)

	pick.Price = domain.Float(p)
	pick.ImpliedProb = domain.Float(implied)
	pick.Edge = domain.Float(edge)
	pick.KellyFrac = kelly
	pick.Stake = m.scale(clamp(kelly*m.cfg.KellyMultiplier*10, m.cfg.StakeFloor, m.cfg.StakeCeiling), risk)
	pick.Tier = m.tierFor(pick.ModelProb)
	return pick
}

// heuristicStake sizes non-priceable picks from strength and line magnitude
// only: steeper lines carry more variance and get a larger nominal stake cap.
func (m *Model) heuristicStake(sig domain.Signal) float64 {
	lineMag := 0.0
	if sig.Line != nil {
		lineMag = math.Abs(*sig.Line)
	}
	raw := sig.Strength * (1 + 0.25*math.Min(lineMag, 2))
	return clamp(raw, m.cfg.StakeFloor, m.cfg.StakeCeiling)
}

func (m *Model) scale(stake float64, risk domain.RiskState) float64 {
	s := risk.StakeScale
	if s <= 0 {
		s = 1
	}
	return stake * s
}

// tierFor returns the first tier whose threshold the probability meets,
// defaulting to the lowest configured tier.
func (m *Model) tierFor(prob float64) domain.Tier {
	for _, t := range m.cfg.Tiers {
		if prob >= t.MinProb {
			return t.Tier
		}
	}
	return m.cfg.Tiers[len(m.cfg.Tiers)-1].Tier
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
