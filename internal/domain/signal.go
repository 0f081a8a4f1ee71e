package domain

import (
	"fmt"
	"strconv"
)

// Market is the closed set of bet markets the engine can emit picks on.
type Market string

const (
	MarketHeadToHead    Market = "h2h"
	MarketTotalGoals    Market = "total_goals"
	MarketNextGoal      Market = "next_goal"
	MarketAsianHandicap Market = "asian_handicap"
)

// Valid reports whether m is a known market.
func (m Market) Valid() bool {
	switch m {
	case MarketHeadToHead, MarketTotalGoals, MarketNextGoal, MarketAsianHandicap:
		return true
	}
	return false
}

// RequiresLine reports whether picks on this market must carry a line value.
func (m Market) RequiresLine() bool {
	return m == MarketTotalGoals || m == MarketAsianHandicap
}

// Side is a bet selection: a team side for h2h/next-goal/handicap markets, or
// an over/under direction for totals.
type Side string

const (
	SideHome  Side = "home"
	SideAway  Side = "away"
	SideOver  Side = "over"
	SideUnder Side = "under"
)

// Signal is a qualifying strategy output: one candidate bet before pricing
// and staking. Line is nil for markets that do not take one.
type Signal struct {
	StrategyID string
	MatchID    string
	Market     Market
	Selection  Side
	Line       *float64
	Strength   float64 // [0,1], scales probability and stake
	Note       string  // short operator-facing rationale
}

// Key returns the dedup key for the signal. Handicap signals include the line
// so that distinct quarter-lines for the same match/strategy/side never dedup
// against each other.
func (s Signal) Key() string {
	k := s.MatchID + "|" + s.StrategyID + "|" + string(s.Selection)
	if s.Market == MarketAsianHandicap && s.Line != nil {
		k += "|" + strconv.FormatFloat(*s.Line, 'f', 2, 64)
	}
	return k
}

// Validate checks structural invariants before the signal enters staking.
func (s Signal) Validate() error {
	if s.StrategyID == "" || s.MatchID == "" {
		return fmt.Errorf("signal: missing strategy or match id")
	}
	if !s.Market.Valid() {
		return fmt.Errorf("signal: unknown market %q", s.Market)
	}
	if s.Market.RequiresLine() && s.Line == nil {
		return fmt.Errorf("signal: market %s requires a line", s.Market)
	}
	if !s.Market.RequiresLine() && s.Line != nil {
		return fmt.Errorf("signal: market %s does not take a line", s.Market)
	}
	if s.Strength < 0 || s.Strength > 1 {
		return fmt.Errorf("signal: strength %.3f outside [0,1]", s.Strength)
	}
	return nil
}

// Float is a convenience for building optional line values.
func Float(v float64) *float64 { return &v }
