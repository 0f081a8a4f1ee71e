package strategy

import (
	"fmt"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// TrailingSurge backs the side that is behind on the scoreboard but on top of
// the match statistically: trailing teams forced to attack score next more
// often than their price implies. Market: next goal, selection is the
// trailing side.
type TrailingSurge struct{}

// NewTrailingSurge creates the trailing_surge strategy.
func NewTrailingSurge() *TrailingSurge { return &TrailingSurge{} }

func (t *TrailingSurge) ID() string    { return "trailing_surge" }
func (t *TrailingSurge) Label() string { return "Trailing side statistical surge" }

// Evaluate requires a trailing side whose own pressure and shot dominance
// clear the configured thresholds. Strength is computed from the trailing
// side's metrics only.
func (t *TrailingSurge) Evaluate(cfg domain.StrategyConfig, m domain.MetricsRecord) Evaluation {
	c := newChecker(cfg)
	c.minuteWindow(m.Minute)

	var side domain.Side
	switch {
	case m.ScoreDiff < 0:
		side = domain.SideHome
	case m.ScoreDiff > 0:
		side = domain.SideAway
	default:
		c.failf("scores level at %d-%d, no trailing side", m.Score.Home, m.Score.Away)
		return reject(c.reasons)
	}

	own := m.SideFor(side)
	opp := m.SideFor(opponent(side))

	deficit := m.ScoreDiff
	if deficit < 0 {
		deficit = -deficit
	}
	c.atMost(ParamMaxGoalDeficit, "goal deficit", float64(deficit))
	c.atLeast(ParamMinPressure, "trailing side pressure", own.Pressure)
	c.atLeast(ParamMinSOTDiff, "shots-on-target differential", float64(own.ShotsOnTarget-opp.ShotsOnTarget))
	c.atLeast(ParamMinCornerDiff, "corner differential", float64(own.Corners-opp.Corners))

	if !c.ok() {
		return reject(c.reasons)
	}

	return qualify(domain.Signal{
		StrategyID: t.ID(),
		MatchID:    m.MatchID,
		Market:     domain.MarketNextGoal,
		Selection:  side,
		Strength:   sideStrength(own),
		Note: fmt.Sprintf("trailing %s dominating: sot %d-%d, pressure %.2f",
			side, own.ShotsOnTarget, opp.ShotsOnTarget, own.Pressure),
	})
}
