package strategy

import (
	"fmt"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// DrawBreak backs the dominant side to win a match still level late on.
// Head-to-head market; a draw at full time loses.
type DrawBreak struct{}

// NewDrawBreak creates the draw_break strategy.
func NewDrawBreak() *DrawBreak { return &DrawBreak{} }

func (d *DrawBreak) ID() string    { return "draw_break" }
func (d *DrawBreak) Label() string { return "Dominant side to break a draw" }

func (d *DrawBreak) Evaluate(cfg domain.StrategyConfig, m domain.MetricsRecord) Evaluation {
	c := newChecker(cfg)
	c.minuteWindow(m.Minute)

	if m.ScoreDiff != 0 {
		c.failf("match not level at %d-%d", m.Score.Home, m.Score.Away)
		return reject(c.reasons)
	}

	side := domain.SideHome
	if m.Away.Pressure > m.Home.Pressure {
		side = domain.SideAway
	}
	own := m.SideFor(side)
	opp := m.SideFor(opponent(side))

	c.atLeast(ParamMinPressure, "dominant side pressure", own.Pressure)
	c.atLeast(ParamMinSOTDiff, "shots-on-target differential", float64(own.ShotsOnTarget-opp.ShotsOnTarget))
	c.atLeast(ParamMinCornerDiff, "corner differential", float64(own.Corners-opp.Corners))

	if !c.ok() {
		return reject(c.reasons)
	}

	return qualify(domain.Signal{
		StrategyID: d.ID(),
		MatchID:    m.MatchID,
		Market:     domain.MarketHeadToHead,
		Selection:  side,
		Strength:   sideStrength(own),
		Note: fmt.Sprintf("level at %d', %s pressing: pressure %.2f vs %.2f",
			m.Minute, side, own.Pressure, opp.Pressure),
	})
}
