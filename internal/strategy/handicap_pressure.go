package strategy

import (
	"fmt"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// HandicapPressure backs the statistically dominant side on a live Asian
// handicap quarter-line. The line covers the side's current lead plus a
// quarter goal, so a level dominant side is backed at -0.25, a side up by one
// at -1.25, and so on. These lines rarely carry a live price feed; the
// staking model handles them on the non-priceable path.
type HandicapPressure struct{}

// NewHandicapPressure creates the ah_pressure strategy.
func NewHandicapPressure() *HandicapPressure { return &HandicapPressure{} }

func (h *HandicapPressure) ID() string    { return "ah_pressure" }
func (h *HandicapPressure) Label() string { return "Dominant side quarter-line handicap" }

func (h *HandicapPressure) Evaluate(cfg domain.StrategyConfig, m domain.MetricsRecord) Evaluation {
	c := newChecker(cfg)
	c.minuteWindow(m.Minute)

	// Dominance is decided on shots on target, pressure breaks ties.
	side := domain.SideHome
	if m.Away.ShotsOnTarget > m.Home.ShotsOnTarget ||
		(m.Away.ShotsOnTarget == m.Home.ShotsOnTarget && m.Away.Pressure > m.Home.Pressure) {
		side = domain.SideAway
	}
	own := m.SideFor(side)
	opp := m.SideFor(opponent(side))

	lead := m.ScoreDiff
	if side == domain.SideAway {
		lead = -lead
	}
	if lead < 0 {
		c.failf("dominant side %s trailing by %d, no handicap value", side, -lead)
	}

	c.atLeast(ParamMinPressure, "dominant side pressure", own.Pressure)
	c.atLeast(ParamMinSOTDiff, "shots-on-target differential", float64(own.ShotsOnTarget-opp.ShotsOnTarget))
	c.atMost(ParamMaxSOTDiff, "shots-on-target differential", float64(own.ShotsOnTarget-opp.ShotsOnTarget))
	c.atMost(ParamMaxXGSum, "xg-proxy sum", m.Home.XGProxy+m.Away.XGProxy)

	if !c.ok() {
		return reject(c.reasons)
	}

	line := -(float64(lead) + 0.25)
	return qualify(domain.Signal{
		StrategyID: h.ID(),
		MatchID:    m.MatchID,
		Market:     domain.MarketAsianHandicap,
		Selection:  side,
		Line:       domain.Float(line),
		Strength:   sideStrength(own),
		Note: fmt.Sprintf("%s dominant at %d': sot %d-%d, line %.2f",
			side, m.Minute, own.ShotsOnTarget, opp.ShotsOnTarget, line),
	})
}
