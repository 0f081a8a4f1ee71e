package strategy

import (
	"fmt"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// LateOver backs OVER on the next half-goal line when both teams keep
// generating chances late in the match. The line is always the current total
// plus 0.5, so the pick wins on any further goal.
type LateOver struct{}

// NewLateOver creates the late_over strategy.
func NewLateOver() *LateOver { return &LateOver{} }

func (l *LateOver) ID() string    { return "late_over" }
func (l *LateOver) Label() string { return "Late-game over on next goal line" }

func (l *LateOver) Evaluate(cfg domain.StrategyConfig, m domain.MetricsRecord) Evaluation {
	c := newChecker(cfg)
	c.minuteWindow(m.Minute)

	sotSum := m.Home.ShotsOnTarget + m.Away.ShotsOnTarget
	cornerSum := m.Home.Corners + m.Away.Corners
	xgSum := m.Home.XGProxy + m.Away.XGProxy
	combined := (m.Home.Pressure + m.Away.Pressure) / 2

	c.atLeast(ParamMinSOTSum, "shots-on-target sum", float64(sotSum))
	c.atLeast(ParamMinCornerSum, "corner sum", float64(cornerSum))
	c.atLeast(ParamMinXGSum, "xg-proxy sum", xgSum)
	c.atLeast(ParamMinPressure, "combined pressure", combined)

	if !c.ok() {
		return reject(c.reasons)
	}

	line := float64(m.Score.Total()) + 0.5
	return qualify(domain.Signal{
		StrategyID: l.ID(),
		MatchID:    m.MatchID,
		Market:     domain.MarketTotalGoals,
		Selection:  domain.SideOver,
		Line:       domain.Float(line),
		Strength:   clamp01(combined),
		Note:       fmt.Sprintf("open game at %d': sot sum %d, xg sum %.2f", m.Minute, sotSum, xgSum),
	})
}
