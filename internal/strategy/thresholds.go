package strategy

import (
	"fmt"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// Shared threshold parameter names. Every threshold is optional: a strategy
// config that omits a parameter imposes no constraint for it.
const (
	ParamMinMinute      = "min_minute"
	ParamMaxMinute      = "max_minute"
	ParamMinPressure    = "min_pressure"
	ParamMinSOTDiff     = "min_sot_diff"
	ParamMaxSOTDiff     = "max_sot_diff"
	ParamMinCornerDiff  = "min_corner_diff"
	ParamMinCornerSum   = "min_corner_sum"
	ParamMinSOTSum      = "min_sot_sum"
	ParamMaxGoalDeficit = "max_goal_deficit"
	ParamMaxXGSum       = "max_xg_sum"
	ParamMinXGSum       = "min_xg_sum"
)

// checker accumulates every violated threshold so operators can see all the
// near-misses of a rejected match, not just the first.
type checker struct {
	cfg     domain.StrategyConfig
	reasons []string
}

func newChecker(cfg domain.StrategyConfig) *checker {
	return &checker{cfg: cfg}
}

// atLeast passes when value >= the named threshold. A value exactly on the
// boundary passes.
func (c *checker) atLeast(param, label string, value float64) {
	if min, ok := c.cfg.Param(param); ok && value < min {
		c.reasons = append(c.reasons, fmt.Sprintf("%s %.2f below %s %.2f", label, value, param, min))
	}
}

// atMost passes when value <= the named threshold. A value exactly on the
// boundary passes.
func (c *checker) atMost(param, label string, value float64) {
	if max, ok := c.cfg.Param(param); ok && value > max {
		c.reasons = append(c.reasons, fmt.Sprintf("%s %.2f above %s %.2f", label, value, param, max))
	}
}

// minuteWindow applies the min_minute/max_minute window to the match clock.
func (c *checker) minuteWindow(minute int) {
	c.atLeast(ParamMinMinute, "minute", float64(minute))
	c.atMost(ParamMaxMinute, "minute", float64(minute))
}

// failf appends a strategy-specific rejection outside the generic families.
func (c *checker) failf(format string, args ...any) {
	c.reasons = append(c.reasons, fmt.Sprintf(format, args...))
}

func (c *checker) ok() bool { return len(c.reasons) == 0 }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// opponent returns the other scoreboard side.
func opponent(side domain.Side) domain.Side {
	if side == domain.SideHome {
		return domain.SideAway
	}
	return domain.SideHome
}

// sideStrength derives the [0,1] strength scalar from one side's metrics
// only. Side-dependent strategies must not let the opponent's numbers leak
// into strength.
func sideStrength(sm domain.SideMetrics) float64 {
	return clamp01(0.6*sm.Pressure + 0.4*sm.XGProxy)
}
