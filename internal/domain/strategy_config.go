package domain

import (
	"strconv"
	"time"
)

// StrategyConfig is one named, enableable rule set. The engine reads a fresh
// copy at the start of each scan cycle and never mutates it.
type StrategyConfig struct {
	ID        string
	Label     string
	Enabled   bool
	Params    map[string]float64 // named numeric thresholds; absence means "no constraint"
	UpdatedAt time.Time
}

// Param returns the named threshold and whether it is set.
func (c StrategyConfig) Param(name string) (float64, bool) {
	v, ok := c.Params[name]
	return v, ok
}

// ParseParams converts a raw config blob into numeric thresholds. Malformed
// values are dropped, which downstream treats as "no constraint" rather than
// a fatal configuration error.
func ParseParams(raw map[string]any) map[string]float64 {
	params := make(map[string]float64, len(raw))
	for name, v := range raw {
		switch x := v.(type) {
		case float64:
			params[name] = x
		case int:
			params[name] = float64(x)
		case int64:
			params[name] = float64(x)
		case string:
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				params[name] = f
			}
		case bool:
			if x {
				params[name] = 1
			} else {
				params[name] = 0
			}
		}
	}
	return params
}
