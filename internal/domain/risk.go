package domain

import "time"

// RiskState is the day-scoped throttle state consulted before every emission
// decision. It is recomputed from settled history once per scan cycle; within
// a cycle every match observes the same snapshot.
type RiskState struct {
	Day               time.Time // UTC midnight of the day the state covers
	DailyProfit       float64   // sum of realized profit for the day, stake units
	ConsecutiveLosses int       // current streak, in emission order
	Paused            bool      // sticky for the rest of the day once set
	StakeScale        float64   // multiplier applied to every new stake
}

// NewRiskState returns the clean-slate state for a day: no profit, no streak,
// full stake scale.
func NewRiskState(day time.Time) RiskState {
	return RiskState{
		Day:        day.UTC().Truncate(24 * time.Hour),
		StakeScale: 1.0,
	}
}
