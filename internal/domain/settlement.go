package domain

import "time"

// Outcome is the terminal result of settling a pick. HALF outcomes only occur
// on quarter-line handicap picks, where the stake is split across the two
// adjacent half-lines.
type Outcome string

const (
	OutcomeWin      Outcome = "WIN"
	OutcomeLose     Outcome = "LOSE"
	OutcomePush     Outcome = "PUSH"
	OutcomeHalfWin  Outcome = "HALF_WIN"
	OutcomeHalfLose Outcome = "HALF_LOSE"
	OutcomeSkip     Outcome = "SKIP"
)

// Decided reports whether the outcome counts toward win-rate denominators.
// PUSH and SKIP return the stake and decide nothing.
func (o Outcome) Decided() bool {
	switch o {
	case OutcomeWin, OutcomeLose, OutcomeHalfWin, OutcomeHalfLose:
		return true
	}
	return false
}

// Loss reports whether the outcome extends a consecutive-loss streak.
func (o Outcome) Loss() bool {
	return o == OutcomeLose || o == OutcomeHalfLose
}

// SettlementRecord is the immutable result of settling one pick. At most one
// record ever exists per pick ID; the settlement store enforces that with a
// primary-key conflict no-op.
//
// StrategyID, Market, Stake and EmittedAt are denormalized from the pick so
// the risk throttle and the performance aggregator can run off settlement
// history alone.
type SettlementRecord struct {
	PickID     string
	StrategyID string
	Market     Market
	FinalScore Score
	Outcome    Outcome
	SkipReason string // set only for SKIP outcomes
	Stake      float64
	Profit     float64 // realized, in stake units

	// ClosingPrice and CLV are populated when the odds feed still quoted the
	// market at settlement time. CLV is the percentage difference between
	// the price taken and the closing price.
	ClosingPrice *float64
	CLV          *float64

	EmittedAt time.Time
	SettledAt time.Time
}
