// Package risk maintains the process-wide daily throttle state. The state is
// recomputed from settled history once per scan cycle rather than mutated
// incrementally, so a restart or a replayed settlement pass always converges
// to the same answer.
package risk

import (
	"sort"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// Config holds the throttle parameters.
type Config struct {
	// DailyLossFloor pauses all emission for the rest of the day once
	// cumulative daily profit falls to or below it. Expected negative.
	DailyLossFloor float64
	// MaxConsecutiveLosses is the streak length at which stakes are reduced.
	MaxConsecutiveLosses int
	// ReducedScale is the stake multiplier applied while the streak holds.
	ReducedScale float64
}

// DefaultConfig returns the throttle parameters used when none are configured.
func DefaultConfig() Config {
	return Config{
		DailyLossFloor:       -5.0,
		MaxConsecutiveLosses: 3,
		ReducedScale:         0.5,
	}
}

// Recompute derives the RiskState for a day from that day's settled records.
// Records are walked in emission order. The paused flag is sticky: once the
// cumulative profit touches the floor at any point in the walk, the day stays
// paused even if later wins recover the balance.
func Recompute(day time.Time, settled []domain.SettlementRecord, cfg Config) domain.RiskState {
	state := domain.NewRiskState(day)

	ordered := make([]domain.SettlementRecord, len(settled))
	copy(ordered, settled)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EmittedAt.Before(ordered[j].EmittedAt)
	})

	var cumulative float64
	for _, rec := range ordered {
		cumulative += rec.Profit

		if rec.Outcome.Loss() {
			state.ConsecutiveLosses++
		} else {
			state.ConsecutiveLosses = 0
		}

		if cumulative <= cfg.DailyLossFloor {
			state.Paused = true
		}
	}

	state.DailyProfit = cumulative
	if cfg.MaxConsecutiveLosses > 0 && state.ConsecutiveLosses >= cfg.MaxConsecutiveLosses {
		state.StakeScale = cfg.ReducedScale
	}
	return state
}
