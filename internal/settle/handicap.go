package settle

import (
	"fmt"
	"math"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// lineEpsilon absorbs float representation noise when classifying lines and
// comparing adjusted differentials against zero. Handicap lines are quoted in
// quarter-goal steps, so anything below this is noise.
const lineEpsilon = 1e-9

// resolveHandicap settles an Asian handicap pick. Whole and half lines
// evaluate once; quarter lines (.25/.75 fractional part) split the stake
// across the two adjacent half-step lines and combine the halves.
func resolveHandicap(sel domain.Side, line *float64, final domain.Score) (domain.Outcome, string) {
	if line == nil {
		return domain.OutcomeSkip, "handicap pick has no line"
	}
	if sel != domain.SideHome && sel != domain.SideAway {
		return domain.OutcomeSkip, fmt.Sprintf("handicap selection %q is not a team side", sel)
	}
	if math.IsNaN(*line) || math.IsInf(*line, 0) {
		return domain.OutcomeSkip, fmt.Sprintf("handicap line %v is not a number", *line)
	}

	diff := float64(final.Home - final.Away)
	if sel == domain.SideAway {
		diff = -diff
	}

	if !isQuarterLine(*line) {
		return evalHalfOrWholeLine(diff, *line), ""
	}

	// Split: a quarter line is half the stake on each adjacent half-line,
	// preserving sign. -0.25 splits into 0 and -0.5; -0.75 into -0.5 and -1.
	lower := evalHalfOrWholeLine(diff, *line-0.25)
	upper := evalHalfOrWholeLine(diff, *line+0.25)
	return combineHalves(lower, upper), ""
}

// isQuarterLine reports whether the line's fractional part is .25 or .75.
func isQuarterLine(line float64) bool {
	r := math.Abs(math.Mod(line, 0.5))
	return r > lineEpsilon && math.Abs(r-0.5) > lineEpsilon
}

// evalHalfOrWholeLine settles one non-quarter line: the selected side's goal
// differential adjusted by the line decides the bet outright.
func evalHalfOrWholeLine(diff, line float64) domain.Outcome {
	adjusted := diff + line
	switch {
	case adjusted > lineEpsilon:
		return domain.OutcomeWin
	case adjusted < -lineEpsilon:
		return domain.OutcomeLose
	default:
		return domain.OutcomePush
	}
}

// combineHalves merges the two half-stake outcomes of a quarter-line split.
// WIN+LOSE cannot happen on adjacent half-lines under consistent inputs; it
// falls back to PUSH rather than guessing a direction.
func combineHalves(a, b domain.Outcome) domain.Outcome {
	if a == b {
		return a
	}
	if a == domain.OutcomePush || b == domain.OutcomePush {
		other := a
		if a == domain.OutcomePush {
			other = b
		}
		if other == domain.OutcomeWin {
			return domain.OutcomeHalfWin
		}
		return domain.OutcomeHalfLose
	}
	return domain.OutcomePush
}
