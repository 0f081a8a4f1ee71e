// Package strategy implements the closed set of rule-based signal strategies.
// Each variant evaluates one strategy's thresholds against a match's feature
// vector and either produces a qualifying signal or the full list of reasons
// the match fell short.
package strategy

import (
	"github.com/kzharov/pitchsignal/internal/domain"
)

// Evaluation is the outcome of running one strategy against one match.
// Exactly one of Signal and Rejections is populated: an empty rejection list
// means the signal qualifies.
type Evaluation struct {
	Signal     *domain.Signal
	Rejections []string
}

// Qualified reports whether the evaluation produced a signal.
func (e Evaluation) Qualified() bool { return e.Signal != nil && len(e.Rejections) == 0 }

// Strategy is the contract every signal strategy implements. Evaluate must be
// a pure function of its inputs: config is read-only and the metrics record
// is immutable. Adding a strategy means adding a variant, never touching
// shared control flow.
type Strategy interface {
	// ID is the stable strategy identifier used in configs, picks and reports.
	ID() string
	// Label is the human-readable name.
	Label() string
	// Evaluate applies the strategy's thresholds to the feature vector.
	Evaluate(cfg domain.StrategyConfig, m domain.MetricsRecord) Evaluation
}

func reject(reasons []string) Evaluation {
	return Evaluation{Rejections: reasons}
}

func qualify(sig domain.Signal) Evaluation {
	return Evaluation{Signal: &sig}
}
