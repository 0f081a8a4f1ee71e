package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Tier is the confidence band of a pick, ordered A > B > C.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

// PickStatus tracks the settlement lifecycle of a pick. A pick starts
// PENDING and transitions exactly once to a terminal outcome status.
type PickStatus string

const (
	PickStatusPending PickStatus = "PENDING"
	PickStatusSettled PickStatus = "SETTLED"
	PickStatusVoided  PickStatus = "VOIDED"
)

// pickIDNamespace seeds the deterministic pick identifier. Fixed forever:
// changing it would re-key every historical pick.
var pickIDNamespace = uuid.MustParse("9d3f8a52-1c6b-4e0f-8b1a-5a7c92e4d310")

// pickIDBucket is the time bucket used in pick identity. Two otherwise
// identical picks emitted within the same bucket share an ID and therefore
// collide in storage, which is the intended duplicate guard of last resort.
const pickIDBucket = 10 * time.Minute

// PickID derives the deterministic identifier for a pick from its key fields
// and a time bucket. The same inputs always produce the same ID.
func PickID(matchID, strategyID string, sel Side, line *float64, at time.Time) string {
	key := matchID + "|" + strategyID + "|" + string(sel) + "|"
	if line != nil {
		key += strconv.FormatFloat(*line, 'f', 2, 64)
	}
	key += "|" + strconv.FormatInt(at.UTC().Truncate(pickIDBucket).Unix(), 10)
	return uuid.NewSHA1(pickIDNamespace, []byte(key)).String()
}

// Pick is a priced, staked signal. It is immutable once emitted; settlement
// only attaches a terminal status.
type Pick struct {
	ID     string
	Signal Signal

	ModelProb   float64  // [0.50, 0.70] by construction
	Price       *float64 // decimal odds taken, nil when no live price existed
	ImpliedProb *float64 // 1/Price, nil without a price
	Edge        *float64 // ModelProb - ImpliedProb, nil without a price
	KellyFrac   float64  // 0 for non-priceable picks
	Stake       float64  // stake units, already scaled by RiskState
	Tier        Tier

	// ScoreAtEmission is the scoreboard at the moment the pick was emitted.
	// Next-goal settlement needs it to tell which side scored afterwards.
	ScoreAtEmission Score

	EmittedAt time.Time
	Status    PickStatus
}

// Priceable reports whether the pick was emitted against a live market price.
func (p Pick) Priceable() bool { return p.Price != nil }

// RecomputeID re-derives the deterministic ID from the pick's own fields.
func (p Pick) RecomputeID() string {
	return PickID(p.Signal.MatchID, p.Signal.StrategyID, p.Signal.Selection, p.Signal.Line, p.EmittedAt)
}
