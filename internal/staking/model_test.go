package staking

import (
	"testing"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
)

var at = time.Date(2026, 4, 12, 20, 0, 0, 0, time.UTC)

func signal(strategyID string, strength float64) domain.Signal {
	return domain.Signal{
		StrategyID: strategyID,
		MatchID:    "m1",
		Market:     domain.MarketNextGoal,
		Selection:  domain.SideHome,
		Strength:   strength,
	}
}

func TestProbabilityBounds(t *testing.T) {
	m := New(Config{})
	for _, id := range []string{"trailing_surge", "late_over", "ah_pressure", "draw_break", "unknown"} {
		for _, strength := range []float64{-1, 0, 0.3, 0.5, 1, 5} {
			p := m.Probability(id, strength)
			if p < 0.50 || p > 0.70 {
				t.Errorf("Probability(%s, %v) = %v, outside [0.50, 0.70]", id, strength, p)
			}
		}
	}

	// Strength must move probability monotonically.
	lo := m.Probability("late_over", 0.1)
	hi := m.Probability("late_over", 0.9)
	if hi <= lo {
		t.Errorf("probability not increasing in strength: %v vs %v", lo, hi)
	}
}

func TestBuildPickPriced(t *testing.T) {
	m := New(Config{})
	risk := domain.NewRiskState(at)

	pick := m.BuildPick(signal("late_over", 1.0), domain.Float(1.80), risk, at)

	if !pick.Priceable() {
		t.Fatal("priced pick reported non-priceable")
	}
	wantImplied := 1 / 1.80
	if diff := *pick.ImpliedProb - wantImplied; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("implied prob = %v, want %v", *pick.ImpliedProb, wantImplied)
	}
	wantEdge := pick.ModelProb - wantImplied
	if diff := *pick.Edge - wantEdge; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("edge = %v, want %v", *pick.Edge, wantEdge)
	}
	wantKelly := wantEdge / 0.80
	if diff := pick.KellyFrac - wantKelly; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("kelly = %v, want %v", pick.KellyFrac, wantKelly)
	}
	if pick.Stake <= 0 {
		t.Errorf("stake = %v, want > 0", pick.Stake)
	}
	if pick.Status != domain.PickStatusPending {
		t.Errorf("status = %s, want PENDING", pick.Status)
	}
	if pick.ID != pick.RecomputeID() {
		t.Errorf("pick ID not deterministic")
	}
}

func TestBuildPickNegativeEdgeClampsKelly(t *testing.T) {
	m := New(Config{})
	// Price 1.30 implies ~0.77, above the model ceiling: edge is negative.
	pick := m.BuildPick(signal("draw_break", 0.2), domain.Float(1.30), domain.NewRiskState(at), at)

	if *pick.Edge >= 0 {
		t.Fatalf("edge = %v, want negative", *pick.Edge)
	}
	if pick.KellyFrac != 0 {
		t.Errorf("kelly = %v, want clamped to 0", pick.KellyFrac)
	}
}

func TestBuildPickNonPriceable(t *testing.T) {
	m := New(Config{})
	sig := signal("ah_pressure", 0.8)
	sig.Market = domain.MarketAsianHandicap
	sig.Line = domain.Float(-1.25)

	pick := m.BuildPick(sig, nil, domain.NewRiskState(at), at)

	if pick.Priceable() {
		t.Fatal("unpriced pick reported priceable")
	}
	if pick.Edge != nil || pick.ImpliedProb != nil {
		t.Errorf("edge/implied should be unset without a price")
	}
	if pick.KellyFrac != 0 {
		t.Errorf("kelly = %v, want 0 for non-priceable pick", pick.KellyFrac)
	}
	if pick.Stake <= 0 {
		t.Errorf("heuristic stake = %v, want > 0", pick.Stake)
	}

	// A steeper line grows the heuristic stake.
	steep := sig
	steep.Line = domain.Float(-2.0)
	pick2 := m.BuildPick(steep, nil, domain.NewRiskState(at), at)
	if pick2.Stake <= pick.Stake {
		t.Errorf("stake should grow with line magnitude: %v vs %v", pick2.Stake, pick.Stake)
	}
}

func TestStakeScaleApplied(t *testing.T) {
	m := New(Config{})
	full := domain.NewRiskState(at)
	reduced := full
	reduced.StakeScale = 0.5

	a := m.BuildPick(signal("late_over", 1.0), domain.Float(1.90), full, at)
	b := m.BuildPick(signal("late_over", 1.0), domain.Float(1.90), reduced, at)

	if diff := b.Stake - a.Stake*0.5; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("reduced stake = %v, want %v", b.Stake, a.Stake*0.5)
	}
}

func TestTierAssignment(t *testing.T) {
	m := New(Config{})
	tests := []struct {
		prob float64
		want domain.Tier
	}{
		{0.70, domain.TierA},
		{0.64, domain.TierA}, // boundary meets threshold
		{0.63, domain.TierB},
		{0.57, domain.TierB},
		{0.56, domain.TierC},
		{0.50, domain.TierC},
	}
	for _, tt := range tests {
		if got := m.tierFor(tt.prob); got != tt.want {
			t.Errorf("tierFor(%v) = %s, want %s", tt.prob, got, tt.want)
		}
	}
}

func TestStakeWithinFloorCeiling(t *testing.T) {
	m := New(Config{})
	full := domain.NewRiskState(at)

	// Huge edge: stake clamps at the ceiling.
	big := m.BuildPick(signal("late_over", 1.0), domain.Float(10.0), full, at)
	if big.Stake > DefaultConfig().StakeCeiling {
		t.Errorf("stake %v above ceiling", big.Stake)
	}
	// Tiny positive edge: stake clamps at the floor.
	small := m.BuildPick(signal("draw_break", 0.05), domain.Float(1.95), full, at)
	if small.Stake < DefaultConfig().StakeFloor {
		t.Errorf("stake %v below floor", small.Stake)
	}
}
