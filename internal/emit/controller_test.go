package emit

import (
	"testing"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
)

var base = time.Date(2026, 4, 12, 20, 0, 0, 0, time.UTC)

func testController(cfg Config) (*Controller, *time.Time) {
	c := New(cfg)
	now := base
	c.now = func() time.Time { return now }
	return c, &now
}

func pick(matchID, strategyID string, sel domain.Side, edge, price *float64) domain.Pick {
	return domain.Pick{
		Signal: domain.Signal{
			StrategyID: strategyID,
			MatchID:    matchID,
			Market:     domain.MarketNextGoal,
			Selection:  sel,
		},
		Edge:  edge,
		Price: price,
	}
}

func ahPick(matchID string, line float64) domain.Pick {
	return domain.Pick{
		Signal: domain.Signal{
			StrategyID: "ah_pressure",
			MatchID:    matchID,
			Market:     domain.MarketAsianHandicap,
			Selection:  domain.SideHome,
			Line:       domain.Float(line),
		},
	}
}

func TestFirstEmissionAlwaysAllowed(t *testing.T) {
	c, _ := testController(DefaultConfig())
	d := c.Decide(pick("m1", "late_over", domain.SideOver, domain.Float(0.05), domain.Float(1.9)), domain.NewRiskState(base))
	if !d.Allow {
		t.Fatalf("first emission suppressed: %s", d.Reason)
	}
}

func TestDedupWithinCooldown(t *testing.T) {
	c, now := testController(DefaultConfig())
	risk := domain.NewRiskState(base)

	first := pick("m1", "late_over", domain.SideOver, domain.Float(0.05), domain.Float(1.9))
	if d := c.Decide(first, risk); !d.Allow {
		t.Fatalf("first suppressed: %s", d.Reason)
	}

	// Same key, tiny deltas, inside cooldown: suppressed.
	*now = now.Add(2 * time.Minute)
	again := pick("m1", "late_over", domain.SideOver, domain.Float(0.055), domain.Float(1.92))
	if d := c.Decide(again, risk); d.Allow {
		t.Error("duplicate within cooldown allowed")
	}

	// Past cooldown but deltas still below both thresholds: suppressed.
	*now = now.Add(20 * time.Minute)
	if d := c.Decide(again, risk); d.Allow {
		t.Error("unchanged pick re-emitted after cooldown")
	}

	// Past cooldown with a material price move: allowed.
	moved := pick("m1", "late_over", domain.SideOver, domain.Float(0.055), domain.Float(2.10))
	if d := c.Decide(moved, risk); !d.Allow {
		t.Errorf("materially changed pick suppressed: %s", d.Reason)
	}
}

func TestEdgeDeltaAloneReopensKey(t *testing.T) {
	c, now := testController(DefaultConfig())
	risk := domain.NewRiskState(base)

	c.Decide(pick("m1", "s", domain.SideHome, domain.Float(0.03), domain.Float(1.90)), risk)
	*now = now.Add(15 * time.Minute)

	// Price barely moved, edge moved by 3 points.
	d := c.Decide(pick("m1", "s", domain.SideHome, domain.Float(0.06), domain.Float(1.91)), risk)
	if !d.Allow {
		t.Errorf("edge delta should reopen the key: %s", d.Reason)
	}
}

func TestDistinctKeysDoNotDedup(t *testing.T) {
	c, _ := testController(DefaultConfig())
	risk := domain.NewRiskState(base)

	cases := []domain.Pick{
		pick("m1", "s", domain.SideHome, nil, nil),
		pick("m1", "s", domain.SideAway, nil, nil), // other side
		pick("m2", "s", domain.SideHome, nil, nil), // other match
		pick("m1", "t", domain.SideHome, nil, nil), // other strategy
	}
	for i, p := range cases {
		if d := c.Decide(p, risk); !d.Allow {
			t.Errorf("case %d suppressed across distinct keys: %s", i, d.Reason)
		}
	}
}

func TestHandicapLinesAreDistinctKeys(t *testing.T) {
	c, _ := testController(DefaultConfig())
	risk := domain.NewRiskState(base)

	if d := c.Decide(ahPick("m1", -0.25), risk); !d.Allow {
		t.Fatalf("first quarter line suppressed: %s", d.Reason)
	}
	// Different quarter line, same match/strategy/side: legitimately distinct.
	if d := c.Decide(ahPick("m1", -0.75), risk); !d.Allow {
		t.Errorf("distinct quarter line deduped: %s", d.Reason)
	}
	// Same line again is a duplicate.
	if d := c.Decide(ahPick("m1", -0.25), risk); d.Allow {
		t.Error("same quarter line re-emitted inside cooldown")
	}
}

func TestPausedRiskBlocksEverything(t *testing.T) {
	c, _ := testController(DefaultConfig())
	risk := domain.NewRiskState(base)
	risk.Paused = true

	d := c.Decide(pick("m9", "s", domain.SideHome, domain.Float(0.10), domain.Float(2.0)), risk)
	if d.Allow {
		t.Fatal("paused risk state allowed an emission")
	}
}

func TestEdgeGateOnPricedPicks(t *testing.T) {
	c, _ := testController(DefaultConfig())
	risk := domain.NewRiskState(base)

	// Edge below the configured minimum: suppressed even on a fresh key.
	d := c.Decide(pick("m1", "s", domain.SideHome, domain.Float(0.005), domain.Float(1.9)), risk)
	if d.Allow {
		t.Error("edge-gated pick emitted")
	}

	// Non-priceable pick carries no edge and passes the gate.
	d = c.Decide(pick("m2", "s", domain.SideHome, nil, nil), risk)
	if !d.Allow {
		t.Errorf("non-priceable pick blocked by edge gate: %s", d.Reason)
	}
}

func TestPruneDropsStaleEntries(t *testing.T) {
	c, now := testController(DefaultConfig())
	risk := domain.NewRiskState(base)

	c.Decide(pick("m1", "s", domain.SideHome, nil, nil), risk)
	*now = now.Add(48 * time.Hour)
	c.Prune(24 * time.Hour)

	// Entry pruned: the same key behaves like a first emission again.
	if d := c.Decide(pick("m1", "s", domain.SideHome, nil, nil), risk); !d.Allow {
		t.Errorf("pruned key still suppressed: %s", d.Reason)
	}
}
