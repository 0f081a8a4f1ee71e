package settle

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
)

var emittedAt = time.Date(2026, 4, 12, 20, 0, 0, 0, time.UTC)

func pendingPick(market domain.Market, sel domain.Side, line *float64, price *float64, stake float64) domain.Pick {
	return domain.Pick{
		ID: "pick-1",
		Signal: domain.Signal{
			StrategyID: "s1",
			MatchID:    "m1",
			Market:     market,
			Selection:  sel,
			Line:       line,
		},
		Price:     price,
		Stake:     stake,
		EmittedAt: emittedAt,
		Status:    domain.PickStatusPending,
	}
}

func TestHeadToHead(t *testing.T) {
	tests := []struct {
		name  string
		sel   domain.Side
		final domain.Score
		want  domain.Outcome
	}{
		{"home wins", domain.SideHome, domain.Score{Home: 2, Away: 1}, domain.OutcomeWin},
		{"home loses", domain.SideHome, domain.Score{Home: 0, Away: 1}, domain.OutcomeLose},
		{"draw beats home", domain.SideHome, domain.Score{Home: 1, Away: 1}, domain.OutcomeLose},
		{"draw beats away", domain.SideAway, domain.Score{Home: 2, Away: 2}, domain.OutcomeLose},
		{"away wins", domain.SideAway, domain.Score{Home: 0, Away: 3}, domain.OutcomeWin},
	}
	e := New(Config{})
	for _, tt := range tests {
		rec, err := e.Settle(pendingPick(domain.MarketHeadToHead, tt.sel, nil, domain.Float(2.0), 1), tt.final, domain.MatchStatusFullTime, nil)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if rec.Outcome != tt.want {
			t.Errorf("%s: outcome = %s, want %s", tt.name, rec.Outcome, tt.want)
		}
	}
}

func TestTotals(t *testing.T) {
	tests := []struct {
		name  string
		sel   domain.Side
		line  float64
		final domain.Score
		want  domain.Outcome
	}{
		// Literal scenario: 1-1 (total 2) against line 2.5.
		{"over 2.5 at 1-1 loses", domain.SideOver, 2.5, domain.Score{Home: 1, Away: 1}, domain.OutcomeLose},
		{"under 2.5 at 1-1 wins", domain.SideUnder, 2.5, domain.Score{Home: 1, Away: 1}, domain.OutcomeWin},
		{"over 2.5 at 2-1 wins", domain.SideOver, 2.5, domain.Score{Home: 2, Away: 1}, domain.OutcomeWin},
		{"exact line pushes over", domain.SideOver, 3.0, domain.Score{Home: 2, Away: 1}, domain.OutcomePush},
		{"exact line pushes under", domain.SideUnder, 2.0, domain.Score{Home: 1, Away: 1}, domain.OutcomePush},
	}
	e := New(Config{})
	for _, tt := range tests {
		rec, err := e.Settle(pendingPick(domain.MarketTotalGoals, tt.sel, domain.Float(tt.line), domain.Float(1.9), 1), tt.final, domain.MatchStatusFullTime, nil)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if rec.Outcome != tt.want {
			t.Errorf("%s: outcome = %s, want %s", tt.name, rec.Outcome, tt.want)
		}
	}
}

func TestAsianHandicapTable(t *testing.T) {
	tests := []struct {
		name  string
		sel   domain.Side
		line  float64
		final domain.Score
		want  domain.Outcome
	}{
		// Whole and half lines evaluate once.
		{"line 0, side up one", domain.SideHome, 0, domain.Score{Home: 1, Away: 0}, domain.OutcomeWin},
		{"line 0, tied", domain.SideHome, 0, domain.Score{Home: 1, Away: 1}, domain.OutcomePush},
		{"line 0, side down one", domain.SideHome, 0, domain.Score{Home: 0, Away: 1}, domain.OutcomeLose},
		{"line -0.5, up one", domain.SideHome, -0.5, domain.Score{Home: 2, Away: 1}, domain.OutcomeWin},
		{"line -0.5, tied", domain.SideHome, -0.5, domain.Score{Home: 0, Away: 0}, domain.OutcomeLose},
		{"line -1, up one", domain.SideHome, -1, domain.Score{Home: 2, Away: 1}, domain.OutcomePush},
		{"line -1, up two", domain.SideHome, -1, domain.Score{Home: 3, Away: 1}, domain.OutcomeWin},
		{"line +0.5, tied", domain.SideAway, 0.5, domain.Score{Home: 2, Away: 2}, domain.OutcomeWin},

		// Quarter lines: split over adjacent half-lines and combine.
		{"+0.25 adjusted diff 0", domain.SideHome, 0.25, domain.Score{Home: 1, Away: 1}, domain.OutcomeHalfWin},
		{"-0.25 adjusted diff 0", domain.SideHome, -0.25, domain.Score{Home: 1, Away: 1}, domain.OutcomeHalfLose},
		{"-0.25 up one", domain.SideHome, -0.25, domain.Score{Home: 2, Away: 1}, domain.OutcomeWin},
		{"-0.25 down one", domain.SideHome, -0.25, domain.Score{Home: 0, Away: 1}, domain.OutcomeLose},
		{"-0.75 up one splits", domain.SideHome, -0.75, domain.Score{Home: 1, Away: 0}, domain.OutcomeHalfWin},
		{"-0.75 up two", domain.SideHome, -0.75, domain.Score{Home: 2, Away: 0}, domain.OutcomeWin},
		{"-0.75 level", domain.SideHome, -0.75, domain.Score{Home: 0, Away: 0}, domain.OutcomeLose},
		{"+0.75 down one splits", domain.SideHome, 0.75, domain.Score{Home: 0, Away: 1}, domain.OutcomeHalfLose},
		{"+0.75 level", domain.SideHome, 0.75, domain.Score{Home: 1, Away: 1}, domain.OutcomeWin},
		{"-1.25 up one splits", domain.SideAway, -1.25, domain.Score{Home: 0, Away: 1}, domain.OutcomeHalfLose},
		{"-1.25 up two", domain.SideAway, -1.25, domain.Score{Home: 0, Away: 2}, domain.OutcomeWin},
		{"-1.75 up two splits", domain.SideAway, -1.75, domain.Score{Home: 0, Away: 2}, domain.OutcomeHalfWin},
	}
	e := New(Config{})
	for _, tt := range tests {
		rec, err := e.Settle(pendingPick(domain.MarketAsianHandicap, tt.sel, domain.Float(tt.line), nil, 1), tt.final, domain.MatchStatusFullTime, nil)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if rec.Outcome != tt.want {
			t.Errorf("%s: outcome = %s, want %s", tt.name, rec.Outcome, tt.want)
		}
	}
}

func TestQuarterLineSplitBrackets(t *testing.T) {
	tests := []struct {
		line    float64
		quarter bool
	}{
		{0, false}, {0.5, false}, {-1, false}, {-1.5, false},
		{0.25, true}, {-0.25, true}, {0.75, true}, {-0.75, true}, {-1.25, true}, {2.75, true},
	}
	for _, tt := range tests {
		if got := isQuarterLine(tt.line); got != tt.quarter {
			t.Errorf("isQuarterLine(%v) = %v, want %v", tt.line, got, tt.quarter)
		}
	}
}

func TestCombineHalvesExhaustive(t *testing.T) {
	w, l, p := domain.OutcomeWin, domain.OutcomeLose, domain.OutcomePush
	tests := []struct {
		a, b, want domain.Outcome
	}{
		{w, w, w},
		{l, l, l},
		{p, p, p},
		{w, p, domain.OutcomeHalfWin},
		{p, w, domain.OutcomeHalfWin},
		{l, p, domain.OutcomeHalfLose},
		{p, l, domain.OutcomeHalfLose},
		// Inconsistent inputs fall back to PUSH.
		{w, l, p},
		{l, w, p},
	}
	for _, tt := range tests {
		if got := combineHalves(tt.a, tt.b); got != tt.want {
			t.Errorf("combineHalves(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNextGoal(t *testing.T) {
	mk := func(sel domain.Side, at, final domain.Score) (domain.SettlementRecord, error) {
		p := pendingPick(domain.MarketNextGoal, sel, nil, domain.Float(2.2), 1)
		p.ScoreAtEmission = at
		return New(Config{}).Settle(p, final, domain.MatchStatusFullTime, nil)
	}

	rec, err := mk(domain.SideHome, domain.Score{Home: 0, Away: 1}, domain.Score{Home: 1, Away: 1})
	if err != nil || rec.Outcome != domain.OutcomeWin {
		t.Errorf("backed side scored next: outcome = %s (err %v), want WIN", rec.Outcome, err)
	}
	rec, _ = mk(domain.SideHome, domain.Score{Home: 0, Away: 1}, domain.Score{Home: 0, Away: 2})
	if rec.Outcome != domain.OutcomeLose {
		t.Errorf("opponent scored next: outcome = %s, want LOSE", rec.Outcome)
	}
	rec, _ = mk(domain.SideHome, domain.Score{Home: 0, Away: 1}, domain.Score{Home: 0, Away: 1})
	if rec.Outcome != domain.OutcomeLose {
		t.Errorf("no further goal: outcome = %s, want LOSE", rec.Outcome)
	}
	rec, _ = mk(domain.SideHome, domain.Score{Home: 0, Away: 1}, domain.Score{Home: 1, Away: 2})
	if rec.Outcome != domain.OutcomePush {
		t.Errorf("both scored, order unknowable: outcome = %s, want PUSH", rec.Outcome)
	}
	rec, _ = mk(domain.SideHome, domain.Score{Home: 2, Away: 1}, domain.Score{Home: 1, Away: 1})
	if rec.Outcome != domain.OutcomeSkip {
		t.Errorf("regressing score: outcome = %s, want SKIP", rec.Outcome)
	}
}

func TestSkipCarriesReason(t *testing.T) {
	e := New(Config{})
	tests := []struct {
		name string
		pick domain.Pick
	}{
		{"totals without line", pendingPick(domain.MarketTotalGoals, domain.SideOver, nil, nil, 1)},
		{"handicap without line", pendingPick(domain.MarketAsianHandicap, domain.SideHome, nil, nil, 1)},
		{"handicap NaN line", pendingPick(domain.MarketAsianHandicap, domain.SideHome, domain.Float(math.NaN()), nil, 1)},
		{"h2h over selection", pendingPick(domain.MarketHeadToHead, domain.SideOver, nil, nil, 1)},
		{"unknown market", pendingPick(domain.Market("corners"), domain.SideHome, nil, nil, 1)},
	}
	for _, tt := range tests {
		rec, err := e.Settle(tt.pick, domain.Score{Home: 1, Away: 0}, domain.MatchStatusFullTime, nil)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if rec.Outcome != domain.OutcomeSkip {
			t.Errorf("%s: outcome = %s, want SKIP", tt.name, rec.Outcome)
		}
		if rec.SkipReason == "" {
			t.Errorf("%s: SKIP without a reason", tt.name)
		}
		if rec.Profit != 0 {
			t.Errorf("%s: SKIP profit = %v, want 0", tt.name, rec.Profit)
		}
	}
}

func TestProfitFormula(t *testing.T) {
	tests := []struct {
		outcome domain.Outcome
		price   float64
		stake   float64
		want    float64
	}{
		{domain.OutcomeWin, 1.9, 2, 1.8},
		{domain.OutcomeHalfWin, 1.9, 2, 0.9},
		{domain.OutcomeLose, 1.9, 2, -2},
		{domain.OutcomeHalfLose, 1.9, 2, -1},
		{domain.OutcomePush, 1.9, 2, 0},
		{domain.OutcomeSkip, 1.9, 2, 0},
	}
	for _, tt := range tests {
		got := profit(tt.outcome, tt.price, tt.stake)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("profit(%s, %v, %v) = %v, want %v", tt.outcome, tt.price, tt.stake, got, tt.want)
		}
	}
}

func TestScenarioQuarterLineHalfLose(t *testing.T) {
	// side=home, line=-0.25, final 1-1: split into 0 (PUSH) and -0.5 (LOSE),
	// combined HALF_LOSE, losing half the stake.
	e := New(Config{})
	p := pendingPick(domain.MarketAsianHandicap, domain.SideHome, domain.Float(-0.25), domain.Float(1.95), 2)

	rec, err := e.Settle(p, domain.Score{Home: 1, Away: 1}, domain.MatchStatusFullTime, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Outcome != domain.OutcomeHalfLose {
		t.Errorf("outcome = %s, want HALF_LOSE", rec.Outcome)
	}
	if rec.Profit != -1 {
		t.Errorf("profit = %v, want -1 (half the 2-unit stake)", rec.Profit)
	}
}

func TestUnfinishedMatchStaysPending(t *testing.T) {
	e := New(Config{})
	p := pendingPick(domain.MarketHeadToHead, domain.SideHome, nil, domain.Float(2.0), 1)

	for _, status := range []domain.MatchStatus{
		domain.MatchStatusLive, domain.MatchStatusHalfTime,
		domain.MatchStatusPostponed, domain.MatchStatusAbandoned,
	} {
		if _, err := e.Settle(p, domain.Score{Home: 1, Away: 0}, status, nil); !errors.Is(err, domain.ErrNotFinished) {
			t.Errorf("status %s: err = %v, want ErrNotFinished", status, err)
		}
	}

	for _, status := range []domain.MatchStatus{
		domain.MatchStatusFullTime, domain.MatchStatusExtraTime, domain.MatchStatusPenalties,
	} {
		if _, err := e.Settle(p, domain.Score{Home: 1, Away: 0}, status, nil); err != nil {
			t.Errorf("status %s: err = %v, want settled", status, err)
		}
	}
}

func TestSettleIdempotent(t *testing.T) {
	e := New(Config{})
	p := pendingPick(domain.MarketHeadToHead, domain.SideHome, nil, domain.Float(2.0), 1)

	if _, err := e.Settle(p, domain.Score{Home: 1, Away: 0}, domain.MatchStatusFullTime, nil); err != nil {
		t.Fatal(err)
	}

	p.Status = domain.PickStatusSettled
	if _, err := e.Settle(p, domain.Score{Home: 1, Away: 0}, domain.MatchStatusFullTime, nil); !errors.Is(err, domain.ErrAlreadySettled) {
		t.Errorf("second settlement err = %v, want ErrAlreadySettled", err)
	}
}

func TestClosingPriceAndCLV(t *testing.T) {
	e := New(Config{})
	p := pendingPick(domain.MarketHeadToHead, domain.SideHome, nil, domain.Float(2.10), 1)

	rec, err := e.Settle(p, domain.Score{Home: 1, Away: 0}, domain.MatchStatusFullTime, domain.Float(2.00))
	if err != nil {
		t.Fatal(err)
	}
	if rec.ClosingPrice == nil || *rec.ClosingPrice != 2.00 {
		t.Fatalf("closing price not recorded: %v", rec.ClosingPrice)
	}
	if rec.CLV == nil || math.Abs(*rec.CLV-5.0) > 1e-9 {
		t.Errorf("CLV = %v, want 5.0%%", rec.CLV)
	}

	// Profit for a never-priced pick uses the closing price.
	unpriced := pendingPick(domain.MarketAsianHandicap, domain.SideHome, domain.Float(-0.5), nil, 1)
	rec, err = e.Settle(unpriced, domain.Score{Home: 2, Away: 0}, domain.MatchStatusFullTime, domain.Float(1.80))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rec.Profit-0.80) > 1e-9 {
		t.Errorf("profit from closing price = %v, want 0.80", rec.Profit)
	}

	// And falls back to the assumed price when nothing was ever quoted.
	rec, err = e.Settle(unpriced, domain.Score{Home: 2, Away: 0}, domain.MatchStatusFullTime, nil)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rec.Profit-0.90) > 1e-9 {
		t.Errorf("profit from assumed price = %v, want 0.90", rec.Profit)
	}
}
