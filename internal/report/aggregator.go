// Package report rolls settled outcomes up into per-strategy performance
// rows. Aggregation is a pure reduction over settlement records; the store
// supplies the date-range query.
package report

import (
	"sort"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// Options selects the grouping dimensions. Strategy is always part of the
// group key; market and day are optional refinements.
type Options struct {
	ByMarket bool
	ByDay    bool
}

// Row is one aggregate performance line.
type Row struct {
	StrategyID string
	Market     domain.Market // empty unless ByMarket
	Day        string        // "2006-01-02", empty unless ByDay

	Bets       int
	Wins       int
	Losses     int
	Pushes     int
	HalfWins   int
	HalfLosses int
	Skips      int

	// WinRate is wins over decided bets, where half outcomes count on the
	// side they landed. Zero when nothing was decided.
	WinRate float64
	Profit  float64
	Stake   float64
	// ROI is profit over stake, zero when no stake was placed.
	ROI float64
}

type groupKey struct {
	strategy string
	market   domain.Market
	day      string
}

// Aggregate reduces settlement records into sorted performance rows. Groups
// with no decided bets or no stake report rate 0 and ROI 0, never a division
// by zero.
func Aggregate(records []domain.SettlementRecord, opts Options) []Row {
	groups := make(map[groupKey]*Row)

	for _, rec := range records {
		key := groupKey{strategy: rec.StrategyID}
		if opts.ByMarket {
			key.market = rec.Market
		}
		if opts.ByDay {
			key.day = rec.EmittedAt.UTC().Format(time.DateOnly)
		}

		row, ok := groups[key]
		if !ok {
			row = &Row{StrategyID: key.strategy, Market: key.market, Day: key.day}
			groups[key] = row
		}

		row.Bets++
		row.Profit += rec.Profit
		row.Stake += rec.Stake

		switch rec.Outcome {
		case domain.OutcomeWin:
			row.Wins++
		case domain.OutcomeLose:
			row.Losses++
		case domain.OutcomePush:
			row.Pushes++
		case domain.OutcomeHalfWin:
			row.HalfWins++
		case domain.OutcomeHalfLose:
			row.HalfLosses++
		case domain.OutcomeSkip:
			row.Skips++
		}
	}

	rows := make([]Row, 0, len(groups))
	for _, row := range groups {
		decided := row.Wins + row.Losses + row.HalfWins + row.HalfLosses
		if decided > 0 {
			row.WinRate = float64(row.Wins+row.HalfWins) / float64(decided)
		}
		if row.Stake > 0 {
			row.ROI = row.Profit / row.Stake
		}
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StrategyID != rows[j].StrategyID {
			return rows[i].StrategyID < rows[j].StrategyID
		}
		if rows[i].Market != rows[j].Market {
			return rows[i].Market < rows[j].Market
		}
		return rows[i].Day < rows[j].Day
	})
	return rows
}
