// Package feature derives the normalized per-match feature vector from a raw
// feed snapshot. Extraction is a pure function of its input except for an
// optional statistics fetch, whose failure degrades to zero-valued stats.
package feature

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// StatKey enumerates the statistic rows the extractor consumes. Keys not in
// this set are ignored; keys absent from the snapshot default to zero.
type StatKey string

const (
	StatShots         StatKey = "shots"
	StatShotsOnTarget StatKey = "shots_on_target"
	StatCorners       StatKey = "corners"
	StatYellowCards   StatKey = "yellow_cards"
	StatRedCards      StatKey = "red_cards"
	StatPossession    StatKey = "possession"
)

// statAliases maps lowercased feed row labels onto stat keys. Feeds disagree
// on naming, so several spellings fold into each key.
var statAliases = map[string]StatKey{
	"total shots":     StatShots,
	"shots":           StatShots,
	"shots total":     StatShots,
	"shots on goal":   StatShotsOnTarget,
	"shots on target": StatShotsOnTarget,
	"corner kicks":    StatCorners,
	"corners":         StatCorners,
	"yellow cards":    StatYellowCards,
	"red cards":       StatRedCards,
	"ball possession": StatPossession,
	"possession":      StatPossession,
	"possession %":    StatPossession,
}

// Pressure and xG-proxy weights. These are fixed linear combinations tuned
// for relative signal strength, not calibrated probabilities.
const (
	pressureSOTWeight    = 0.11
	pressureShotWeight   = 0.04
	pressureCornerWeight = 0.05

	xgSOTWeight  = 0.09
	xgShotWeight = 0.02
)

// Extractor builds MetricsRecords. The stats source is optional: when set it
// is consulted for snapshots that arrive without statistic rows.
type Extractor struct {
	stats  domain.StatsSource
	logger *slog.Logger
}

// New creates an Extractor. stats may be nil.
func New(stats domain.StatsSource, logger *slog.Logger) *Extractor {
	return &Extractor{
		stats:  stats,
		logger: logger.With(slog.String("component", "feature_extractor")),
	}
}

// Extract derives the feature vector for one snapshot. It fails only when the
// snapshot carries no match identifier or no scoreboard; every statistic
// problem degrades to zero instead.
func (e *Extractor) Extract(ctx context.Context, snap domain.MatchSnapshot) (domain.MetricsRecord, error) {
	if snap.MatchID == "" {
		return domain.MetricsRecord{}, fmt.Errorf("feature: snapshot has no match id")
	}
	if snap.Score == nil {
		return domain.MetricsRecord{}, fmt.Errorf("feature: snapshot %s has no score", snap.MatchID)
	}

	rows := snap.Stats
	if len(rows) == 0 && e.stats != nil {
		fetched, err := e.stats.FetchStats(ctx, snap.MatchID)
		if err != nil {
			e.logger.WarnContext(ctx, "stats fetch failed, using zero stats",
				slog.String("match_id", snap.MatchID),
				slog.String("error", err.Error()),
			)
		} else {
			rows = fetched
		}
	}

	return Compute(snap, rows), nil
}

// Compute builds the MetricsRecord from a snapshot and its statistic rows.
// It is exported separately from Extract so callers with stats already in
// hand can stay side-effect free. A nil rows falls back to the rows carried
// on the snapshot itself.
func Compute(snap domain.MatchSnapshot, rows []domain.StatRow) domain.MetricsRecord {
	if rows == nil {
		rows = snap.Stats
	}
	home, away := collect(rows)

	return domain.MetricsRecord{
		MatchID:   snap.MatchID,
		Minute:    snap.Minute,
		Score:     *snap.Score,
		ScoreDiff: snap.Score.Diff(),
		Home:      deriveSide(home),
		Away:      deriveSide(away),
	}
}

// rawStats is one side's parsed statistic values keyed by StatKey.
type rawStats map[StatKey]float64

func collect(rows []domain.StatRow) (home, away rawStats) {
	home = rawStats{}
	away = rawStats{}
	for _, row := range rows {
		key, ok := statAliases[strings.ToLower(strings.TrimSpace(row.Type))]
		if !ok {
			continue
		}
		home[key] = ParseStatValue(row.Home)
		away[key] = ParseStatValue(row.Away)
	}
	return home, away
}

func deriveSide(s rawStats) domain.SideMetrics {
	shots := int(s[StatShots])
	sot := int(s[StatShotsOnTarget])
	corners := int(s[StatCorners])
	cards := int(s[StatYellowCards]) + int(s[StatRedCards])

	return domain.SideMetrics{
		Shots:         shots,
		ShotsOnTarget: sot,
		Corners:       corners,
		Cards:         cards,
		Possession:    s[StatPossession],
		Pressure: clamp01(pressureSOTWeight*float64(sot) +
			pressureShotWeight*float64(shots-sot) +
			pressureCornerWeight*float64(corners)),
		XGProxy: clamp01(xgSOTWeight*float64(sot) + xgShotWeight*float64(shots)),
	}
}

// ParseStatValue parses one raw statistic cell. Percentage suffixes are
// stripped ("54%" -> 54), slash-formatted pairs take the numerator
// ("7/12" -> 7), and any other decoration is removed before parsing.
// Unparsable or empty input yields zero.
func ParseStatValue(raw string) float64 {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0
	}
	if i := strings.IndexByte(v, '/'); i >= 0 {
		v = v[:i]
	}
	v = strings.TrimFunc(v, func(r rune) bool {
		return !(r >= '0' && r <= '9') && r != '.' && r != '-'
	})
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
