// Package domain defines the core types of the signal engine: match
// snapshots, derived metrics, signals, picks, settlement records, and the
// store/cache/feed interfaces implemented by the infrastructure layers.
package domain

import "time"

// MatchStatus is the upstream feed's status code for a fixture.
type MatchStatus string

const (
	MatchStatusLive       MatchStatus = "live"
	MatchStatusHalfTime   MatchStatus = "half_time"
	MatchStatusFullTime   MatchStatus = "full_time"
	MatchStatusExtraTime  MatchStatus = "after_extra_time"
	MatchStatusPenalties  MatchStatus = "after_penalties"
	MatchStatusPostponed  MatchStatus = "postponed"
	MatchStatusAbandoned  MatchStatus = "abandoned"
	MatchStatusNotStarted MatchStatus = "not_started"
)

// Finished reports whether the match has reached a settleable final state.
// Postponed and abandoned fixtures are NOT finished: picks on them stay
// pending until the feed reports a completed replay or they are voided
// manually.
func (s MatchStatus) Finished() bool {
	switch s {
	case MatchStatusFullTime, MatchStatusExtraTime, MatchStatusPenalties:
		return true
	}
	return false
}

// Score is a scoreboard state, home and away goals.
type Score struct {
	Home int
	Away int
}

// Total returns the combined goal count.
func (s Score) Total() int { return s.Home + s.Away }

// Diff returns home goals minus away goals.
func (s Score) Diff() int { return s.Home - s.Away }

// StatRow is one raw statistic line as delivered by the feed. Values are kept
// as strings because upstream formats vary: "7", "7/12", "54%".
type StatRow struct {
	Type string // e.g. "Shots on Goal", "Corner Kicks"
	Home string
	Away string
}

// MatchSnapshot is the immutable per-poll view of one in-play match. It is
// produced by the feed collaborator; the engine never mutates it.
type MatchSnapshot struct {
	MatchID       string
	CompetitionID string
	HomeTeam      string
	AwayTeam      string
	Minute        int
	Status        MatchStatus
	Score         *Score // nil when the feed did not include a scoreboard
	Stats         []StatRow
	ObservedAt    time.Time
}
