package domain

// SideMetrics holds the per-team slice of a MetricsRecord. Counts default to
// zero when the feed omits them; the bounded indices are always clamped to
// [0,1] by the extractor.
type SideMetrics struct {
	Shots         int
	ShotsOnTarget int
	Corners       int
	Cards         int
	Possession    float64 // percentage, 0-100
	Pressure      float64 // [0,1] relative attack intensity
	XGProxy       float64 // [0,1] expected-goals stand-in, shots-derived
}

// MetricsRecord is the normalized feature vector derived from one
// MatchSnapshot. It is immutable once built.
type MetricsRecord struct {
	MatchID   string
	Minute    int
	Score     Score
	ScoreDiff int // home minus away
	Home      SideMetrics
	Away      SideMetrics
}

// SideFor returns the metrics slice for the given scoreboard side.
// Over/under selections have no side slice and return the zero value.
func (m MetricsRecord) SideFor(side Side) SideMetrics {
	switch side {
	case SideHome:
		return m.Home
	case SideAway:
		return m.Away
	}
	return SideMetrics{}
}
