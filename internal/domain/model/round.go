// Package model contains domain models passed between layers.
package model

import "time"

// HoleScore is one hole of a scorecard.
type HoleScore struct {
	Strokes int
	Par     int
}

// Round represents a completed round submitted by a player.
// Posting fields are zero until the round is posted for handicap; once
// posted they are a snapshot and are never recomputed from the live index.
type Round struct {
	ID         string
	PlayerID   string
	PlayerName string
	EventID    string // empty for casual rounds outside any event
	CourseID   string
	TeeBox     string
	PlayedAt   time.Time
	Holes      []HoleScore

	// Tee box difficulty data captured at submission time.
	CourseRating float64
	SlopeRating  int
	Par          int // 0 means unknown; aggregation substitutes the default

	GrossScore int

	// Posting snapshot.
	Posted            bool
	CourseHandicap    int
	AdjustedGross     int
	ScoreDifferential float64
}

// DifferentialRecord is the per-round slice of data the handicap engine
// consumes when recomputing a player's index.
type DifferentialRecord struct {
	AdjustedGross int
	CourseRating  float64
	SlopeRating   int
	PlayedAt      time.Time
	Differential  float64
}

// HandicapHistoryEntry is an immutable snapshot appended whenever a new
// index is computed for a player. Never updated or deleted.
type HandicapHistoryEntry struct {
	ID         string
	PlayerID   string
	Index      float64
	RecordedAt time.Time
	RoundsUsed int
}

// EventRound is the read shape leaderboard aggregation works on. The
// course handicap and index are the values captured on the round at post
// time; nil means the player had no established handicap.
type EventRound struct {
	RoundID        string
	PlayerID       string
	PlayerName     string
	GrossScore     int
	CourseHandicap *int
	HandicapIndex  *float64
	Par            int // 0 means unknown
	PlayedAt       time.Time
}
