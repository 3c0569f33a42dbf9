// Package types contains common types used across the application
package types

import "time"

// LeaderboardEntry represents one ranked row of an event leaderboard or
// season standings table.
type LeaderboardEntry struct {
	Position       int    `json:"position"`
	PlayerID       string `json:"player_id"`
	PlayerName     string `json:"player_name"`
	Gross          int    `json:"gross"`
	Net            int    `json:"net"`
	CourseHandicap int    `json:"course_handicap"`
	ScoreToPar     int    `json:"score_to_par"`
	Thru           int    `json:"thru,omitempty"` // rounds counted (season standings only)
}

// PostOutcome reports the result of posting a round for handicap.
// HandicapIndex is nil when no index is established yet; a round can be
// posted (differential recorded) without the player having an index.
type PostOutcome struct {
	Posted            bool     `json:"posted"`
	Ineligible        bool     `json:"ineligible,omitempty"`
	CourseHandicap    int      `json:"course_handicap,omitempty"`
	AdjustedGross     int      `json:"adjusted_gross,omitempty"`
	ScoreDifferential float64  `json:"score_differential,omitempty"`
	HandicapIndex     *float64 `json:"handicap_index,omitempty"`
}

// HistoryPoint is one point of a player's handicap trend.
type HistoryPoint struct {
	Index      float64   `json:"index"`
	RecordedAt time.Time `json:"recorded_at"`
	RoundsUsed int       `json:"rounds_used"`
}

// HandicapSummary is the read shape for a player's current handicap.
// Index is nil while the player has fewer than five posted rounds.
type HandicapSummary struct {
	PlayerID   string         `json:"player_id"`
	Index      *float64       `json:"index"`
	ScoresUsed int            `json:"scores_used"`
	History    []HistoryPoint `json:"history"`
}
