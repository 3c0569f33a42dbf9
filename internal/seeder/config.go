package seeder

import "time"

// Config holds configuration for the league seeding run.
type Config struct {
	BaseURL         string        // Base URL of the service
	NumPlayers      int           // Number of players to generate
	RoundsPerPlayer int           // Rounds submitted and posted per player
	EventID         string        // Event the rounds are attached to
	Workers         int           // Number of concurrent workers
	Timeout         time.Duration // HTTP request timeout
	Token           string        // Bearer token for mutating routes
	OutputFile      string        // Output file for generated rounds
	LogFile         string        // Log file for seeding output
	Verbose         bool          // Enable verbose logging
}

// HoleScore is one hole of a generated round.
type HoleScore struct {
	Strokes int `json:"strokes"`
	Par     int `json:"par"`
}

// RoundPayload is a round to be submitted.
type RoundPayload struct {
	PlayerID     string      `json:"player_id"`
	PlayerName   string      `json:"player_name"`
	EventID      string      `json:"event_id,omitempty"`
	CourseID     string      `json:"course_id"`
	TeeBox       string      `json:"tee_box"`
	PlayedAt     string      `json:"played_at"`
	Holes        []HoleScore `json:"holes"`
	CourseRating float64     `json:"course_rating"`
	SlopeRating  int         `json:"slope_rating"`
	Par          int         `json:"par"`
}

// AckResponse is the submission acknowledgement.
type AckResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// Entry is one leaderboard row as returned by the service.
type Entry struct {
	Position   int    `json:"position"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Gross      int    `json:"gross"`
	Net        int    `json:"net"`
}

// Stats holds seeding statistics.
type Stats struct {
	RoundsGenerated    int
	RoundsSubmitted    int
	RoundsSuccessful   int
	RoundsFailed       int
	RoundsPosted       int
	PostingsFailed     int
	LeaderboardEntries int
	StandingsEntries   int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
