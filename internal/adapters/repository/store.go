// Package repository defines the round/handicap store interface and errors.
package repository

import (
	"context"

	"github.com/clubhouselabs/fairway/internal/domain/model"
)

// PostingData is the snapshot written onto a round when it is posted for
// handicap.
type PostingData struct {
	CourseHandicap    int
	AdjustedGross     int
	ScoreDifferential float64
}

// Store provides read/write access to rounds, player handicap state and
// index history. It stands in for the managed-backend storage collaborator;
// the core only depends on this boundary.
type Store interface {
	// SaveRound persists a submitted round.
	SaveRound(ctx context.Context, round *model.Round) error

	// Round returns a round by id. Returns ErrNotFound if unknown.
	Round(ctx context.Context, id string) (model.Round, error)

	// MarkRoundPosted writes the posting snapshot onto a round and flags it
	// posted. Returns ErrNotFound if the round is unknown.
	MarkRoundPosted(ctx context.Context, roundID string, data PostingData) error

	// PostedDifferentials returns the differential records of all posted
	// rounds for a player, ordered by play date descending.
	PostedDifferentials(ctx context.Context, playerID string) ([]model.DifferentialRecord, error)

	// PlayerIndex returns a player's current handicap index. The second
	// return is false while no index has been established.
	PlayerIndex(ctx context.Context, playerID string) (float64, bool, error)

	// SetPlayerIndex updates a player's current handicap index.
	SetPlayerIndex(ctx context.Context, playerID string, index float64) error

	// AppendIndexHistory appends an immutable history snapshot.
	AppendIndexHistory(ctx context.Context, entry model.HandicapHistoryEntry) error

	// IndexHistory returns a player's history entries, oldest first.
	IndexHistory(ctx context.Context, playerID string) ([]model.HandicapHistoryEntry, error)

	// RoundsForEvent returns the aggregation shape for all rounds of an
	// event, posted or not.
	RoundsForEvent(ctx context.Context, eventID string) ([]model.EventRound, error)

	// RoundsForSeason returns all rounds, filtered to a calendar year when
	// year > 0.
	RoundsForSeason(ctx context.Context, year int) ([]model.EventRound, error)

	// PlayerCount returns the number of players with at least one round.
	PlayerCount(ctx context.Context) int
}
