package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/clubhouselabs/fairway/internal/domain/model"
)

// MemStore implements Store with mutex-guarded maps. It is the default
// backend and the one tests run against.
type MemStore struct {
	mu      sync.RWMutex
	rounds  map[string]model.Round
	index   map[string]float64
	history map[string][]model.HandicapHistoryEntry
	players map[string]struct{}
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(ctx context.Context) *MemStore {
	return &MemStore{
		rounds:  make(map[string]model.Round),
		index:   make(map[string]float64),
		history: make(map[string][]model.HandicapHistoryEntry),
		players: make(map[string]struct{}),
	}
}

// SaveRound persists a submitted round.
func (s *MemStore) SaveRound(ctx context.Context, round *model.Round) error {
	if round == nil || round.ID == "" {
		return fmt.Errorf("save round: %w", ErrNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r := *round
	r.Holes = append([]model.HoleScore(nil), round.Holes...)
	s.rounds[r.ID] = r
	s.players[r.PlayerID] = struct{}{}
	return nil
}

// Round returns a round by id.
func (s *MemStore) Round(ctx context.Context, id string) (model.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rounds[id]
	if !ok {
		return model.Round{}, fmt.Errorf("round %s: %w", id, ErrNotFound)
	}
	return r, nil
}

// MarkRoundPosted writes the posting snapshot onto a round.
func (s *MemStore) MarkRoundPosted(ctx context.Context, roundID string, data PostingData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rounds[roundID]
	if !ok {
		return fmt.Errorf("round %s: %w", roundID, ErrNotFound)
	}
	r.Posted = true
	r.CourseHandicap = data.CourseHandicap
	r.AdjustedGross = data.AdjustedGross
	r.ScoreDifferential = data.ScoreDifferential
	s.rounds[roundID] = r
	return nil
}

// PostedDifferentials returns posted rounds for a player, newest first.
func (s *MemStore) PostedDifferentials(ctx context.Context, playerID string) ([]model.DifferentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []model.DifferentialRecord
	for _, r := range s.rounds {
		if r.PlayerID != playerID || !r.Posted {
			continue
		}
		records = append(records, model.DifferentialRecord{
			AdjustedGross: r.AdjustedGross,
			CourseRating:  r.CourseRating,
			SlopeRating:   r.SlopeRating,
			PlayedAt:      r.PlayedAt,
			Differential:  r.ScoreDifferential,
		})
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PlayedAt.After(records[j].PlayedAt)
	})
	return records, nil
}

// PlayerIndex returns a player's current handicap index.
func (s *MemStore) PlayerIndex(ctx context.Context, playerID string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.index[playerID]
	return idx, ok, nil
}

// SetPlayerIndex updates a player's current handicap index.
func (s *MemStore) SetPlayerIndex(ctx context.Context, playerID string, index float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index[playerID] = index
	s.players[playerID] = struct{}{}
	return nil
}

// AppendIndexHistory appends an immutable history snapshot.
func (s *MemStore) AppendIndexHistory(ctx context.Context, entry model.HandicapHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[entry.PlayerID] = append(s.history[entry.PlayerID], entry)
	return nil
}

// IndexHistory returns a player's history entries, oldest first.
func (s *MemStore) IndexHistory(ctx context.Context, playerID string) ([]model.HandicapHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.history[playerID]
	out := make([]model.HandicapHistoryEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.Before(out[j].RecordedAt)
	})
	return out, nil
}

// eventRound converts a stored round into the aggregation shape.
func eventRound(r model.Round) model.EventRound {
	er := model.EventRound{
		RoundID:    r.ID,
		PlayerID:   r.PlayerID,
		PlayerName: r.PlayerName,
		GrossScore: r.GrossScore,
		Par:        r.Par,
		PlayedAt:   r.PlayedAt,
	}
	if r.Posted {
		ch := r.CourseHandicap
		er.CourseHandicap = &ch
	}
	return er
}

// RoundsForEvent returns the aggregation shape for all rounds of an event.
func (s *MemStore) RoundsForEvent(ctx context.Context, eventID string) ([]model.EventRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.EventRound
	for _, r := range s.rounds {
		if r.EventID == eventID {
			out = append(out, eventRound(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlayedAt.Before(out[j].PlayedAt)
	})
	return out, nil
}

// RoundsForSeason returns all rounds, filtered to a calendar year when year > 0.
func (s *MemStore) RoundsForSeason(ctx context.Context, year int) ([]model.EventRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.EventRound
	for _, r := range s.rounds {
		if year > 0 && r.PlayedAt.Year() != year {
			continue
		}
		out = append(out, eventRound(r))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlayedAt.Before(out[j].PlayedAt)
	})
	return out, nil
}

// PlayerCount returns the number of players with at least one round.
func (s *MemStore) PlayerCount(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}
