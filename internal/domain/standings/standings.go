// Package standings aggregates rounds into ranked leaderboards: per-event
// tables and season-long averages.
package standings

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/clubhouselabs/fairway/internal/domain/model"
	"github.com/clubhouselabs/fairway/internal/domain/types"
)

// DefaultPar is assumed when neither the round nor the caller supplies one.
const DefaultPar = 72

// SortBy selects the score column a leaderboard is ordered on.
type SortBy string

// Supported sort modes.
const (
	SortGross SortBy = "gross"
	SortNet   SortBy = "net"
)

// ParseSortBy parses a user-supplied sort mode. Empty input defaults to net.
func ParseSortBy(s string) (SortBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SortNet):
		return SortNet, nil
	case string(SortGross):
		return SortGross, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSort, s)
	}
}

// score returns the ordering value for an entry under the given mode.
func score(e types.LeaderboardEntry, sortBy SortBy) int {
	if sortBy == SortGross {
		return e.Gross
	}
	return e.Net
}

// assignPositions walks sorted entries and assigns tie-aware positions:
// a score equal to the immediately preceding entry shares its position; a
// strictly worse score takes position index+1, so numbering skips after a
// tie group ([70,70,72] -> [1,1,3]).
func assignPositions(entries []types.LeaderboardEntry, sortBy SortBy) {
	for i := range entries {
		if i > 0 && score(entries[i], sortBy) == score(entries[i-1], sortBy) {
			entries[i].Position = entries[i-1].Position
		} else {
			entries[i].Position = i + 1
		}
	}
}

// resolvePar picks the round's own par when present, then the caller's
// default, then the package default.
func resolvePar(roundPar, defaultPar int) int {
	if roundPar > 0 {
		return roundPar
	}
	if defaultPar > 0 {
		return defaultPar
	}
	return DefaultPar
}

// EventLeaderboard converts an event's rounds into a ranked table. The
// course handicap is the value snapshotted on each round at post time; a
// missing handicap counts as 0 rather than failing the aggregation. An
// empty round set yields an empty table.
func EventLeaderboard(rounds []model.EventRound, sortBy SortBy, defaultPar int) []types.LeaderboardEntry {
	entries := make([]types.LeaderboardEntry, 0, len(rounds))
	for _, r := range rounds {
		ch := 0
		if r.CourseHandicap != nil {
			ch = *r.CourseHandicap
		}
		par := resolvePar(r.Par, defaultPar)
		e := types.LeaderboardEntry{
			PlayerID:       r.PlayerID,
			PlayerName:     r.PlayerName,
			Gross:          r.GrossScore,
			Net:            r.GrossScore - ch,
			CourseHandicap: ch,
		}
		e.ScoreToPar = score(e, sortBy) - par
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return score(entries[i], sortBy) < score(entries[j], sortBy)
	})
	assignPositions(entries, sortBy)
	return entries
}

// playerTotals accumulates one player's season.
type playerTotals struct {
	playerID   string
	playerName string
	gross      int
	net        int
	rounds     int
}

// SeasonStandings reduces each player's rounds to average gross/net
// scores (nearest integer), ranks them with the same tie rule as event
// leaderboards, and truncates to limit afterwards. Truncation never
// renumbers positions. limit <= 0 means no truncation.
func SeasonStandings(rounds []model.EventRound, sortBy SortBy, limit, defaultPar int) []types.LeaderboardEntry {
	totals := make(map[string]*playerTotals)
	order := make([]string, 0) // first-seen order keeps the sort stable across runs
	for _, r := range rounds {
		ch := 0
		if r.CourseHandicap != nil {
			ch = *r.CourseHandicap
		}
		t, ok := totals[r.PlayerID]
		if !ok {
			t = &playerTotals{playerID: r.PlayerID, playerName: r.PlayerName}
			totals[r.PlayerID] = t
			order = append(order, r.PlayerID)
		}
		t.gross += r.GrossScore
		t.net += r.GrossScore - ch
		t.rounds++
	}

	par := resolvePar(0, defaultPar)
	entries := make([]types.LeaderboardEntry, 0, len(totals))
	for _, id := range order {
		t := totals[id]
		e := types.LeaderboardEntry{
			PlayerID:   t.playerID,
			PlayerName: t.playerName,
			Gross:      int(math.Round(float64(t.gross) / float64(t.rounds))),
			Net:        int(math.Round(float64(t.net) / float64(t.rounds))),
			Thru:       t.rounds,
		}
		e.ScoreToPar = score(e, sortBy) - par
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return score(entries[i], sortBy) < score(entries[j], sortBy)
	})
	assignPositions(entries, sortBy)

	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}
