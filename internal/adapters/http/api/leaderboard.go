package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/clubhouselabs/fairway/internal/domain/standings"
)

const defaultMaxLimit = 100

// LeaderboardHandler serves event leaderboards.
type LeaderboardHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetLeaderboard handles GET /events/{id}/leaderboard.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/events/")
	eventID, action, found := strings.Cut(rest, "/")
	if !found || action != "leaderboard" || eventID == "" {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	sortBy, err := standings.ParseSortBy(r.URL.Query().Get("sort"))
	if errors.Is(err, standings.ErrUnknownSort) {
		writeError(w, http.StatusBadRequest, "invalid_sort", err)
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"), h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", err)
		return
	}

	entries, err := h.deps.EventLeaderboard(r.Context(), eventID, sortBy)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "leaderboard_failed", err)
		return
	}

	// Positions are assigned before truncation so rank is stable under limit.
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	writeJSON(w, http.StatusOK, entries)
}

// parseLimit parses an optional positive limit and clamps it to ceiling.
func parseLimit(raw string, ceiling int) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, NewKind("limit must be a positive integer", ErrBadRequest)
	}
	if ceiling > 0 && limit > ceiling {
		limit = ceiling
	}
	return limit, nil
}
