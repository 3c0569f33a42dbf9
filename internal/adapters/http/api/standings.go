package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/clubhouselabs/fairway/internal/domain/standings"
)

// StandingsHandler serves season standings.
type StandingsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps Dependencies, maxLimit int) *StandingsHandler {
	return &StandingsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetStandings handles GET /standings?year=&sort=&limit=.
func (h *StandingsHandler) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	query := r.URL.Query()

	year := 0
	if raw := query.Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid_year", NewKind("year must be a non-negative integer", ErrBadRequest))
			return
		}
		year = parsed
	}

	sortBy, err := standings.ParseSortBy(query.Get("sort"))
	if errors.Is(err, standings.ErrUnknownSort) {
		writeError(w, http.StatusBadRequest, "invalid_sort", err)
		return
	}

	limit, err := parseLimit(query.Get("limit"), h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", err)
		return
	}

	entries, err := h.deps.SeasonStandings(r.Context(), year, sortBy, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "standings_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
