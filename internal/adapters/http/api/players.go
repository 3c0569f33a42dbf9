package api

import (
	"net/http"
	"strings"
)

// PlayersHandler serves player handicap reads and admin recomputes.
type PlayersHandler struct {
	deps Dependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps Dependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandlePlayers dispatches /players/{id}/handicap and
// /players/{id}/recompute. The recompute route is gated by admin.
func (h *PlayersHandler) HandlePlayers(admin Middleware) http.HandlerFunc {
	recompute := admin(h.handleRecompute)

	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/players/")
		playerID, action, found := strings.Cut(rest, "/")
		if !found || playerID == "" {
			writeError(w, http.StatusNotFound, "not_found", nil)
			return
		}

		switch action {
		case "handicap":
			h.handleGetHandicap(w, r, playerID)
		case "recompute":
			recompute(w, r)
		default:
			writeError(w, http.StatusNotFound, "not_found", nil)
		}
	}
}

func (h *PlayersHandler) handleGetHandicap(w http.ResponseWriter, r *http.Request, playerID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	summary, err := h.deps.PlayerHandicap(r.Context(), playerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "handicap_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *PlayersHandler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/players/")
	playerID, _, _ := strings.Cut(rest, "/")

	summary, err := h.deps.RecomputePlayer(r.Context(), playerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "recompute_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
