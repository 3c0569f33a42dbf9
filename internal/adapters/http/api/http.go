// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/clubhouselabs/fairway/internal/domain/model"
	"github.com/clubhouselabs/fairway/internal/domain/standings"
	"github.com/clubhouselabs/fairway/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Write operations.
	SubmitRound(ctx context.Context, round *model.Round) (string, error)
	PostRoundForHandicap(ctx context.Context, roundID string) (types.PostOutcome, error)
	RecomputePlayer(ctx context.Context, playerID string) (types.HandicapSummary, error)

	// Change-feed ingestion. Returns false on backpressure.
	NotifyRoundChanged(ctx context.Context, eventID string) bool

	// Read operations.
	PlayerHandicap(ctx context.Context, playerID string) (types.HandicapSummary, error)
	EventLeaderboard(ctx context.Context, eventID string, sortBy standings.SortBy) ([]types.LeaderboardEntry, error)
	SeasonStandings(ctx context.Context, year int, sortBy standings.SortBy, limit int) ([]types.LeaderboardEntry, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.LeaderboardEntry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	roundsHandler        *RoundsHandler
	playersHandler       *PlayersHandler
	leaderboardHandler   *LeaderboardHandler
	standingsHandler     *StandingsHandler
	notificationsHandler *NotificationsHandler

	jwtSecret []byte
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithJWTSecret enables actor-token validation on mutating routes. An
// empty secret leaves the boundary open (development mode).
func WithJWTSecret(secret []byte) ServerOption {
	return func(s *Server) {
		if len(secret) > 0 {
			s.jwtSecret = secret
		}
	}
}

// WithMaxLeaderboardLimit caps limit query params.
func WithMaxLeaderboardLimit(limit int) ServerOption {
	return func(s *Server) {
		if limit > 0 {
			s.leaderboardHandler.maxLimit = limit
			s.standingsHandler.maxLimit = limit
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		roundsHandler:        NewRoundsHandler(deps),
		playersHandler:       NewPlayersHandler(deps),
		leaderboardHandler:   NewLeaderboardHandler(deps, defaultMaxLimit),
		standingsHandler:     NewStandingsHandler(deps, defaultMaxLimit),
		notificationsHandler: NewNotificationsHandler(deps),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	actor := ActorMiddleware(s.jwtSecret)
	admin := AdminMiddleware(s.jwtSecret)

	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/rounds", MetricsMiddleware(actor(s.roundsHandler.HandleSubmitRound), "rounds"))
	mux.HandleFunc("/rounds/", MetricsMiddleware(actor(s.roundsHandler.HandlePostRound), "rounds_post"))
	mux.HandleFunc("/players/", MetricsMiddleware(s.playersHandler.HandlePlayers(admin), "players"))
	mux.HandleFunc("/events/", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/standings", MetricsMiddleware(s.standingsHandler.HandleGetStandings, "standings"))
	mux.HandleFunc("/notifications", MetricsMiddleware(s.notificationsHandler.HandlePostNotification, "notifications"))
}

type ackResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
