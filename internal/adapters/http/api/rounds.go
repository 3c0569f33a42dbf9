package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clubhouselabs/fairway/internal/adapters/repository"
	"github.com/clubhouselabs/fairway/internal/domain/handicap"
	"github.com/clubhouselabs/fairway/internal/domain/model"
)

// RoundsHandler accepts round submissions and posting requests.
type RoundsHandler struct {
	deps Dependencies
}

// NewRoundsHandler creates a new rounds handler.
func NewRoundsHandler(deps Dependencies) *RoundsHandler {
	return &RoundsHandler{deps: deps}
}

type holeScorePayload struct {
	Strokes int `json:"strokes"`
	Par     int `json:"par"`
}

type submitRoundRequest struct {
	PlayerID     string             `json:"player_id"`
	PlayerName   string             `json:"player_name"`
	EventID      string             `json:"event_id"`
	CourseID     string             `json:"course_id"`
	TeeBox       string             `json:"tee_box"`
	PlayedAt     time.Time          `json:"played_at"`
	Holes        []holeScorePayload `json:"holes"`
	CourseRating float64            `json:"course_rating"`
	SlopeRating  int                `json:"slope_rating"`
	Par          int                `json:"par"`
	GrossScore   int                `json:"gross_score"`
}

func (req *submitRoundRequest) validate() error {
	const op = "validate round"
	if req.PlayerID == "" {
		return NewKind(op+": player_id is required", ErrBadRequest)
	}
	if len(req.Holes) == 0 && req.GrossScore <= 0 {
		return NewKind(op+": either holes or gross_score is required", ErrBadRequest)
	}
	if len(req.Holes) > 0 && len(req.Holes) != handicap.HolesPerRound {
		return NewKind(op+": a full round has 18 holes", ErrBadRequest)
	}
	for _, h := range req.Holes {
		if h.Strokes <= 0 || h.Par <= 0 {
			return NewKind(op+": hole strokes and par must be positive", ErrBadRequest)
		}
	}
	if req.CourseRating != 0 && (req.CourseRating < handicap.MinCourseRating || req.CourseRating > handicap.MaxCourseRating) {
		return NewKind(op+": course_rating out of range", ErrBadRequest)
	}
	if req.SlopeRating != 0 && (req.SlopeRating < handicap.MinSlopeRating || req.SlopeRating > handicap.MaxSlopeRating) {
		return NewKind(op+": slope_rating out of range", ErrBadRequest)
	}
	if req.Par < 0 {
		return NewKind(op+": par must not be negative", ErrBadRequest)
	}
	return nil
}

func (req *submitRoundRequest) toModel() *model.Round {
	round := &model.Round{
		PlayerID:     req.PlayerID,
		PlayerName:   req.PlayerName,
		EventID:      req.EventID,
		CourseID:     req.CourseID,
		TeeBox:       req.TeeBox,
		PlayedAt:     req.PlayedAt,
		CourseRating: req.CourseRating,
		SlopeRating:  req.SlopeRating,
		Par:          req.Par,
		GrossScore:   req.GrossScore,
	}
	if round.PlayedAt.IsZero() {
		round.PlayedAt = time.Now().UTC()
	}
	for _, h := range req.Holes {
		round.Holes = append(round.Holes, model.HoleScore{Strokes: h.Strokes, Par: h.Par})
	}
	return round
}

// HandleSubmitRound handles POST /rounds.
func (h *RoundsHandler) HandleSubmitRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var req submitRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", WrapKind("decode round", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_round", err)
		return
	}

	id, err := h.deps.SubmitRound(r.Context(), req.toModel())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "submit_failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, ackResponse{Status: "accepted", ID: id})
}

// HandlePostRound handles POST /rounds/{id}/post.
func (h *RoundsHandler) HandlePostRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/rounds/")
	roundID, action, found := strings.Cut(rest, "/")
	if !found || action != "post" || roundID == "" {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	outcome, err := h.deps.PostRoundForHandicap(r.Context(), roundID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "round_not_found", err)
		return
	case errors.Is(err, repository.ErrAlreadyPosted):
		writeError(w, http.StatusConflict, "already_posted", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "post_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}
