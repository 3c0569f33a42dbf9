package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smartystreets/goconvey/convey"

	"github.com/clubhouselabs/fairway/internal/adapters/repository"
	"github.com/clubhouselabs/fairway/internal/domain/model"
	"github.com/clubhouselabs/fairway/internal/domain/standings"
	"github.com/clubhouselabs/fairway/internal/domain/types"
	"github.com/clubhouselabs/fairway/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

// stubDeps implements Dependencies with canned behavior.
type stubDeps struct {
	submitErr    error
	postOutcome  types.PostOutcome
	postErr      error
	notifyOK     bool
	entries      []types.LeaderboardEntry
	lastSort     standings.SortBy
	lastYear     int
	lastLimit    int
	lastEventID  string
	lastPlayerID string
}

func (s *stubDeps) SubmitRound(ctx context.Context, round *model.Round) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return "round-1", nil
}

func (s *stubDeps) PostRoundForHandicap(ctx context.Context, roundID string) (types.PostOutcome, error) {
	return s.postOutcome, s.postErr
}

func (s *stubDeps) RecomputePlayer(ctx context.Context, playerID string) (types.HandicapSummary, error) {
	s.lastPlayerID = playerID
	return types.HandicapSummary{PlayerID: playerID}, nil
}

func (s *stubDeps) NotifyRoundChanged(ctx context.Context, eventID string) bool {
	s.lastEventID = eventID
	return s.notifyOK
}

func (s *stubDeps) PlayerHandicap(ctx context.Context, playerID string) (types.HandicapSummary, error) {
	s.lastPlayerID = playerID
	idx := 13.0
	return types.HandicapSummary{PlayerID: playerID, Index: &idx, ScoresUsed: 1}, nil
}

func (s *stubDeps) EventLeaderboard(ctx context.Context, eventID string, sortBy standings.SortBy) ([]types.LeaderboardEntry, error) {
	s.lastEventID = eventID
	s.lastSort = sortBy
	return s.entries, nil
}

func (s *stubDeps) SeasonStandings(ctx context.Context, year int, sortBy standings.SortBy, limit int) ([]types.LeaderboardEntry, error) {
	s.lastYear = year
	s.lastSort = sortBy
	s.lastLimit = limit
	return s.entries, nil
}

type stubStats struct{}

func (stubStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestMux(deps *stubDeps, opts ...ServerOption) *http.ServeMux {
	mux := http.NewServeMux()
	NewServer(deps, stubStats{}, opts...).Register(context.Background(), mux)
	return mux
}

func doJSON(mux *http.ServeMux, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Set(k, v)
		}
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func validRoundBody() map[string]any {
	holes := make([]map[string]int, 18)
	for i := range holes {
		holes[i] = map[string]int{"strokes": 5, "par": 4}
	}
	return map[string]any{
		"player_id":     "p1",
		"player_name":   "Pat",
		"event_id":      "e1",
		"holes":         holes,
		"course_rating": 71.3,
		"slope_rating":  125,
		"par":           72,
	}
}

func TestRoundsEndpoints(t *testing.T) {
	convey.Convey("Given the rounds endpoints", t, func() {
		deps := &stubDeps{notifyOK: true}
		mux := newTestMux(deps)

		convey.Convey("A valid submission is accepted", func() {
			w := doJSON(mux, http.MethodPost, "/rounds", validRoundBody(), nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)

			var ack ackResponse
			convey.So(json.Unmarshal(w.Body.Bytes(), &ack), convey.ShouldBeNil)
			convey.So(ack.ID, convey.ShouldEqual, "round-1")
		})

		convey.Convey("A submission without a player is rejected", func() {
			body := validRoundBody()
			delete(body, "player_id")
			w := doJSON(mux, http.MethodPost, "/rounds", body, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("A partial card is rejected", func() {
			body := validRoundBody()
			body["holes"] = []map[string]int{{"strokes": 5, "par": 4}}
			w := doJSON(mux, http.MethodPost, "/rounds", body, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("A gross-only submission is accepted", func() {
			w := doJSON(mux, http.MethodPost, "/rounds", map[string]any{
				"player_id":   "p1",
				"gross_score": 95,
			}, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)
		})

		convey.Convey("Malformed JSON is rejected", func() {
			req := httptest.NewRequest(http.MethodPost, "/rounds", bytes.NewBufferString("{nope"))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("GET on /rounds is not allowed", func() {
			w := doJSON(mux, http.MethodGet, "/rounds", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusMethodNotAllowed)
		})

		convey.Convey("Posting a round returns the outcome", func() {
			idx := 13.0
			deps.postOutcome = types.PostOutcome{Posted: true, CourseHandicap: 13, HandicapIndex: &idx}
			w := doJSON(mux, http.MethodPost, "/rounds/round-1/post", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			var outcome types.PostOutcome
			convey.So(json.Unmarshal(w.Body.Bytes(), &outcome), convey.ShouldBeNil)
			convey.So(outcome.Posted, convey.ShouldBeTrue)
			convey.So(outcome.CourseHandicap, convey.ShouldEqual, 13)
		})

		convey.Convey("An ineligible round still answers 200", func() {
			deps.postOutcome = types.PostOutcome{Ineligible: true}
			w := doJSON(mux, http.MethodPost, "/rounds/round-1/post", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "ineligible")
		})

		convey.Convey("Unknown rounds are 404, reposts are 409", func() {
			deps.postErr = fmt.Errorf("post round: %w", repository.ErrNotFound)
			w := doJSON(mux, http.MethodPost, "/rounds/missing/post", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)

			deps.postErr = fmt.Errorf("post round: %w", repository.ErrAlreadyPosted)
			w = doJSON(mux, http.MethodPost, "/rounds/round-1/post", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusConflict)
		})

		convey.Convey("A malformed posting path is 404", func() {
			w := doJSON(mux, http.MethodPost, "/rounds/round-1/publish", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestPlayersEndpoints(t *testing.T) {
	convey.Convey("Given the players endpoints", t, func() {
		deps := &stubDeps{}
		mux := newTestMux(deps)

		convey.Convey("The handicap read returns the summary", func() {
			w := doJSON(mux, http.MethodGet, "/players/p9/handicap", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			var summary types.HandicapSummary
			convey.So(json.Unmarshal(w.Body.Bytes(), &summary), convey.ShouldBeNil)
			convey.So(summary.PlayerID, convey.ShouldEqual, "p9")
			convey.So(summary.Index, convey.ShouldNotBeNil)
		})

		convey.Convey("The recompute route triggers a recompute", func() {
			w := doJSON(mux, http.MethodPost, "/players/p9/recompute", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.lastPlayerID, convey.ShouldEqual, "p9")
		})

		convey.Convey("Unknown player subroutes are 404", func() {
			w := doJSON(mux, http.MethodGet, "/players/p9/trophies", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)

			w = doJSON(mux, http.MethodGet, "/players/", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLeaderboardEndpoints(t *testing.T) {
	convey.Convey("Given the leaderboard and standings endpoints", t, func() {
		deps := &stubDeps{entries: []types.LeaderboardEntry{
			{Position: 1, PlayerID: "a", Gross: 70, Net: 70},
			{Position: 2, PlayerID: "b", Gross: 72, Net: 72},
			{Position: 3, PlayerID: "c", Gross: 75, Net: 75},
		}}
		mux := newTestMux(deps, WithMaxLeaderboardLimit(2))

		convey.Convey("The leaderboard returns ranked entries", func() {
			w := doJSON(mux, http.MethodGet, "/events/e1/leaderboard?sort=gross", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.lastEventID, convey.ShouldEqual, "e1")
			convey.So(deps.lastSort, convey.ShouldEqual, standings.SortGross)
		})

		convey.Convey("An unknown sort mode is rejected", func() {
			w := doJSON(mux, http.MethodGet, "/events/e1/leaderboard?sort=stableford", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("The limit is capped at the configured maximum", func() {
			w := doJSON(mux, http.MethodGet, "/events/e1/leaderboard?limit=50", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			var entries []types.LeaderboardEntry
			convey.So(json.Unmarshal(w.Body.Bytes(), &entries), convey.ShouldBeNil)
			convey.So(entries, convey.ShouldHaveLength, 2)
			// Truncation keeps the original positions.
			convey.So(entries[1].Position, convey.ShouldEqual, 2)
		})

		convey.Convey("A bad limit is rejected", func() {
			w := doJSON(mux, http.MethodGet, "/events/e1/leaderboard?limit=zero", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)

			w = doJSON(mux, http.MethodGet, "/events/e1/leaderboard?limit=-3", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("Standings parse year, sort and limit", func() {
			w := doJSON(mux, http.MethodGet, "/standings?year=2026&sort=net&limit=2", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.lastYear, convey.ShouldEqual, 2026)
			convey.So(deps.lastSort, convey.ShouldEqual, standings.SortNet)
			convey.So(deps.lastLimit, convey.ShouldEqual, 2)
		})

		convey.Convey("A bad year is rejected", func() {
			w := doJSON(mux, http.MethodGet, "/standings?year=MMXXVI", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestNotificationsEndpoint(t *testing.T) {
	convey.Convey("Given the notifications endpoint", t, func() {
		deps := &stubDeps{notifyOK: true}
		mux := newTestMux(deps)

		convey.Convey("A notification is accepted", func() {
			w := doJSON(mux, http.MethodPost, "/notifications", map[string]string{"event_id": "e1"}, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusAccepted)
			convey.So(deps.lastEventID, convey.ShouldEqual, "e1")
		})

		convey.Convey("A missing event id is rejected", func() {
			w := doJSON(mux, http.MethodPost, "/notifications", map[string]string{}, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("Backpressure answers 503", func() {
			deps.notifyOK = false
			w := doJSON(mux, http.MethodPost, "/notifications", map[string]string{"event_id": "e1"}, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	convey.Convey("Given the operational endpoints", t, func() {
		mux := newTestMux(&stubDeps{})

		convey.Convey("The health check answers ok", func() {
			w := doJSON(mux, http.MethodGet, "/healthz", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "ok")
		})

		convey.Convey("Stats are exposed as JSON", func() {
			w := doJSON(mux, http.MethodGet, "/stats", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "started")
		})
	})
}

func TestAuth(t *testing.T) {
	convey.Convey("Given a server with a JWT secret", t, func() {
		secret := []byte("league-secret")
		deps := &stubDeps{notifyOK: true}
		mux := newTestMux(deps, WithJWTSecret(secret))

		bearer := func(role string) http.Header {
			token, err := IssueToken(secret, Claims{
				PlayerID: "p1",
				Role:     role,
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			})
			convey.So(err, convey.ShouldBeNil)
			return http.Header{"Authorization": []string{"Bearer " + token}}
		}

		convey.Convey("Mutating routes require a token", func() {
			w := doJSON(mux, http.MethodPost, "/rounds", validRoundBody(), nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusUnauthorized)
		})

		convey.Convey("A member token passes the actor gate", func() {
			w := doJSON(mux, http.MethodPost, "/rounds", validRoundBody(), bearer("member"))
			convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)
		})

		convey.Convey("A garbage token is rejected", func() {
			h := http.Header{"Authorization": []string{"Bearer nonsense"}}
			w := doJSON(mux, http.MethodPost, "/rounds", validRoundBody(), h)
			convey.So(w.Code, convey.ShouldEqual, http.StatusUnauthorized)
		})

		convey.Convey("The recompute route requires the admin role", func() {
			w := doJSON(mux, http.MethodPost, "/players/p1/recompute", nil, bearer("member"))
			convey.So(w.Code, convey.ShouldEqual, http.StatusForbidden)

			w = doJSON(mux, http.MethodPost, "/players/p1/recompute", nil, bearer("admin"))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Read routes stay open", func() {
			w := doJSON(mux, http.MethodGet, "/players/p1/handicap", nil, nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}
