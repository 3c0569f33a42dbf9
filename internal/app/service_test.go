package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/clubhouselabs/fairway/internal/adapters/repository"
	"github.com/clubhouselabs/fairway/internal/domain/model"
	"github.com/clubhouselabs/fairway/internal/domain/standings"
	"github.com/clubhouselabs/fairway/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

// fullRound builds an 18-hole round on an all-par-4 card summing to gross.
// gross must lie between 72 and 108 so every hole stays within the
// single-digit ESC cap of par+2.
func fullRound(playerID, eventID string, gross int, playedAt time.Time) *model.Round {
	holes := make([]model.HoleScore, 18)
	remaining := gross - 18*4
	for i := range holes {
		strokes := 4
		if remaining >= 2 {
			strokes = 6
			remaining -= 2
		} else if remaining == 1 {
			strokes = 5
			remaining--
		}
		holes[i] = model.HoleScore{Strokes: strokes, Par: 4}
	}
	return &model.Round{
		PlayerID:     playerID,
		PlayerName:   "Test " + playerID,
		EventID:      eventID,
		CourseID:     "course-1",
		PlayedAt:     playedAt,
		Holes:        holes,
		CourseRating: 72.0,
		SlopeRating:  113,
		Par:          72,
	}
}

func startService(t *testing.T) *Service {
	t.Helper()
	svc := New(WithWorkerCount(2), WithQueueSize(100))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestSubmitAndPostFlow(t *testing.T) {
	convey.Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc := startService(t)
		base := time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)

		convey.Convey("Submitting a round assigns an id and totals the gross", func() {
			id, err := svc.SubmitRound(ctx, fullRound("p1", "e1", 90, base))
			convey.So(err, convey.ShouldBeNil)
			convey.So(id, convey.ShouldNotBeEmpty)
		})

		convey.Convey("A gross-only submission keeps the caller's total", func() {
			id, err := svc.SubmitRound(ctx, &model.Round{
				PlayerID:   "p1",
				GrossScore: 95,
				PlayedAt:   base,
			})
			convey.So(err, convey.ShouldBeNil)

			outcome, err := svc.PostRoundForHandicap(ctx, id)
			convey.So(err, convey.ShouldBeNil)
			convey.So(outcome.Ineligible, convey.ShouldBeTrue)
			convey.So(outcome.Posted, convey.ShouldBeFalse)
		})

		convey.Convey("Posting an unknown round is not found", func() {
			_, err := svc.PostRoundForHandicap(ctx, "missing")
			convey.So(errors.Is(err, repository.ErrNotFound), convey.ShouldBeTrue)
		})

		convey.Convey("Posting the same round twice conflicts", func() {
			id, err := svc.SubmitRound(ctx, fullRound("p1", "e1", 90, base))
			convey.So(err, convey.ShouldBeNil)

			_, err = svc.PostRoundForHandicap(ctx, id)
			convey.So(err, convey.ShouldBeNil)

			_, err = svc.PostRoundForHandicap(ctx, id)
			convey.So(errors.Is(err, repository.ErrAlreadyPosted), convey.ShouldBeTrue)
		})

		convey.Convey("Five posted rounds establish the index", func() {
			grosses := []int{90, 88, 85, 92, 87}
			var lastIndex *float64
			for i, gross := range grosses {
				id, err := svc.SubmitRound(ctx, fullRound("p2", "e2", gross, base.AddDate(0, 0, i)))
				convey.So(err, convey.ShouldBeNil)

				outcome, err := svc.PostRoundForHandicap(ctx, id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(outcome.Posted, convey.ShouldBeTrue)
				convey.So(outcome.CourseHandicap, convey.ShouldEqual, 0) // no index yet at post time
				lastIndex = outcome.HandicapIndex

				if i < 4 {
					convey.So(outcome.HandicapIndex, convey.ShouldBeNil)
				}
			}

			// Best differential of {18.0, 16.0, 13.0, 20.0, 15.0}.
			convey.So(lastIndex, convey.ShouldNotBeNil)
			convey.So(*lastIndex, convey.ShouldEqual, 13.0)

			convey.Convey("The summary reflects the established index", func() {
				summary, err := svc.PlayerHandicap(ctx, "p2")
				convey.So(err, convey.ShouldBeNil)
				convey.So(summary.Index, convey.ShouldNotBeNil)
				convey.So(*summary.Index, convey.ShouldEqual, 13.0)
				convey.So(summary.ScoresUsed, convey.ShouldEqual, 1)
				convey.So(summary.History, convey.ShouldHaveLength, 1)
			})

			convey.Convey("The next posting uses the index for the course handicap", func() {
				id, err := svc.SubmitRound(ctx, fullRound("p2", "e2", 89, base.AddDate(0, 0, 10)))
				convey.So(err, convey.ShouldBeNil)

				outcome, err := svc.PostRoundForHandicap(ctx, id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(outcome.CourseHandicap, convey.ShouldEqual, 13)
			})

			convey.Convey("An admin recompute is idempotent", func() {
				summary, err := svc.RecomputePlayer(ctx, "p2")
				convey.So(err, convey.ShouldBeNil)
				convey.So(summary.Index, convey.ShouldNotBeNil)
				convey.So(*summary.Index, convey.ShouldEqual, 13.0)
				// No new history entry when the index is unchanged.
				convey.So(summary.History, convey.ShouldHaveLength, 1)
			})
		})

		convey.Convey("A player with no index is not established", func() {
			summary, err := svc.PlayerHandicap(ctx, "nobody")
			convey.So(err, convey.ShouldBeNil)
			convey.So(summary.Index, convey.ShouldBeNil)
			convey.So(summary.History, convey.ShouldBeEmpty)
		})
	})
}

func TestLeaderboardQueries(t *testing.T) {
	convey.Convey("Given a service with event rounds", t, func() {
		ctx := context.Background()
		svc := startService(t)
		base := time.Date(2026, time.June, 6, 8, 0, 0, 0, time.UTC)

		for i, tc := range []struct {
			player string
			gross  int
		}{
			{"a", 82},
			{"b", 75},
			{"c", 78},
		} {
			_, err := svc.SubmitRound(ctx, fullRound(tc.player, "open-day", tc.gross, base.Add(time.Duration(i)*time.Minute)))
			convey.So(err, convey.ShouldBeNil)
		}

		convey.Convey("The leaderboard is derived fresh on request", func() {
			entries, err := svc.EventLeaderboard(ctx, "open-day", standings.SortNet)
			convey.So(err, convey.ShouldBeNil)
			convey.So(entries, convey.ShouldHaveLength, 3)
			convey.So(entries[0].PlayerID, convey.ShouldEqual, "b")
			convey.So(entries[0].Position, convey.ShouldEqual, 1)
		})

		convey.Convey("An unknown event yields an empty table", func() {
			entries, err := svc.EventLeaderboard(ctx, "nothing-here", standings.SortNet)
			convey.So(err, convey.ShouldBeNil)
			convey.So(entries, convey.ShouldBeEmpty)
		})

		convey.Convey("Season standings cover the submitted rounds", func() {
			entries, err := svc.SeasonStandings(ctx, 2026, standings.SortGross, 0)
			convey.So(err, convey.ShouldBeNil)
			convey.So(entries, convey.ShouldHaveLength, 3)
			convey.So(entries[0].PlayerID, convey.ShouldEqual, "b")

			convey.Convey("And the wrong year is empty", func() {
				entries, err := svc.SeasonStandings(ctx, 2020, standings.SortGross, 0)
				convey.So(err, convey.ShouldBeNil)
				convey.So(entries, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("Workers eventually refresh the event snapshot", func() {
			deadline := time.Now().Add(2 * time.Second)
			var ok bool
			for time.Now().Before(deadline) {
				if _, ok = svc.Snapshot("open-day"); ok {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			convey.So(ok, convey.ShouldBeTrue)
		})
	})
}

func TestNotifications(t *testing.T) {
	convey.Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc := startService(t)

		convey.Convey("Change notifications are accepted", func() {
			convey.So(svc.NotifyRoundChanged(ctx, "evt"), convey.ShouldBeTrue)
		})

		convey.Convey("Stats expose the operational state", func() {
			stats := svc.GetStats()
			convey.So(stats["started"], convey.ShouldBeTrue)
			convey.So(stats, convey.ShouldContainKey, "queueLength")
			convey.So(stats, convey.ShouldContainKey, "totalPlayers")
			convey.So(stats, convey.ShouldContainKey, "pendingRecomputes")
		})
	})
}
