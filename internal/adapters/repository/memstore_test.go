package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/clubhouselabs/fairway/internal/domain/model"
)

func storedRound(id, playerID, eventID string, playedAt time.Time) *model.Round {
	return &model.Round{
		ID:           id,
		PlayerID:     playerID,
		PlayerName:   "Player " + playerID,
		EventID:      eventID,
		CourseID:     "course-1",
		PlayedAt:     playedAt,
		CourseRating: 71.3,
		SlopeRating:  125,
		Par:          72,
		GrossScore:   88,
	}
}

func TestMemStoreRounds(t *testing.T) {
	convey.Convey("Given an in-memory store", t, func() {
		ctx := context.Background()
		store := NewMemStore(ctx)
		playedAt := time.Date(2026, time.April, 12, 9, 0, 0, 0, time.UTC)

		convey.Convey("Saved rounds can be fetched back", func() {
			convey.So(store.SaveRound(ctx, storedRound("r1", "p1", "e1", playedAt)), convey.ShouldBeNil)

			got, err := store.Round(ctx, "r1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.PlayerID, convey.ShouldEqual, "p1")
			convey.So(got.Posted, convey.ShouldBeFalse)
		})

		convey.Convey("Fetching an unknown round is ErrNotFound", func() {
			_, err := store.Round(ctx, "missing")
			convey.So(errors.Is(err, ErrNotFound), convey.ShouldBeTrue)
		})

		convey.Convey("Saving a round without an id fails", func() {
			convey.So(store.SaveRound(ctx, &model.Round{}), convey.ShouldNotBeNil)
			convey.So(store.SaveRound(ctx, nil), convey.ShouldNotBeNil)
		})

		convey.Convey("Marking posted snapshots the posting data", func() {
			convey.So(store.SaveRound(ctx, storedRound("r1", "p1", "e1", playedAt)), convey.ShouldBeNil)

			data := PostingData{CourseHandicap: 14, AdjustedGross: 86, ScoreDifferential: 13.3}
			convey.So(store.MarkRoundPosted(ctx, "r1", data), convey.ShouldBeNil)

			got, err := store.Round(ctx, "r1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Posted, convey.ShouldBeTrue)
			convey.So(got.CourseHandicap, convey.ShouldEqual, 14)
			convey.So(got.AdjustedGross, convey.ShouldEqual, 86)
			convey.So(got.ScoreDifferential, convey.ShouldEqual, 13.3)
		})

		convey.Convey("Marking an unknown round posted is ErrNotFound", func() {
			err := store.MarkRoundPosted(ctx, "missing", PostingData{})
			convey.So(errors.Is(err, ErrNotFound), convey.ShouldBeTrue)
		})
	})
}

func TestMemStoreDifferentials(t *testing.T) {
	convey.Convey("Given posted and unposted rounds for a player", t, func() {
		ctx := context.Background()
		store := NewMemStore(ctx)
		base := time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)

		for i, id := range []string{"r1", "r2", "r3"} {
			convey.So(store.SaveRound(ctx, storedRound(id, "p1", "e1", base.AddDate(0, 0, i))), convey.ShouldBeNil)
		}
		convey.So(store.MarkRoundPosted(ctx, "r1", PostingData{AdjustedGross: 88, ScoreDifferential: 15.1}), convey.ShouldBeNil)
		convey.So(store.MarkRoundPosted(ctx, "r3", PostingData{AdjustedGross: 85, ScoreDifferential: 12.4}), convey.ShouldBeNil)

		convey.Convey("Only posted rounds produce differentials, newest first", func() {
			records, err := store.PostedDifferentials(ctx, "p1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(records, convey.ShouldHaveLength, 2)
			convey.So(records[0].AdjustedGross, convey.ShouldEqual, 85)
			convey.So(records[1].AdjustedGross, convey.ShouldEqual, 88)
		})

		convey.Convey("Other players see nothing", func() {
			records, err := store.PostedDifferentials(ctx, "p2")
			convey.So(err, convey.ShouldBeNil)
			convey.So(records, convey.ShouldBeEmpty)
		})
	})
}

func TestMemStoreIndex(t *testing.T) {
	convey.Convey("Given the index and history tables", t, func() {
		ctx := context.Background()
		store := NewMemStore(ctx)

		convey.Convey("An unknown player has no index", func() {
			_, ok, err := store.PlayerIndex(ctx, "p1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("A set index reads back", func() {
			convey.So(store.SetPlayerIndex(ctx, "p1", 13.0), convey.ShouldBeNil)

			idx, ok, err := store.PlayerIndex(ctx, "p1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(idx, convey.ShouldEqual, 13.0)
		})

		convey.Convey("History comes back oldest first", func() {
			base := time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)
			convey.So(store.AppendIndexHistory(ctx, model.HandicapHistoryEntry{
				ID: "h2", PlayerID: "p1", Index: 12.4, RecordedAt: base.AddDate(0, 0, 1), RoundsUsed: 6,
			}), convey.ShouldBeNil)
			convey.So(store.AppendIndexHistory(ctx, model.HandicapHistoryEntry{
				ID: "h1", PlayerID: "p1", Index: 13.0, RecordedAt: base, RoundsUsed: 5,
			}), convey.ShouldBeNil)

			entries, err := store.IndexHistory(ctx, "p1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(entries, convey.ShouldHaveLength, 2)
			convey.So(entries[0].ID, convey.ShouldEqual, "h1")
			convey.So(entries[1].ID, convey.ShouldEqual, "h2")
		})
	})
}

func TestMemStoreAggregation(t *testing.T) {
	convey.Convey("Given rounds across events and seasons", t, func() {
		ctx := context.Background()
		store := NewMemStore(ctx)

		may := time.Date(2026, time.May, 9, 8, 0, 0, 0, time.UTC)
		lastYear := time.Date(2025, time.August, 2, 8, 0, 0, 0, time.UTC)

		convey.So(store.SaveRound(ctx, storedRound("r1", "p1", "e1", may)), convey.ShouldBeNil)
		convey.So(store.SaveRound(ctx, storedRound("r2", "p2", "e1", may.Add(time.Hour))), convey.ShouldBeNil)
		convey.So(store.SaveRound(ctx, storedRound("r3", "p1", "e2", lastYear)), convey.ShouldBeNil)

		convey.Convey("RoundsForEvent filters by event and orders by play time", func() {
			rounds, err := store.RoundsForEvent(ctx, "e1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(rounds, convey.ShouldHaveLength, 2)
			convey.So(rounds[0].RoundID, convey.ShouldEqual, "r1")
			convey.So(rounds[1].RoundID, convey.ShouldEqual, "r2")
		})

		convey.Convey("The handicap snapshot is only exposed once posted", func() {
			rounds, err := store.RoundsForEvent(ctx, "e1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(rounds[0].CourseHandicap, convey.ShouldBeNil)

			convey.So(store.MarkRoundPosted(ctx, "r1", PostingData{CourseHandicap: 9}), convey.ShouldBeNil)
			rounds, err = store.RoundsForEvent(ctx, "e1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(rounds[0].CourseHandicap, convey.ShouldNotBeNil)
			convey.So(*rounds[0].CourseHandicap, convey.ShouldEqual, 9)
		})

		convey.Convey("RoundsForSeason filters by calendar year", func() {
			rounds, err := store.RoundsForSeason(ctx, 2026)
			convey.So(err, convey.ShouldBeNil)
			convey.So(rounds, convey.ShouldHaveLength, 2)

			rounds, err = store.RoundsForSeason(ctx, 2025)
			convey.So(err, convey.ShouldBeNil)
			convey.So(rounds, convey.ShouldHaveLength, 1)
			convey.So(rounds[0].RoundID, convey.ShouldEqual, "r3")
		})

		convey.Convey("Year zero means the whole history", func() {
			rounds, err := store.RoundsForSeason(ctx, 0)
			convey.So(err, convey.ShouldBeNil)
			convey.So(rounds, convey.ShouldHaveLength, 3)
		})

		convey.Convey("PlayerCount counts distinct players", func() {
			convey.So(store.PlayerCount(ctx), convey.ShouldEqual, 2)
		})
	})
}
