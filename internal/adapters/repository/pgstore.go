package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/clubhouselabs/fairway/internal/domain/model"
)

// PGStore implements Store on PostgreSQL via bun.
type PGStore struct {
	db *bun.DB
}

// NewPGStore opens a PostgreSQL connection, verifies it and ensures the
// schema exists.
func NewPGStore(ctx context.Context, dsn string, debug bool) (*PGStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &PGStore{db: db}
	if err := s.createTables(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// createTables creates all tables in dependency order.
func (s *PGStore) createTables(ctx context.Context) error {
	tables := []interface{}{
		(*roundRow)(nil),
		(*playerIndexRow)(nil),
		(*historyRow)(nil),
	}
	for _, table := range tables {
		if _, err := s.db.NewCreateTable().Model(table).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", table, err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PGStore) Close() error {
	return s.db.Close()
}

// SaveRound persists a submitted round.
func (s *PGStore) SaveRound(ctx context.Context, round *model.Round) error {
	if _, err := s.db.NewInsert().Model(rowFromModel(round)).Exec(ctx); err != nil {
		return fmt.Errorf("save round: %w", err)
	}
	return nil
}

// Round returns a round by id.
func (s *PGStore) Round(ctx context.Context, id string) (model.Round, error) {
	row := new(roundRow)
	err := s.db.NewSelect().Model(row).Where("r.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Round{}, fmt.Errorf("round %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Round{}, fmt.Errorf("fetch round: %w", err)
	}
	return row.toModel(), nil
}

// MarkRoundPosted writes the posting snapshot onto a round.
func (s *PGStore) MarkRoundPosted(ctx context.Context, roundID string, data PostingData) error {
	res, err := s.db.NewUpdate().Model((*roundRow)(nil)).
		Set("posted = TRUE").
		Set("course_handicap = ?", data.CourseHandicap).
		Set("adjusted_gross = ?", data.AdjustedGross).
		Set("score_differential = ?", data.ScoreDifferential).
		Where("id = ?", roundID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark round posted: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("round %s: %w", roundID, ErrNotFound)
	}
	return nil
}

// PostedDifferentials returns posted rounds for a player, newest first.
func (s *PGStore) PostedDifferentials(ctx context.Context, playerID string) ([]model.DifferentialRecord, error) {
	var rows []roundRow
	err := s.db.NewSelect().Model(&rows).
		Where("r.player_id = ?", playerID).
		Where("r.posted = TRUE").
		Order("played_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch posted rounds: %w", err)
	}

	records := make([]model.DifferentialRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, model.DifferentialRecord{
			AdjustedGross: r.AdjustedGross,
			CourseRating:  r.CourseRating,
			SlopeRating:   r.SlopeRating,
			PlayedAt:      r.PlayedAt,
			Differential:  r.ScoreDifferential,
		})
	}
	return records, nil
}

// PlayerIndex returns a player's current handicap index.
func (s *PGStore) PlayerIndex(ctx context.Context, playerID string) (float64, bool, error) {
	row := new(playerIndexRow)
	err := s.db.NewSelect().Model(row).Where("ph.player_id = ?", playerID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("fetch player index: %w", err)
	}
	return row.Index, true, nil
}

// SetPlayerIndex upserts a player's current handicap index.
func (s *PGStore) SetPlayerIndex(ctx context.Context, playerID string, index float64) error {
	row := &playerIndexRow{PlayerID: playerID, Index: index, UpdatedAt: nowUTC()}
	_, err := s.db.NewInsert().Model(row).
		On("CONFLICT (player_id) DO UPDATE").
		Set("handicap_index = EXCLUDED.handicap_index").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set player index: %w", err)
	}
	return nil
}

// AppendIndexHistory appends an immutable history snapshot.
func (s *PGStore) AppendIndexHistory(ctx context.Context, entry model.HandicapHistoryEntry) error {
	row := &historyRow{
		ID:         entry.ID,
		PlayerID:   entry.PlayerID,
		Index:      entry.Index,
		RecordedAt: entry.RecordedAt,
		RoundsUsed: entry.RoundsUsed,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("append index history: %w", err)
	}
	return nil
}

// IndexHistory returns a player's history entries, oldest first.
func (s *PGStore) IndexHistory(ctx context.Context, playerID string) ([]model.HandicapHistoryEntry, error) {
	var rows []historyRow
	err := s.db.NewSelect().Model(&rows).
		Where("hh.player_id = ?", playerID).
		Order("recorded_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch index history: %w", err)
	}

	entries := make([]model.HandicapHistoryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, model.HandicapHistoryEntry{
			ID:         r.ID,
			PlayerID:   r.PlayerID,
			Index:      r.Index,
			RecordedAt: r.RecordedAt,
			RoundsUsed: r.RoundsUsed,
		})
	}
	return entries, nil
}

// RoundsForEvent returns the aggregation shape for all rounds of an event.
func (s *PGStore) RoundsForEvent(ctx context.Context, eventID string) ([]model.EventRound, error) {
	var rows []roundRow
	err := s.db.NewSelect().Model(&rows).
		Where("r.event_id = ?", eventID).
		Order("played_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch event rounds: %w", err)
	}
	return eventRounds(rows), nil
}

// RoundsForSeason returns all rounds, filtered to a calendar year when year > 0.
func (s *PGStore) RoundsForSeason(ctx context.Context, year int) ([]model.EventRound, error) {
	var rows []roundRow
	q := s.db.NewSelect().Model(&rows).Order("played_at ASC")
	if year > 0 {
		q = q.Where("EXTRACT(YEAR FROM r.played_at) = ?", year)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fetch season rounds: %w", err)
	}
	return eventRounds(rows), nil
}

// PlayerCount returns the number of players with at least one round.
func (s *PGStore) PlayerCount(ctx context.Context) int {
	var count int
	err := s.db.NewSelect().Model((*roundRow)(nil)).
		ColumnExpr("count(DISTINCT player_id)").
		Scan(ctx, &count)
	if err != nil {
		return 0
	}
	return count
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func eventRounds(rows []roundRow) []model.EventRound {
	out := make([]model.EventRound, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEventRound())
	}
	return out
}
