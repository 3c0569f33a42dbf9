package repository

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/clubhouselabs/fairway/internal/domain/model"
)

// roundRow is the Postgres row shape for a round. Hole scores are kept as
// a jsonb blob; nothing queries individual holes.
type roundRow struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`

	ID           string            `bun:"id,pk"`
	PlayerID     string            `bun:"player_id,notnull"`
	PlayerName   string            `bun:"player_name,notnull"`
	EventID      string            `bun:"event_id"`
	CourseID     string            `bun:"course_id"`
	TeeBox       string            `bun:"tee_box"`
	PlayedAt     time.Time         `bun:"played_at,notnull"`
	Holes        []model.HoleScore `bun:"holes,type:jsonb"`
	CourseRating float64           `bun:"course_rating,notnull"`
	SlopeRating  int               `bun:"slope_rating,notnull"`
	Par          int               `bun:"par"`
	GrossScore   int               `bun:"gross_score,notnull"`

	Posted            bool    `bun:"posted,notnull,default:false"`
	CourseHandicap    int     `bun:"course_handicap"`
	AdjustedGross     int     `bun:"adjusted_gross"`
	ScoreDifferential float64 `bun:"score_differential"`
}

// playerIndexRow holds a player's current handicap index.
type playerIndexRow struct {
	bun.BaseModel `bun:"table:player_handicaps,alias:ph"`

	PlayerID  string    `bun:"player_id,pk"`
	Index     float64   `bun:"handicap_index,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// historyRow is one immutable handicap history snapshot.
type historyRow struct {
	bun.BaseModel `bun:"table:handicap_history,alias:hh"`

	ID         string    `bun:"id,pk"`
	PlayerID   string    `bun:"player_id,notnull"`
	Index      float64   `bun:"handicap_index,notnull"`
	RecordedAt time.Time `bun:"recorded_at,notnull"`
	RoundsUsed int       `bun:"rounds_used,notnull"`
}

func (r roundRow) toModel() model.Round {
	return model.Round{
		ID:                r.ID,
		PlayerID:          r.PlayerID,
		PlayerName:        r.PlayerName,
		EventID:           r.EventID,
		CourseID:          r.CourseID,
		TeeBox:            r.TeeBox,
		PlayedAt:          r.PlayedAt,
		Holes:             r.Holes,
		CourseRating:      r.CourseRating,
		SlopeRating:       r.SlopeRating,
		Par:               r.Par,
		GrossScore:        r.GrossScore,
		Posted:            r.Posted,
		CourseHandicap:    r.CourseHandicap,
		AdjustedGross:     r.AdjustedGross,
		ScoreDifferential: r.ScoreDifferential,
	}
}

func (r roundRow) toEventRound() model.EventRound {
	er := model.EventRound{
		RoundID:    r.ID,
		PlayerID:   r.PlayerID,
		PlayerName: r.PlayerName,
		GrossScore: r.GrossScore,
		Par:        r.Par,
		PlayedAt:   r.PlayedAt,
	}
	if r.Posted {
		ch := r.CourseHandicap
		er.CourseHandicap = &ch
	}
	return er
}

func rowFromModel(m *model.Round) *roundRow {
	return &roundRow{
		ID:                m.ID,
		PlayerID:          m.PlayerID,
		PlayerName:        m.PlayerName,
		EventID:           m.EventID,
		CourseID:          m.CourseID,
		TeeBox:            m.TeeBox,
		PlayedAt:          m.PlayedAt,
		Holes:             m.Holes,
		CourseRating:      m.CourseRating,
		SlopeRating:       m.SlopeRating,
		Par:               m.Par,
		GrossScore:        m.GrossScore,
		Posted:            m.Posted,
		CourseHandicap:    m.CourseHandicap,
		AdjustedGross:     m.AdjustedGross,
		ScoreDifferential: m.ScoreDifferential,
	}
}
