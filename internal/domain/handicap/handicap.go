// Package handicap computes World Handicap System values: score
// differentials, Equitable Stroke Control adjusted gross scores, course
// handicaps and the handicap index itself.
package handicap

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/clubhouselabs/fairway/internal/domain/model"
)

// WHS constants.
const (
	StandardSlope = 113 // slope of a course of standard difficulty
	HolesPerRound = 18
	MinRounds     = 5  // minimum posted rounds before an index exists
	MaxHistory    = 20 // only the most recent rounds count
	DefaultPar    = 72

	MinCourseRating = 60.0
	MaxCourseRating = 80.0
	MinSlopeRating  = 55
	MaxSlopeRating  = 155
)

// ESC cap constants for the absolute (non par-relative) bands.
const (
	escCapTen       = 7
	escCapTwenty    = 8
	escCapThirty    = 9
	escCapUnlimited = 10
)

// Computation is the result of an index recomputation.
type Computation struct {
	Index               float64
	ScoresUsed          int       // N, the number of differentials averaged
	Used                []float64 // the averaged (lowest) differentials, ascending
	AverageDifferential float64   // equals Index; kept for display symmetry
}

// ScoreDifferential computes a round's differential:
// (113 / slope) * (adjustedGross - courseRating), one decimal place.
// Caller guarantees slopeRating > 0.
func ScoreDifferential(adjustedGross int, courseRating float64, slopeRating int) float64 {
	d := decimal.NewFromInt(StandardSlope).
		Div(decimal.NewFromInt(int64(slopeRating))).
		Mul(decimal.NewFromInt(int64(adjustedGross)).Sub(decimal.NewFromFloat(courseRating)))
	f, _ := d.Round(1).Float64()
	return f
}

// escCap returns the maximum strokes countable on a hole for the given
// course handicap under Equitable Stroke Control.
func escCap(par, courseHandicap int) int {
	switch {
	case courseHandicap <= 9:
		return par + 2 // double bogey
	case courseHandicap <= 19:
		return escCapTen
	case courseHandicap <= 29:
		return escCapTwenty
	case courseHandicap <= 39:
		return escCapThirty
	default:
		return escCapUnlimited
	}
}

// AdjustedGrossScore applies Equitable Stroke Control hole by hole and
// returns the capped sum. Slices must be the same length.
func AdjustedGrossScore(strokes, pars []int, courseHandicap int) (int, error) {
	if len(strokes) != len(pars) {
		return 0, fmt.Errorf("%w: %d strokes vs %d pars", ErrInvalidInput, len(strokes), len(pars))
	}
	sum := 0
	for i := range strokes {
		if limit := escCap(pars[i], courseHandicap); strokes[i] > limit {
			sum += limit
		} else {
			sum += strokes[i]
		}
	}
	return sum, nil
}

// CourseHandicap converts an index to strokes received at a tee box:
// round(index * slope/113 + (rating - par)), half away from zero.
// Negative results are meaningful and not clamped. A par of 0 falls back
// to DefaultPar.
func CourseHandicap(index float64, slopeRating int, courseRating float64, par int) int {
	if par <= 0 {
		par = DefaultPar
	}
	v := decimal.NewFromFloat(index).
		Mul(decimal.NewFromInt(int64(slopeRating))).
		Div(decimal.NewFromInt(StandardSlope)).
		Add(decimal.NewFromFloat(courseRating).Sub(decimal.NewFromInt(int64(par))))
	return int(v.Round(0).IntPart())
}

// scoresToUse returns N, the number of lowest differentials averaged for
// a history of r retained rounds (r is at least MinRounds here).
func scoresToUse(r int) int {
	switch {
	case r <= 6:
		return 1
	case r <= 8:
		return 2
	case r <= 11:
		return 3
	case r <= 14:
		return 4
	case r <= 16:
		return 5
	case r <= 18:
		return 6
	case r == 19:
		return 7
	default:
		return 8
	}
}

// Index computes a player's handicap index from their posted rounds.
// Returns nil while fewer than MinRounds records exist (no index can be
// established). Only the most recent MaxHistory rounds by play date are
// considered.
func Index(records []model.DifferentialRecord) *Computation {
	if len(records) < MinRounds {
		return nil
	}

	recent := make([]model.DifferentialRecord, len(records))
	copy(recent, records)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].PlayedAt.After(recent[j].PlayedAt)
	})
	if len(recent) > MaxHistory {
		recent = recent[:MaxHistory]
	}

	diffs := make([]float64, len(recent))
	for i, rec := range recent {
		diffs[i] = ScoreDifferential(rec.AdjustedGross, rec.CourseRating, rec.SlopeRating)
	}
	sort.Float64s(diffs)

	n := scoresToUse(len(recent))
	used := diffs[:n]

	sum := decimal.Zero
	for _, d := range used {
		sum = sum.Add(decimal.NewFromFloat(d))
	}
	// Raw average of the best N. The official WHS 0.96 multiplier is
	// intentionally not applied; the league publishes the raw average.
	avg, _ := sum.Div(decimal.NewFromInt(int64(n))).Round(1).Float64()

	return &Computation{
		Index:               avg,
		ScoresUsed:          n,
		Used:                used,
		AverageDifferential: avg,
	}
}

// Eligible reports whether a round can be posted for handicap. Ineligible
// rounds are a normal outcome, not an error.
func Eligible(numberOfHoles int, courseRating float64, slopeRating int) bool {
	if numberOfHoles != HolesPerRound {
		return false
	}
	if courseRating < MinCourseRating || courseRating > MaxCourseRating {
		return false
	}
	if slopeRating < MinSlopeRating || slopeRating > MaxSlopeRating {
		return false
	}
	return true
}
