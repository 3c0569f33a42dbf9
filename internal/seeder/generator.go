package seeder

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/clubhouselabs/fairway/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	abilityDivisor     = 5
	holesPerRound      = 18
	defaultPar         = 72
	defaultSlope       = 125
	defaultRating      = 71.3
)

// Ability bands describe how far above par a player's holes run.
const (
	caseScratch = 0 // around even par
	caseLow     = 1 // a few over
	caseMid     = 2 // bogey golf
	caseHigh    = 3 // double-bogey territory
	caseWild    = 4 // anything goes
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func randomInt(limit int64) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(limit))
	return int(n.Int64())
}

// player pairs a stable identity with a scoring ability band.
type player struct {
	id      string
	name    string
	ability int
}

// generateRounds creates rounds for a field of unique players. Each player
// gets RoundsPerPlayer rounds played on consecutive days so the posting
// order is deterministic.
func generateRounds(ctx context.Context, config *Config, stats *Stats) ([]RoundPayload, error) {
	logger.Get().Info(ctx, "generating rounds",
		logger.Int("players", config.NumPlayers),
		logger.Int("roundsPerPlayer", config.RoundsPerPlayer))

	players := make([]player, config.NumPlayers)
	for i := range players {
		players[i] = player{
			id:      uuid.New().String(),
			name:    "Player " + strconv.Itoa(i+1),
			ability: randomInt(abilityDivisor),
		}
	}

	rounds := make([]RoundPayload, 0, config.NumPlayers*config.RoundsPerPlayer)
	start := time.Now().UTC().AddDate(0, 0, -config.RoundsPerPlayer)

	for _, p := range players {
		for r := 0; r < config.RoundsPerPlayer; r++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			rounds = append(rounds, generateSingleRound(p, config.EventID, start.AddDate(0, 0, r)))
		}
	}

	stats.RoundsGenerated = len(rounds)
	logger.Get().Info(ctx, "generated rounds successfully", logger.Int("count", len(rounds)))

	return rounds, nil
}

// generateSingleRound builds one full 18-hole round for a player.
func generateSingleRound(p player, eventID string, playedAt time.Time) RoundPayload {
	holes := make([]HoleScore, holesPerRound)
	for i := range holes {
		par := holePar(i)
		holes[i] = HoleScore{Strokes: holeStrokes(par, p.ability), Par: par}
	}

	return RoundPayload{
		PlayerID:     p.id,
		PlayerName:   p.name,
		EventID:      eventID,
		CourseID:     "course_seed",
		TeeBox:       "white",
		PlayedAt:     playedAt.Format(time.RFC3339),
		Holes:        holes,
		CourseRating: defaultRating,
		SlopeRating:  defaultSlope,
		Par:          defaultPar,
	}
}

// holePar lays out a standard par-72 card: four 3s, four 5s, ten 4s.
func holePar(hole int) int {
	switch hole % 9 {
	case 2, 7:
		return 3
	case 4, 8:
		return 5
	default:
		return 4
	}
}

// holeStrokes draws a hole score from the player's ability band.
func holeStrokes(par, ability int) int {
	var over float64
	switch ability {
	case caseScratch:
		over = getRandomFloat() * 1.2
	case caseLow:
		over = 0.3 + getRandomFloat()*1.2
	case caseMid:
		over = 0.8 + getRandomFloat()*1.4
	case caseHigh:
		over = 1.5 + getRandomFloat()*1.8
	case caseWild:
		over = getRandomFloat() * 4.0
	default:
		over = getRandomFloat() * 2.0
	}

	strokes := par + int(over+getRandomFloat()) // fractional part rounds stochastically
	if strokes < 1 {
		strokes = 1
	}
	return strokes
}
