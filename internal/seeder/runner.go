package seeder

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/clubhouselabs/fairway/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete seeding flow: generate a field of players,
// submit their rounds, post them for handicap, then read back the
// leaderboard and standings.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting league seeder",
		logger.String("baseURL", config.BaseURL),
		logger.Int("players", config.NumPlayers),
		logger.Int("roundsPerPlayer", config.RoundsPerPlayer),
		logger.String("eventID", config.EventID),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate rounds
	rounds, err := generateRounds(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("round generation failed: %w", err)
	}

	// Step 3: Submit rounds concurrently
	ids, err := submitRounds(ctx, config, rounds, stats)
	if err != nil {
		return fmt.Errorf("round submission failed: %w", err)
	}

	// Step 4: Post every round for handicap
	if err := postRounds(ctx, config, ids, stats); err != nil {
		return fmt.Errorf("round posting failed: %w", err)
	}

	// Step 5: Read back the event leaderboard
	leaderboard, err := getLeaderboard(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	// Step 6: Read back the season standings
	standings, err := getStandings(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("standings retrieval failed: %w", err)
	}

	// Step 7: Sanity-check the results
	if err := verifyResults(ctx, config, leaderboard, standings); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Save rounds to file
	if err := saveRoundsToFile(ctx, config, rounds); err != nil {
		logger.Get().Warn(ctx, "failed to save rounds to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "seeding completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout, "")
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// verifyResults checks that the read models reflect the seeded field.
func verifyResults(ctx context.Context, config *Config, leaderboard, standings []Entry) error {
	if config.EventID != "" && len(leaderboard) == 0 {
		return fmt.Errorf("leaderboard is empty after seeding event %s", config.EventID)
	}
	if len(standings) == 0 {
		return fmt.Errorf("standings are empty after seeding")
	}

	// Positions must be non-decreasing top to bottom.
	for i := 1; i < len(leaderboard); i++ {
		if leaderboard[i].Position < leaderboard[i-1].Position {
			return fmt.Errorf("leaderboard positions out of order at row %d", i)
		}
	}

	logger.Get().Info(ctx, "results verified",
		logger.Int("leaderboardEntries", len(leaderboard)),
		logger.Int("standingsEntries", len(standings)))
	return nil
}

// saveRoundsToFile saves the generated rounds to a JSON file.
func saveRoundsToFile(ctx context.Context, config *Config, rounds []RoundPayload) error {
	if len(rounds) == 0 {
		return fmt.Errorf("no rounds to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_rounds_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, round := range rounds {
		jsonData, err := marshalRound(round)
		if err != nil {
			return fmt.Errorf("failed to marshal round %d: %w", i, err)
		}
		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write round %d: %w", i, err)
		}
		if i < len(rounds)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "rounds saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final seeding statistics.
func displayFinalStats(stats *Stats) {
	var successRate, roundsPerSecond float64

	if stats.RoundsSubmitted > 0 {
		successRate = float64(stats.RoundsSuccessful) / float64(stats.RoundsSubmitted) * 100
	}
	if stats.Duration > 0 {
		roundsPerSecond = float64(stats.RoundsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("roundsGenerated", stats.RoundsGenerated),
		logger.Int("roundsSubmitted", stats.RoundsSubmitted),
		logger.Int("roundsSuccessful", stats.RoundsSuccessful),
		logger.Int("roundsFailed", stats.RoundsFailed),
		logger.Int("roundsPosted", stats.RoundsPosted),
		logger.Int("postingsFailed", stats.PostingsFailed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Int("standingsEntries", stats.StandingsEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("roundsPerSecond", roundsPerSecond))
}
