package seeder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clubhouselabs/fairway/pkg/logger"
)

// HTTPClient wraps http.Client with a timeout and optional bearer token.
type HTTPClient struct {
	client *http.Client
	token  string
}

// newHTTPClient creates a new HTTP client.
func newHTTPClient(timeout time.Duration, token string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
		token:  token,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body. A nil body sends no payload.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	return c.client.Do(req)
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// marshalRound marshals a round payload for the output file.
func marshalRound(r RoundPayload) ([]byte, error) {
	return json.Marshal(r)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitRounds submits rounds concurrently and collects the assigned ids.
func submitRounds(ctx context.Context, config *Config, rounds []RoundPayload, stats *Stats) ([]string, error) {
	logger.Get().Info(ctx, "submitting rounds",
		logger.Int("count", len(rounds)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout, config.Token)
	url := config.BaseURL + "/rounds"

	var (
		successful int64
		failed     int64
		submitted  int64
	)

	ids := make([]string, len(rounds))
	roundChan := make(chan int, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range roundChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				id, err := submitSingleRound(ctx, client, url, rounds[idx])
				atomic.AddInt64(&submitted, 1)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						logger.Get().Warn(ctx, "round submission failed", logger.Error(err))
					}
					continue
				}
				ids[idx] = id
				atomic.AddInt64(&successful, 1)
			}
		}()
	}

	go func() {
		defer close(roundChan)
		for i := range rounds {
			select {
			case <-ctx.Done():
				return
			case roundChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.RoundsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RoundsSuccessful = int(atomic.LoadInt64(&successful))
	stats.RoundsFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "round submission completed",
		logger.Int("successful", stats.RoundsSuccessful),
		logger.Int("failed", stats.RoundsFailed))

	return ids, nil
}

// submitSingleRound submits one round and returns the assigned id.
func submitSingleRound(ctx context.Context, client *HTTPClient, url string, round RoundPayload) (string, error) {
	resp, err := client.Post(ctx, url, round)
	if err != nil {
		return "", err
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var ack AckResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		return "", fmt.Errorf("failed to parse ack: %w", err)
	}
	return ack.ID, nil
}

// postRounds posts every submitted round for handicap, concurrently.
func postRounds(ctx context.Context, config *Config, ids []string, stats *Stats) error {
	logger.Get().Info(ctx, "posting rounds for handicap", logger.Int("count", len(ids)))

	client := newHTTPClient(config.Timeout, config.Token)

	var (
		posted int64
		failed int64
	)

	idChan := make(chan string, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				url := config.BaseURL + "/rounds/" + id + "/post"
				resp, err := client.Post(ctx, url, nil)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				_, _ = readResponseBody(resp)
				if resp.StatusCode == http.StatusOK {
					atomic.AddInt64(&posted, 1)
				} else {
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(idChan)
		for _, id := range ids {
			if id == "" {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case idChan <- id:
			}
		}
	}()

	wg.Wait()

	stats.RoundsPosted = int(atomic.LoadInt64(&posted))
	stats.PostingsFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "round posting completed",
		logger.Int("posted", stats.RoundsPosted),
		logger.Int("failed", stats.PostingsFailed))

	return nil
}

// getLeaderboard fetches the event leaderboard.
func getLeaderboard(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	client := newHTTPClient(config.Timeout, config.Token)
	url := config.BaseURL + "/events/" + config.EventID + "/leaderboard?sort=net"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leaderboard returned status %d", resp.StatusCode)
	}

	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse leaderboard: %w", err)
	}

	stats.LeaderboardEntries = len(entries)
	return entries, nil
}

// getStandings fetches the season standings.
func getStandings(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	client := newHTTPClient(config.Timeout, config.Token)
	url := config.BaseURL + "/standings?sort=net"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch standings: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("standings returned status %d", resp.StatusCode)
	}

	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse standings: %w", err)
	}

	stats.StandingsEntries = len(entries)
	return entries, nil
}
