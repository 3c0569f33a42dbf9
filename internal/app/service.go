// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	notifyqueue "github.com/clubhouselabs/fairway/internal/adapters/mq/queue"
	workerpool "github.com/clubhouselabs/fairway/internal/adapters/mq/worker"
	repository "github.com/clubhouselabs/fairway/internal/adapters/repository"
	"github.com/clubhouselabs/fairway/internal/domain/coalesce"
	"github.com/clubhouselabs/fairway/internal/domain/handicap"
	"github.com/clubhouselabs/fairway/internal/domain/model"
	"github.com/clubhouselabs/fairway/internal/domain/standings"
	"github.com/clubhouselabs/fairway/internal/domain/types"
	"github.com/clubhouselabs/fairway/pkg/logger"
	"github.com/clubhouselabs/fairway/pkg/metrics"
)

// Service implements the API dependencies for the league system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store         repository.Store
	coalescer     coalesce.Coalescer
	notifications notifyqueue.Queue
	pool          *workerpool.Pool

	// Per-player posting locks. A player's post-and-recompute sequence is
	// a read-modify-write of their index and must not interleave with
	// itself; different players proceed concurrently.
	postMu    sync.Mutex
	postLocks map[string]*sync.Mutex

	// Leaderboard snapshots kept warm by the recompute workers. Query
	// paths always derive fresh; snapshots exist for stats/inspection.
	snapMu    sync.RWMutex
	snapshots map[string][]types.LeaderboardEntry

	// Configuration
	workerCount  int
	queueSize    int
	coalesceSize int
	defaultPar   int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the storage backend. Defaults to the in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the change-notification queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCoalesceSize pre-sizes the pending-recompute set.
func WithCoalesceSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.coalesceSize = size
		}
	}
}

// WithDefaultPar sets the par assumed when a round carries none.
func WithDefaultPar(par int) Option {
	return func(s *Service) {
		if par > 0 {
			s.defaultPar = par
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    10_000,
		coalesceSize: 1024,
		defaultPar:   handicap.DefaultPar,
		postLocks:    make(map[string]*sync.Mutex),
		snapshots:    make(map[string][]types.LeaderboardEntry),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting league service...")

	if s.store == nil {
		s.store = repository.NewMemStore(ctx)
		s.logger.Info(ctx, "using in-memory store")
	}
	s.coalescer = coalesce.New(coalesce.WithInitialCapacity(s.coalesceSize))
	s.notifications = notifyqueue.NewInMemoryQueue(
		notifyqueue.WithCapacity(s.queueSize),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.notifications, s, s.coalescer)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "league service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("defaultPar", s.defaultPar),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping league service...")

	if s.pool != nil {
		s.pool.Stop()
	}

	if q, ok := s.notifications.(*notifyqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "league service stopped")
}

// playerLock returns the mutex serializing one player's posting sequence.
func (s *Service) playerLock(playerID string) *sync.Mutex {
	s.postMu.Lock()
	defer s.postMu.Unlock()

	l, ok := s.postLocks[playerID]
	if !ok {
		l = &sync.Mutex{}
		s.postLocks[playerID] = l
	}
	return l
}

// SubmitRound stores a completed round. An ID is assigned when absent.
// Submitting does not post the round for handicap.
func (s *Service) SubmitRound(ctx context.Context, round *model.Round) (string, error) {
	if round.ID == "" {
		round.ID = uuid.New().String()
	}
	// Hole scores are authoritative for the gross when present; a
	// gross-only submission keeps the caller's total.
	if len(round.Holes) > 0 {
		gross := 0
		for _, h := range round.Holes {
			gross += h.Strokes
		}
		round.GrossScore = gross
	}

	if err := s.store.SaveRound(ctx, round); err != nil {
		metrics.RecordStoreError()
		return "", fmt.Errorf("submit round: %w", err)
	}
	metrics.RecordRoundSubmitted()

	if round.EventID != "" {
		s.NotifyRoundChanged(ctx, round.EventID)
	}
	return round.ID, nil
}

// PostRoundForHandicap runs the posting sequence for a round: course
// handicap from the player's current index (0 if none), ESC adjusted
// gross, score differential, posting snapshot, then index recompute. A
// recompute that cannot establish an index yet is a normal outcome; the
// round stays posted with its differential.
func (s *Service) PostRoundForHandicap(ctx context.Context, roundID string) (types.PostOutcome, error) {
	round, err := s.store.Round(ctx, roundID)
	if err != nil {
		metrics.RecordStoreError()
		return types.PostOutcome{}, fmt.Errorf("post round: %w", err)
	}
	if round.Posted {
		return types.PostOutcome{}, fmt.Errorf("post round %s: %w", roundID, repository.ErrAlreadyPosted)
	}

	if !handicap.Eligible(len(round.Holes), round.CourseRating, round.SlopeRating) {
		metrics.RecordRoundIneligible()
		return types.PostOutcome{Posted: false, Ineligible: true}, nil
	}

	lock := s.playerLock(round.PlayerID)
	lock.Lock()
	defer lock.Unlock()

	currentIndex, _, err := s.store.PlayerIndex(ctx, round.PlayerID)
	if err != nil {
		metrics.RecordStoreError()
		return types.PostOutcome{}, fmt.Errorf("fetch player index: %w", err)
	}

	courseHandicap := handicap.CourseHandicap(currentIndex, round.SlopeRating, round.CourseRating, s.parFor(round.Par))

	strokes := make([]int, len(round.Holes))
	pars := make([]int, len(round.Holes))
	for i, h := range round.Holes {
		strokes[i] = h.Strokes
		pars[i] = h.Par
	}
	adjusted, err := handicap.AdjustedGrossScore(strokes, pars, courseHandicap)
	if err != nil {
		return types.PostOutcome{}, fmt.Errorf("adjust gross score: %w", err)
	}

	differential := handicap.ScoreDifferential(adjusted, round.CourseRating, round.SlopeRating)

	if err := s.store.MarkRoundPosted(ctx, roundID, repository.PostingData{
		CourseHandicap:    courseHandicap,
		AdjustedGross:     adjusted,
		ScoreDifferential: differential,
	}); err != nil {
		metrics.RecordStoreError()
		metrics.RecordPostingError()
		return types.PostOutcome{}, fmt.Errorf("mark round posted: %w", err)
	}
	metrics.RecordRoundPosted()

	result := types.PostOutcome{
		Posted:            true,
		CourseHandicap:    courseHandicap,
		AdjustedGross:     adjusted,
		ScoreDifferential: differential,
	}

	// Recompute failure from here on is non-fatal: the round is posted.
	if idx, ok := s.recomputeIndexLocked(ctx, round.PlayerID); ok {
		result.HandicapIndex = &idx
	}

	if round.EventID != "" {
		s.NotifyRoundChanged(ctx, round.EventID)
	}

	return result, nil
}

// parFor resolves a round's par against the configured default.
func (s *Service) parFor(par int) int {
	if par > 0 {
		return par
	}
	return s.defaultPar
}

// recomputeIndexLocked recomputes a player's index from all posted
// rounds. Caller must hold the player's posting lock. Returns the index
// and true when one exists.
func (s *Service) recomputeIndexLocked(ctx context.Context, playerID string) (float64, bool) {
	start := time.Now()
	defer func() {
		metrics.RecordRecomputeLatency(float64(time.Since(start).Milliseconds()))
	}()
	metrics.RecordIndexRecompute()

	records, err := s.store.PostedDifferentials(ctx, playerID)
	if err != nil {
		metrics.RecordStoreError()
		s.logger.Warn(ctx, "index recompute failed; round stays posted",
			logger.String("playerID", playerID),
			logger.Error(err),
		)
		return 0, false
	}

	comp := handicap.Index(records)
	if comp == nil {
		// Fewer than five posted rounds: no index yet. Normal outcome.
		return 0, false
	}

	current, established, err := s.store.PlayerIndex(ctx, playerID)
	if err != nil {
		metrics.RecordStoreError()
		return 0, false
	}
	if established && current == comp.Index {
		return comp.Index, true
	}

	if err := s.store.SetPlayerIndex(ctx, playerID, comp.Index); err != nil {
		metrics.RecordStoreError()
		s.logger.Warn(ctx, "index update failed; round stays posted",
			logger.String("playerID", playerID),
			logger.Error(err),
		)
		return 0, false
	}
	if err := s.store.AppendIndexHistory(ctx, model.HandicapHistoryEntry{
		ID:         uuid.New().String(),
		PlayerID:   playerID,
		Index:      comp.Index,
		RecordedAt: time.Now().UTC(),
		RoundsUsed: comp.ScoresUsed,
	}); err != nil {
		metrics.RecordStoreError()
		s.logger.Warn(ctx, "history append failed",
			logger.String("playerID", playerID),
			logger.Error(err),
		)
	}
	metrics.RecordIndexUpdate()

	s.logger.Info(ctx, "handicap index updated",
		logger.String("playerID", playerID),
		logger.Float64("index", comp.Index),
		logger.Int("scoresUsed", comp.ScoresUsed),
	)
	return comp.Index, true
}

// RecomputePlayer forces an index recompute for a player (admin path).
func (s *Service) RecomputePlayer(ctx context.Context, playerID string) (types.HandicapSummary, error) {
	lock := s.playerLock(playerID)
	lock.Lock()
	s.recomputeIndexLocked(ctx, playerID)
	lock.Unlock()

	return s.PlayerHandicap(ctx, playerID)
}

// PlayerHandicap returns a player's current index and trend history.
func (s *Service) PlayerHandicap(ctx context.Context, playerID string) (types.HandicapSummary, error) {
	summary := types.HandicapSummary{PlayerID: playerID}

	idx, established, err := s.store.PlayerIndex(ctx, playerID)
	if err != nil {
		metrics.RecordStoreError()
		return summary, fmt.Errorf("fetch player index: %w", err)
	}
	if established {
		summary.Index = &idx
	}

	entries, err := s.store.IndexHistory(ctx, playerID)
	if err != nil {
		metrics.RecordStoreError()
		return summary, fmt.Errorf("fetch index history: %w", err)
	}
	for _, e := range entries {
		summary.History = append(summary.History, types.HistoryPoint{
			Index:      e.Index,
			RecordedAt: e.RecordedAt,
			RoundsUsed: e.RoundsUsed,
		})
	}
	if n := len(entries); n > 0 {
		summary.ScoresUsed = entries[n-1].RoundsUsed
	}
	return summary, nil
}

// EventLeaderboard derives a fresh leaderboard for an event. An event
// with no rounds yields an empty table, not an error.
func (s *Service) EventLeaderboard(ctx context.Context, eventID string, sortBy standings.SortBy) ([]types.LeaderboardEntry, error) {
	rounds, err := s.store.RoundsForEvent(ctx, eventID)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("fetch rounds for event %s: %w", eventID, err)
	}
	return standings.EventLeaderboard(rounds, sortBy, s.defaultPar), nil
}

// SeasonStandings derives season standings, optionally scoped to a
// calendar year. Ranking happens on the full set before truncation.
func (s *Service) SeasonStandings(ctx context.Context, year int, sortBy standings.SortBy, limit int) ([]types.LeaderboardEntry, error) {
	rounds, err := s.store.RoundsForSeason(ctx, year)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("fetch rounds for season: %w", err)
	}
	return standings.SeasonStandings(rounds, sortBy, limit, s.defaultPar), nil
}

// NotifyRoundChanged ingests a change-feed signal for an event. Bursts
// coalesce: while a recompute is pending for the event, further signals
// are absorbed. Returns false only on queue backpressure.
func (s *Service) NotifyRoundChanged(ctx context.Context, eventID string) bool {
	if s.coalescer.MarkPending(ctx, eventID) {
		metrics.RecordNotificationCoalesced()
		s.logger.Debug(ctx, "notification coalesced", logger.String("eventID", eventID))
		return true
	}

	ok := s.notifications.Enqueue(ctx, notifyqueue.Notification{
		EventID:    eventID,
		ReceivedAt: time.Now().UTC(),
	})
	if !ok {
		// Re-arm so the next notification is not swallowed.
		s.coalescer.Clear(ctx, eventID)
		s.logger.Warn(ctx, "notification dropped: queue full", logger.String("eventID", eventID))
		return false
	}
	return true
}

// Pending returns the number of events with a recompute pending.
func (s *Service) Pending() int64 {
	if s.coalescer == nil {
		return 0
	}
	return s.coalescer.Size()
}

// RecomputeEvent refreshes the leaderboard snapshot for an event. Called
// by the recompute workers.
func (s *Service) RecomputeEvent(ctx context.Context, eventID string) error {
	entries, err := s.EventLeaderboard(ctx, eventID, standings.SortNet)
	if err != nil {
		return err
	}

	s.snapMu.Lock()
	s.snapshots[eventID] = entries
	s.snapMu.Unlock()

	s.logger.Debug(ctx, "leaderboard snapshot refreshed",
		logger.String("eventID", eventID),
		logger.Int("entries", len(entries)),
	)
	return nil
}

// Snapshot returns the last worker-refreshed leaderboard for an event.
func (s *Service) Snapshot(eventID string) ([]types.LeaderboardEntry, bool) {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	entries, ok := s.snapshots[eventID]
	return entries, ok
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"defaultPar":  s.defaultPar,
	}

	if s.started {
		queueLen := s.notifications.Len(ctx)
		players := s.store.PlayerCount(ctx)

		s.snapMu.RLock()
		snapshotCount := len(s.snapshots)
		s.snapMu.RUnlock()

		stats["queueLength"] = queueLen
		stats["totalPlayers"] = players
		stats["pendingRecomputes"] = s.Pending()
		stats["snapshotCount"] = snapshotCount

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalPlayers(players)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
