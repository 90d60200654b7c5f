// Package scheduler dispatches per-user ingestion runs on a fixed tick,
// bounded by a worker pool and a single-run-per-user lock.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kvashee/bankfeed/pkg/models"
)

// ErrRunInFlight is returned by Trigger when the user already has a run
// in progress. Ticks skip such users silently; only manual triggers see
// this error.
var ErrRunInFlight = errors.New("run already in flight for user")

// ConfigLister enumerates enabled configurations each tick.
type ConfigLister interface {
	ListEnabledConfigs(ctx context.Context) ([]*models.EmailConfig, error)
}

// Runner executes one user's ingestion run.
type Runner interface {
	Run(ctx context.Context, userID int64) (*models.RunResult, error)
}

// Scheduler is the process-wide periodic dispatcher.
type Scheduler struct {
	configs    ConfigLister
	runner     Runner
	tick       time.Duration
	runTimeout time.Duration
	sem        chan struct{} // bounded worker pool
	logger     *slog.Logger

	mu       sync.Mutex
	inFlight map[int64]bool
	wg       sync.WaitGroup
}

// New creates a Scheduler with the given pool size
func New(configs ConfigLister, runner Runner, tick, runTimeout time.Duration, workers int, logger *slog.Logger) *Scheduler {
	if workers <= 0 {
		workers = 1
	}
	return &Scheduler{
		configs:    configs,
		runner:     runner,
		tick:       tick,
		runTimeout: runTimeout,
		sem:        make(chan struct{}, workers),
		inFlight:   make(map[int64]bool),
		logger:     logger.With("component", "scheduler"),
	}
}

// Start runs the tick loop until the context is cancelled, then waits for
// in-flight runs to drain.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started", "tick", s.tick, "workers", cap(s.sem))

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	// First pass immediately so a restart does not wait a full tick.
	s.runTick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping, waiting for in-flight runs")
			s.wg.Wait()
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runTick(ctx)
		}
	}
}

// runTick enumerates enabled configurations and dispatches every due user
func (s *Scheduler) runTick(ctx context.Context) {
	configs, err := s.configs.ListEnabledConfigs(ctx)
	if err != nil {
		s.logger.Error("failed to list enabled configs", "error", err)
		return
	}

	now := time.Now().UTC()
	for _, cfg := range configs {
		if !due(cfg, now) {
			continue
		}
		if !s.tryLock(cfg.UserID) {
			// Bounded backlog: a user with a run in flight is skipped for
			// this cycle, never queued.
			s.logger.Debug("run in flight, skipping user", "user_id", cfg.UserID)
			continue
		}
		s.dispatch(ctx, cfg.UserID)
	}
}

// dispatch launches a run on the worker pool. The caller must hold the
// user's run lock; dispatch releases it when the run finishes.
func (s *Scheduler) dispatch(ctx context.Context, userID int64) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.unlock(userID)

		select {
		case s.sem <- struct{}{}:
			defer func() { <-s.sem }()
		case <-ctx.Done():
			return
		}

		runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
		defer cancel()

		result, err := s.runner.Run(runCtx, userID)
		if err != nil {
			s.logger.Error("run failed", "user_id", userID, "error", err)
			return
		}
		s.logger.Debug("run dispatched by tick finished",
			"user_id", userID,
			"processed", result.ProcessedCount,
			"skipped", result.SkippedCount)
	}()
}

// Trigger runs a user synchronously, bypassing the due check but honouring
// the single-run-per-user lock and the worker pool bound.
func (s *Scheduler) Trigger(ctx context.Context, userID int64) (*models.RunResult, error) {
	if !s.tryLock(userID) {
		return nil, ErrRunInFlight
	}
	defer s.unlock(userID)

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	return s.runner.Run(runCtx, userID)
}

func (s *Scheduler) tryLock(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[userID] {
		return false
	}
	s.inFlight[userID] = true
	return true
}

func (s *Scheduler) unlock(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, userID)
}

// due reports whether a user's polling interval has elapsed
func due(cfg *models.EmailConfig, now time.Time) bool {
	if cfg.LastCheckTime == nil {
		return true
	}
	return !now.Before(cfg.LastCheckTime.Add(cfg.PollInterval()))
}
