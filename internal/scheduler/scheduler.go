// Package scheduler periodically re-reads configured integrations so rows
// written by other processes are picked up without a restart.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// loadTimeout bounds one reload run.
const loadTimeout = 30 * time.Second

// Loader is the part of the configuration manager the scheduler drives.
type Loader interface {
	Load(ctx context.Context) error
}

// ReloadScheduler runs Loader.Load on a cron schedule.
type ReloadScheduler struct {
	loader Loader
	logger *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	started bool
}

// cronLogger adapts zap to cron's logger interface.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw("[ReloadScheduler] "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw("[ReloadScheduler] "+msg, append(keysAndValues, "error", err)...)
}

// NewReloadScheduler validates spec and registers the reload job. Overlapping
// runs are skipped.
func NewReloadScheduler(spec string, loader Loader, logger *zap.Logger) (*ReloadScheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid reload schedule %q: %w", spec, err)
	}

	cl := cronLogger{sugar: logger.Sugar()}
	s := &ReloadScheduler{
		loader: loader,
		logger: logger,
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
	}

	entry, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		_ = s.RunOnce(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule reload: %w", err)
	}
	s.entry = entry
	return s, nil
}

// RunOnce performs one reload.
func (s *ReloadScheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	if err := s.loader.Load(ctx); err != nil {
		s.logger.Error("[ReloadScheduler] RunOnce: Reload failed", zap.Error(err))
		return err
	}
	s.logger.Debug("[ReloadScheduler] RunOnce: Reload finished", zap.Duration("duration", time.Since(start)))
	return nil
}

// Next returns the next scheduled run, or the zero time when not started.
func (s *ReloadScheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Start begins running the schedule in the background.
func (s *ReloadScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
	s.logger.Info("[ReloadScheduler] Start: Scheduler started", zap.Time("next_run", s.Next()))
}

// Stop halts the schedule and waits for a running reload, or for ctx.
func (s *ReloadScheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	done := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-done.Done():
		s.logger.Info("[ReloadScheduler] Stop: Scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("[ReloadScheduler] Stop: Gave up waiting for running reload", zap.Error(ctx.Err()))
	}
}
