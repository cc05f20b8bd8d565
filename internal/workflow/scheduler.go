// Package workflow runs the pipeline on a fixed interval, the daemon
// mode behind the schedule command.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"tempo/internal/config"
	"tempo/internal/logging"
	"tempo/internal/pipeline"
)

// RunFunc executes one pipeline run. Satisfied by pipeline.Runner.Run.
type RunFunc func(ctx context.Context) (*pipeline.Result, error)

// Scheduler triggers pipeline runs on the configured interval. After a
// failed run it retries sooner, on the error retry interval.
type Scheduler struct {
	interval   time.Duration
	retryAfter time.Duration
	run        RunFunc
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Scheduler from workflow configuration.
func New(cfg *config.Config, run RunFunc, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		interval:   time.Duration(cfg.Workflow.ScheduleInterval) * time.Minute,
		retryAfter: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Minute,
		run:        run,
		logger:     logging.NewComponentLogger(logger, "workflow"),
	}
}

// Start begins background scheduling. The first run fires immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	if s.run == nil {
		s.mu.Unlock()
		return errors.New("scheduler has no run function")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.loop(runCtx)
	return nil
}

// Stop terminates background scheduling and waits for completion.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	for {
		wait := s.interval
		result, err := s.run(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			wait = s.retryAfter
			s.logger.Error("scheduled run failed, retrying sooner",
				logging.Error(err),
				logging.Duration("retry_in", wait),
			)
		case result != nil:
			s.logger.Info("scheduled run finished",
				logging.RunID(result.RunID),
				logging.String("status", result.Status),
				logging.Duration("next_in", wait),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}
