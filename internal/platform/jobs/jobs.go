// Package jobs runs periodic background work on cron schedules.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one unit of scheduled work. The context carries a logger and is
// cancelled when the scheduler stops.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner. Runs of the same job never overlap; a run
// that is still going when the next tick arrives causes that tick to be
// skipped.
type Scheduler struct {
	cron    *cron.Cron
	logger  zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// NewScheduler creates a scheduler. Each run gets its own deadline of timeout.
func NewScheduler(logger zerolog.Logger, timeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	l := logger.With().Str("component", "jobs").Logger()
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{l}),
			cron.SkipIfStillRunning(cronLogger{l}),
		)),
		logger:  l,
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
	}
}

// Add registers job under name on a standard five-field cron spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.logger.Info().Str("job", name).Str("schedule", spec).Msg("job scheduled")
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	logger := s.logger.With().Str("job", name).Logger()
	ctx := logger.WithContext(s.ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := job(ctx); err != nil {
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("job failed")
		return
	}
	logger.Info().Dur("duration", time.Since(start)).Msg("job finished")
}

// RunNow executes job once outside the schedule, with the same logging.
func (s *Scheduler) RunNow(name string, job Job) {
	s.run(name, job)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
