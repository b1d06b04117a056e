package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is the work run at every tick.
type Job func(ctx context.Context) error

// Config holds scheduler configuration.
type Config struct {
	Spec       string        // Standard 5-field cron expression (default: "0 * * * *")
	Schedule   cron.Schedule // Overrides Spec when set
	Timeout    time.Duration // Per-tick timeout, 0 = none
	RunOnStart bool          // Run one tick immediately on Start
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Spec:    "0 * * * *",
		Timeout: 5 * time.Minute,
	}
}

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cfg      Config
	schedule cron.Schedule
	job      Job
	logger   *slog.Logger

	cron *cron.Cron
	tick cron.Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler. It fails when the cron expression does not parse.
func New(cfg Config, job Job, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	schedule := cfg.Schedule
	if schedule == nil {
		spec := cfg.Spec
		if spec == "" {
			spec = DefaultConfig().Spec
		}
		parsed, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
		}
		schedule = parsed
	}

	s := &Scheduler{
		cfg:      cfg,
		schedule: schedule,
		job:      job,
		logger:   logger,
	}

	cl := cronLogger{logger: logger}
	s.cron = cron.New(cron.WithLogger(cl))
	s.tick = cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(s.run))
	s.cron.Schedule(schedule, s.tick)

	return s, nil
}

// Start begins scheduling ticks. Jobs receive a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.cron.Start()

	if s.cfg.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tick.Run()
		}()
	}

	s.logger.Info("scheduler started",
		"next", s.schedule.Next(time.Now()),
		"timeout", s.cfg.Timeout,
	)

	return nil
}

// Stop stops scheduling, cancels a running tick and waits for it to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce runs the job immediately with the configured timeout.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	return s.job(ctx)
}

// run executes one scheduled tick. Errors are logged, never returned.
func (s *Scheduler) run() {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("scheduled job failed",
			"error", err,
			"duration", time.Since(start),
		)
		return
	}

	s.logger.Debug("scheduled job completed", "duration", time.Since(start))
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
