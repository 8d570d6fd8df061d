package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"content_harvester/internal/service"
)

// DefaultSpec fires at the top of every hour.
const DefaultSpec = "0 * * * *"

// Runner harvests the given platforms; nil means all of them.
type Runner interface {
	Run(ctx context.Context, platforms []string) ([]service.Result, error)
}

type Scheduler struct {
	runner Runner
	spec   string
	logger *slog.Logger
}

func NewScheduler(runner Runner, spec string, logger *slog.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{
		runner: runner,
		spec:   spec,
		logger: logger.With("component", "scheduler"),
	}
}

// Start runs every platform on each tick until ctx is done, then waits for
// an in-flight run to finish. A tick that fires while the previous run is
// still going is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	cl := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if _, err := c.AddFunc(s.spec, func() { s.runAll(ctx) }); err != nil {
		return err
	}

	c.Start()
	s.logger.Info("scheduler started", "spec", s.spec)

	<-ctx.Done()
	<-c.Stop().Done()

	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) runAll(ctx context.Context) {
	s.logger.Info("scheduled harvest started")

	results, err := s.runner.Run(ctx, nil)
	if err != nil {
		s.logger.Error("scheduled harvest failed", "error", err)
		return
	}
	if service.Failed(results) {
		s.logger.Warn("scheduled harvest finished with failures", "platforms", len(results))
		return
	}
	s.logger.Info("scheduled harvest finished", "platforms", len(results))
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
