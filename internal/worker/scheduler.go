package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler invokes a job function on a fixed interval.
//
// Deployments behind a platform cron hit the HTTP trigger endpoints instead;
// this in-process variant covers single-binary setups where no external
// scheduler exists. Both paths run the same job code.
type Scheduler struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context)
	logger   *zap.Logger
}

func NewScheduler(name string, interval time.Duration, run func(context.Context), logger *zap.Logger) *Scheduler {
	return &Scheduler{name: name, interval: interval, run: run, logger: logger}
}

// Run ticks every interval and invokes the job.
// Stops cleanly when ctx is cancelled; an in-flight run finishes first.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started",
		zap.String("job", s.name),
		zap.Duration("interval", s.interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", zap.String("job", s.name))
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}
