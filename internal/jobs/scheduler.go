// README: Cron scheduler for background maintenance jobs (rate plan expiry).
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/logger"
)

// Job runs once per schedule tick. Returned errors are logged, never fatal.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	log     *logger.Logger
	timeout time.Duration
	ctx     context.Context
}

// NewScheduler bounds each run by timeout. Overlapping runs of the same job are skipped.
func NewScheduler(log *logger.Logger, timeout time.Duration) *Scheduler {
	if log == nil {
		log = logger.Discard()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:     log.WithField("component", "jobs"),
		timeout: timeout,
		ctx:     context.Background(),
	}
}

// Register adds a named job on a standard cron spec or descriptor ("@every 1m").
func (s *Scheduler) Register(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	return err
}

// Start runs the scheduler until ctx is done, then waits for running jobs.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.log.WithField("jobs", len(s.cron.Entries())).Info("scheduler started")
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	start := time.Now()
	entry := s.log.WithField("job", name)
	if err := job(ctx); err != nil {
		entry.WithError(err).Error("job failed")
		return
	}
	entry.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("job finished")
}
