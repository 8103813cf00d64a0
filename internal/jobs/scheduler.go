package jobs

import (
	"context"
	"fmt"
	"time"

	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/metrics"

	"github.com/robfig/cron/v3"
)

// Job is one unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs registered jobs on cron specs. A job whose previous run is
// still going is skipped rather than stacked.
type Scheduler struct {
	ctx     context.Context
	cron    *cron.Cron
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewScheduler(ctx context.Context, log *logger.Logger, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		ctx:     ctx,
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:     log,
		metrics: m,
	}
}

// Register adds job under spec, e.g. "@every 1m" or "*/5 * * * *".
func (s *Scheduler) Register(spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunJob(s.ctx, job) }); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, job.Name(), err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running ones to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn(ctx, "scheduled jobs still running at shutdown", ctx.Err())
	}
}

// RunJob executes job once, logging and recording its outcome.
func (s *Scheduler) RunJob(ctx context.Context, job Job) {
	jobCtx := s.log.WithField(ctx, "job", job.Name())
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveJob(job.Name(), duration, err)

	jobCtx = s.log.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.log.Error(jobCtx, "job failed", err)
		return
	}
	s.log.Debug(jobCtx, "job completed")
}
