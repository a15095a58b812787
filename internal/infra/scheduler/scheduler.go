package scheduler

import (
	"context"
	"fmt"
	"time"

	"shabbat_deactivate/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner is the part of the deactivation service the scheduler drives.
type Runner interface {
	Run(ctx context.Context, opts app.RunOptions) (*app.RunResult, error)
}

// JobScheduler re-runs the deactivation job on a cron spec.
type JobScheduler struct {
	cronEngine *cron.Cron
	runner     Runner
	opts       app.RunOptions
	logger     logrus.FieldLogger
	cronSpec   string // e.g., "30 3 * * *" (03:30 daily)
	runTimeout time.Duration
}

func NewJobScheduler(runner Runner, opts app.RunOptions, logger logrus.FieldLogger, cronSpec string) *JobScheduler {
	return &JobScheduler{
		// Overlapping runs would race on the same candidate rows.
		cronEngine: cron.New(cron.WithLocation(time.Local), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		runner:     runner,
		opts:       opts,
		logger:     logger,
		cronSpec:   cronSpec,
		runTimeout: 30 * time.Minute,
	}
}

// Start registers the job and starts the cron engine.
func (s *JobScheduler) Start() error {
	s.logger.Infof("Starting deactivation scheduler with spec %q", s.cronSpec)

	_, err := s.cronEngine.AddFunc(s.cronSpec, s.runOnce)
	if err != nil {
		return fmt.Errorf("could not add deactivation cron job: %w", err)
	}

	s.cronEngine.Start()
	return nil
}

func (s *JobScheduler) runOnce() {
	s.logger.Info("Cron job triggered for bounce deactivation.")
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	result, err := s.runner.Run(ctx, s.opts)
	if err != nil {
		s.logger.WithError(err).Error("Deactivation run failed")
		return
	}
	s.logger.Infof("Deactivation run finished: %d candidates, %d deactivated", len(result.Candidates), result.Deactivated)
}

// Stop waits for a running job to finish.
func (s *JobScheduler) Stop() {
	s.logger.Info("Stopping deactivation scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Deactivation scheduler stopped.")
}
