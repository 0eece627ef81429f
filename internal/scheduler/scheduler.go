package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/apperr"
	"github.com/mamadbah2/farmhand/internal/domain/models"
)

const jobTimeout = 2 * time.Minute

// SummaryGenerator produces and stores an AI summary of the given type.
type SummaryGenerator interface {
	Generate(ctx context.Context, summaryType models.SummaryType) (models.ReportSummary, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	summaries SummaryGenerator
	logger    *zap.Logger
}

// NewScheduler creates a scheduler that generates the daily summary on
// schedule, a standard 5-field cron expression evaluated in loc. An empty
// schedule disables the job.
func NewScheduler(schedule string, loc *time.Location, summaries SummaryGenerator, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		schedule:  schedule,
		summaries: summaries,
		logger:    logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("summary schedule not configured, scheduler idle")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.generateDailySummary); err != nil {
		return fmt.Errorf("schedule daily summary %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("daily_summary", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) generateDailySummary() {
	s.logger.Info("generating daily summary")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	summary, err := s.summaries.Generate(ctx, models.SummaryDaily)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.logger.Info("no work reports today, daily summary skipped")
			return
		}
		s.logger.Error("failed to generate daily summary", zap.Error(err))
		return
	}

	s.logger.Info("daily summary generated", zap.String("summary_id", summary.ID))
}
