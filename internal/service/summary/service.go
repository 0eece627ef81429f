package summary

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/apperr"
	"github.com/mamadbah2/farmhand/internal/domain/models"
	"github.com/mamadbah2/farmhand/internal/period"
)

// SystemPrompt is the fixed instruction sent with every summarization request.
const SystemPrompt = "You are a professional HR assistant. Summarize the work reports clearly and professionally."

const reportSeparator = "\n-------------------------\n"

// Summarizer turns rendered report text into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, systemPrompt, text string) (string, error)
}

// Notifier pushes a generated summary to a human. Optional.
type Notifier interface {
	NotifySummary(ctx context.Context, summary models.ReportSummary) error
}

// ReportSource lists the work reports of a period.
type ReportSource interface {
	ReportsBetween(ctx context.Context, start, end time.Time) ([]models.WorkReport, error)
}

// Repository stores summaries.
type Repository interface {
	// UpsertSummary creates or updates the summary keyed by (Type, StartDate, EndDate).
	UpsertSummary(ctx context.Context, summary models.ReportSummary) (models.ReportSummary, error)
	ListSummaries(ctx context.Context, summaryType models.SummaryType) ([]models.ReportSummary, error)
}

// Service generates and stores AI summaries of work reports.
type Service struct {
	reports    ReportSource
	repo       Repository
	summarizer Summarizer
	notifier   Notifier
	timeout    time.Duration
	logger     *zap.Logger
	loc        *time.Location
	now        func() time.Time
}

// NewService wires a summary service. notifier may be nil.
func NewService(reports ReportSource, repository Repository, summarizer Summarizer, notifier Notifier, timeout time.Duration, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		reports:    reports,
		repo:       repository,
		summarizer: summarizer,
		notifier:   notifier,
		timeout:    timeout,
		logger:     logger,
		loc:        loc,
		now:        func() time.Time { return time.Now().In(loc) },
	}
}

// Generate summarizes the reports of the current period of summaryType and
// upserts the result. Generating twice for the same period overwrites the content.
func (s *Service) Generate(ctx context.Context, summaryType models.SummaryType) (models.ReportSummary, error) {
	window, err := period.Resolve(summaryType, s.now())
	if err != nil {
		return models.ReportSummary{}, err
	}

	covering := period.Covering(window)
	reports, err := s.reports.ReportsBetween(ctx, covering.Start, covering.End)
	if err != nil {
		return models.ReportSummary{}, fmt.Errorf("load reports: %w", err)
	}
	if len(reports) == 0 {
		return models.ReportSummary{}, apperr.NotFound("no reports found for %s", summaryType)
	}

	content, err := s.summarize(ctx, Render(reports, s.loc))
	if err != nil {
		return models.ReportSummary{}, err
	}

	now := s.now()
	saved, err := s.repo.UpsertSummary(ctx, models.ReportSummary{
		ID:        uuid.NewString(),
		Type:      summaryType,
		StartDate: window.Start,
		EndDate:   window.End,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return models.ReportSummary{}, fmt.Errorf("save summary: %w", err)
	}
	saved = s.inLocation(saved)

	s.logger.Info("summary generated",
		zap.String("type", string(summaryType)),
		zap.Time("start", window.Start),
		zap.Time("end", window.End),
		zap.Int("reports", len(reports)))

	if s.notifier != nil {
		if err := s.notifier.NotifySummary(ctx, saved); err != nil {
			s.logger.Warn("summary notification failed", zap.Error(err))
		}
	}

	return saved, nil
}

// List returns the summaries of a type, newest first.
func (s *Service) List(ctx context.Context, summaryType models.SummaryType) ([]models.ReportSummary, error) {
	if summaryType == "" {
		return nil, apperr.Validation("type is required")
	}
	if !summaryType.Valid() {
		return nil, apperr.Validation("invalid summary type %q", summaryType)
	}

	summaries, err := s.repo.ListSummaries(ctx, summaryType)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	for i := range summaries {
		summaries[i] = s.inLocation(summaries[i])
	}
	return summaries, nil
}

// inLocation moves the period bounds back into the reporting location; the
// store hands dates back in UTC.
func (s *Service) inLocation(summary models.ReportSummary) models.ReportSummary {
	summary.StartDate = summary.StartDate.In(s.loc)
	summary.EndDate = summary.EndDate.In(s.loc)
	return summary
}

// summarize calls the summarizer under the configured timeout, retrying once
// when the first attempt failed at the network level.
func (s *Service) summarize(ctx context.Context, text string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		content, err := s.callOnce(ctx, text)
		if err == nil {
			if strings.TrimSpace(content) == "" {
				return "", apperr.Upstream("summarizer returned an empty summary", nil)
			}
			return content, nil
		}

		lastErr = err
		if !isNetworkError(err) || ctx.Err() != nil {
			break
		}
		s.logger.Warn("summarizer call failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}
	return "", apperr.Upstream("failed to generate summary", lastErr)
}

func (s *Service) callOnce(ctx context.Context, text string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.summarizer.Summarize(callCtx, SystemPrompt, text)
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Render formats reports as the text block handed to the summarizer. Report
// dates are printed in loc.
func Render(reports []models.WorkReport, loc *time.Location) string {
	blocks := make([]string, 0, len(reports))
	for _, r := range reports {
		blocks = append(blocks, fmt.Sprintf("\nDate: %s\nTitle: %s\nTasks Done:\n%s\nChallenges:\n%s\nNext Plan:\n%s\n",
			r.Date.In(loc).Format(period.DateLayout),
			orDefault(r.Title, "N/A"),
			r.Tasks,
			orDefault(r.Challenges, "None"),
			orDefault(r.NextPlan, "None"),
		))
	}
	return strings.Join(blocks, reportSeparator)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
