package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/apperr"
	"github.com/mamadbah2/farmhand/internal/domain/models"
	"github.com/mamadbah2/farmhand/internal/period"
)

// Repository is the persistence surface of the work report service.
type Repository interface {
	// UpsertReport creates or updates the report keyed by (UserID, Date).
	UpsertReport(ctx context.Context, report models.WorkReport) (models.WorkReport, error)
	GetReport(ctx context.Context, id string) (models.WorkReport, error)
	UpdateReport(ctx context.Context, id string, fields Update, updatedAt time.Time) (models.WorkReport, error)
	DeleteReport(ctx context.Context, id string) error
	// ReportsBetween returns the reports dated in [start, end], oldest first.
	ReportsBetween(ctx context.Context, start, end time.Time) ([]models.WorkReport, error)
}

// UserLookup resolves the author of a report.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (models.User, error)
}

// Update lists the report fields to change. Nil fields are left untouched.
type Update struct {
	Title      *string
	Tasks      *string
	Challenges *string
	NextPlan   *string
}

// Counts holds the number of reports per overview range.
type Counts struct {
	Daily   int `json:"daily"`
	Weekly  int `json:"weekly"`
	Monthly int `json:"monthly"`
}

// Overview groups the reports of the day, week and month around a date.
type Overview struct {
	Reports map[period.Kind][]models.WorkReport `json:"reports"`
	Counts  Counts                              `json:"counts"`
}

var overviewKinds = []period.Kind{period.Day, period.Week, period.Month}

// Service files and reads daily work reports.
type Service struct {
	repo   Repository
	users  UserLookup
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewService wires a work report service.
func NewService(repository Repository, users UserLookup, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:   repository,
		users:  users,
		logger: logger,
		loc:    loc,
		now:    func() time.Time { return time.Now().In(loc) },
	}
}

// Create files the caller's report for a day, replacing an earlier one.
func (s *Service) Create(ctx context.Context, userID string, in models.WorkReportInput) (models.WorkReport, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Tasks) == "" || in.Date == "" {
		return models.WorkReport{}, apperr.Validation("title, tasks, and date are required")
	}
	day, err := period.ParseDate(in.Date, s.loc)
	if err != nil {
		return models.WorkReport{}, err
	}

	author, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return models.WorkReport{}, apperr.NotFound("user not found")
		}
		return models.WorkReport{}, fmt.Errorf("load author: %w", err)
	}

	now := s.now()
	report, err := s.repo.UpsertReport(ctx, models.WorkReport{
		ID:         uuid.NewString(),
		UserID:     userID,
		UserName:   author.Name,
		Date:       day,
		Title:      in.Title,
		Tasks:      in.Tasks,
		Challenges: in.Challenges,
		NextPlan:   in.NextPlan,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return models.WorkReport{}, fmt.Errorf("save report: %w", err)
	}

	s.logger.Debug("work report saved", zap.String("user_id", userID), zap.String("date", in.Date))
	return report, nil
}

// Get returns one report. Only its author or a manager may read it.
func (s *Service) Get(ctx context.Context, caller models.Identity, id string) (models.WorkReport, error) {
	report, err := s.repo.GetReport(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return models.WorkReport{}, apperr.NotFound("report not found")
		}
		return models.WorkReport{}, fmt.Errorf("get report: %w", err)
	}
	if report.UserID != caller.UserID && !caller.CanManage() {
		return models.WorkReport{}, apperr.Forbidden("not allowed to access this report")
	}
	return report, nil
}

// Update changes the content of a report owned by caller, or of any report
// when caller is a manager.
func (s *Service) Update(ctx context.Context, caller models.Identity, id string, fields Update) (models.WorkReport, error) {
	if fields.Title == nil && fields.Tasks == nil && fields.Challenges == nil && fields.NextPlan == nil {
		return models.WorkReport{}, apperr.Validation("nothing to update")
	}
	if (fields.Title != nil && strings.TrimSpace(*fields.Title) == "") || (fields.Tasks != nil && strings.TrimSpace(*fields.Tasks) == "") {
		return models.WorkReport{}, apperr.Validation("title and tasks cannot be empty")
	}
	if _, err := s.Get(ctx, caller, id); err != nil {
		return models.WorkReport{}, err
	}

	report, err := s.repo.UpdateReport(ctx, id, fields, s.now())
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return models.WorkReport{}, apperr.NotFound("report not found")
		}
		return models.WorkReport{}, fmt.Errorf("update report: %w", err)
	}
	return report, nil
}

// Delete removes a report, with the same access rule as Update.
func (s *Service) Delete(ctx context.Context, caller models.Identity, id string) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.DeleteReport(ctx, id); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.NotFound("report not found")
		}
		return fmt.Errorf("delete report: %w", err)
	}
	s.logger.Info("work report deleted", zap.String("report_id", id), zap.String("by", caller.UserID))
	return nil
}

// Overview lists the reports of the day, week and month containing date,
// newest first. rangeKind restricts the result to one of them; date defaults
// to today.
func (s *Service) Overview(ctx context.Context, rangeKind, date string) (Overview, error) {
	anchor := s.now()
	if date != "" {
		parsed, err := period.ParseDate(date, s.loc)
		if err != nil {
			return Overview{}, err
		}
		anchor = parsed
	}

	kinds := overviewKinds
	for _, k := range overviewKinds {
		if string(k) == rangeKind {
			kinds = []period.Kind{k}
		}
	}

	out := Overview{Reports: make(map[period.Kind][]models.WorkReport, len(overviewKinds))}
	for _, k := range overviewKinds {
		out.Reports[k] = []models.WorkReport{}
	}

	for _, k := range kinds {
		window, err := period.Window(k, anchor)
		if err != nil {
			return Overview{}, err
		}
		reports, err := s.repo.ReportsBetween(ctx, window.Start, window.End)
		if err != nil {
			return Overview{}, fmt.Errorf("list reports: %w", err)
		}
		sort.SliceStable(reports, func(i, j int) bool { return reports[i].Date.After(reports[j].Date) })
		if reports != nil {
			out.Reports[k] = reports
		}
	}

	out.Counts = Counts{
		Daily:   len(out.Reports[period.Day]),
		Weekly:  len(out.Reports[period.Week]),
		Monthly: len(out.Reports[period.Month]),
	}
	return out, nil
}
