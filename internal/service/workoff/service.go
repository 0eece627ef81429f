package workoff

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/apperr"
	"github.com/mamadbah2/farmhand/internal/domain/models"
	"github.com/mamadbah2/farmhand/internal/period"
)

// Repository is the persistence surface of the work-off service.
type Repository interface {
	// UpsertAllotment creates or updates the allotment keyed by (Month, Year).
	UpsertAllotment(ctx context.Context, allotment models.WorkOffAllotment) (models.WorkOffAllotment, error)
	FindAllotment(ctx context.Context, month, year int) (models.WorkOffAllotment, error)
	// ListDays returns the days of a month ordered by date, optionally for a
	// single user, with User populated.
	ListDays(ctx context.Context, month, year int, userID string) ([]models.WorkOffDay, error)
	// InsertDays skips days whose (user, date) already exists.
	InsertDays(ctx context.Context, days []models.WorkOffDay) (int, error)
	RescheduleDay(ctx context.Context, id string, date time.Time) (models.WorkOffDay, error)
	MarkUsedWithin(ctx context.Context, userID string, window period.Range, usedAt time.Time) (models.WorkOffDay, error)
	// MarkAllUsedWithin flags every unused day of window and returns how many changed.
	MarkAllUsedWithin(ctx context.Context, window period.Range, usedAt time.Time) (int64, error)
}

// Service manages monthly work-off allotments and the days users pick.
type Service struct {
	repo   Repository
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewService wires a work-off service.
func NewService(repository Repository, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:   repository,
		logger: logger,
		loc:    loc,
		now:    func() time.Time { return time.Now().In(loc) },
	}
}

// SetAllotment stores the limit of a month.
func (s *Service) SetAllotment(ctx context.Context, month, year, maxDays int) (models.WorkOffAllotment, error) {
	if month < 1 || month > 12 {
		return models.WorkOffAllotment{}, apperr.Validation("month must be between 1 and 12")
	}
	if year <= 0 {
		return models.WorkOffAllotment{}, apperr.Validation("year must be positive")
	}
	if maxDays <= 0 {
		return models.WorkOffAllotment{}, apperr.Validation("maxDays must be positive")
	}

	stored, err := s.repo.UpsertAllotment(ctx, models.WorkOffAllotment{
		ID:      uuid.NewString(),
		Month:   month,
		Year:    year,
		MaxDays: maxDays,
	})
	if err != nil {
		return models.WorkOffAllotment{}, fmt.Errorf("save allotment: %w", err)
	}

	s.logger.Info("work-off allotment saved", zap.Int("month", month), zap.Int("year", year), zap.Int("max_days", maxDays))
	return stored, nil
}

// MonthlyOverview lists the days picked in a month. userID is optional.
func (s *Service) MonthlyOverview(ctx context.Context, month, year int, userID string) ([]models.WorkOffDay, error) {
	if month < 1 || month > 12 || year <= 0 {
		return nil, apperr.Validation("month and year are required")
	}
	days, err := s.repo.ListDays(ctx, month, year, userID)
	if err != nil {
		return nil, fmt.Errorf("list work-off days: %w", err)
	}
	return days, nil
}

// Reschedule moves a day to newDate and clears its used flag.
func (s *Service) Reschedule(ctx context.Context, id, newDate string) (models.WorkOffDay, error) {
	date, err := period.ParseDate(newDate, s.loc)
	if err != nil {
		return models.WorkOffDay{}, err
	}

	day, err := s.repo.RescheduleDay(ctx, id, date)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindNotFound:
			return models.WorkOffDay{}, apperr.NotFound("work-off day not found")
		case apperr.KindConflict:
			return models.WorkOffDay{}, apperr.Conflict("work-off already booked on %s", date.Format(period.DateLayout))
		}
		return models.WorkOffDay{}, fmt.Errorf("reschedule work-off: %w", err)
	}
	return day, nil
}

// Save books the caller's days for the current month. Exactly maxDays
// distinct dates of the current month must be given.
func (s *Service) Save(ctx context.Context, userID string, dates []string) (int, error) {
	now := s.now()
	month, year := int(now.Month()), now.Year()

	allotment, err := s.currentAllotment(ctx, month, year)
	if err != nil {
		return 0, err
	}
	if len(dates) != allotment.MaxDays {
		return 0, apperr.Validation("only %d days allowed", allotment.MaxDays)
	}

	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]models.WorkOffDay, 0, len(dates))
	for _, raw := range dates {
		date, err := period.ParseDate(raw, s.loc)
		if err != nil {
			return 0, err
		}
		if int(date.Month()) != month || date.Year() != year {
			return 0, apperr.Validation("%s is not in the current month", date.Format(period.DateLayout))
		}
		if _, dup := seen[date]; dup {
			return 0, apperr.Validation("duplicate date %s", date.Format(period.DateLayout))
		}
		seen[date] = struct{}{}

		days = append(days, models.WorkOffDay{
			ID:     uuid.NewString(),
			UserID: userID,
			Date:   date,
			Month:  month,
			Year:   year,
		})
	}

	inserted, err := s.repo.InsertDays(ctx, days)
	if err != nil {
		return 0, fmt.Errorf("save work-off days: %w", err)
	}
	return inserted, nil
}

// Summary returns the caller's current month.
func (s *Service) Summary(ctx context.Context, userID string) (models.WorkOffSummary, error) {
	now := s.now()
	month, year := int(now.Month()), now.Year()

	allotment, err := s.currentAllotment(ctx, month, year)
	if err != nil {
		return models.WorkOffSummary{}, err
	}

	days, err := s.repo.ListDays(ctx, month, year, userID)
	if err != nil {
		return models.WorkOffSummary{}, fmt.Errorf("list work-off days: %w", err)
	}

	used := 0
	for _, d := range days {
		if d.Used {
			used++
		}
	}
	if days == nil {
		days = []models.WorkOffDay{}
	}

	return models.WorkOffSummary{
		MaxDays:       allotment.MaxDays,
		TotalSelected: len(days),
		Used:          used,
		Remaining:     len(days) - used,
		Records:       days,
	}, nil
}

// MarkUsed flags the caller's day on date as taken.
func (s *Service) MarkUsed(ctx context.Context, userID, date string) (models.WorkOffDay, error) {
	day, err := period.ParseDate(date, s.loc)
	if err != nil {
		return models.WorkOffDay{}, err
	}

	marked, err := s.repo.MarkUsedWithin(ctx, userID, period.DayOf(day), s.now())
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return models.WorkOffDay{}, apperr.NotFound("work-off not found for this date")
		}
		return models.WorkOffDay{}, fmt.Errorf("mark work-off used: %w", err)
	}
	return marked, nil
}

// Allotment returns the limit of the current month.
func (s *Service) Allotment(ctx context.Context) (models.WorkOffAllotment, error) {
	now := s.now()
	return s.currentAllotment(ctx, int(now.Month()), now.Year())
}

// AutoMarkUsed flags every unused day booked for today. Running it again
// changes nothing.
func (s *Service) AutoMarkUsed(ctx context.Context) (int64, error) {
	now := s.now()
	n, err := s.repo.MarkAllUsedWithin(ctx, period.DayOf(now), now)
	if err != nil {
		return 0, fmt.Errorf("auto mark work-off: %w", err)
	}
	if n > 0 {
		s.logger.Info("work-off days marked used", zap.Int64("count", n))
	}
	return n, nil
}

func (s *Service) currentAllotment(ctx context.Context, month, year int) (models.WorkOffAllotment, error) {
	allotment, err := s.repo.FindAllotment(ctx, month, year)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return models.WorkOffAllotment{}, apperr.NotFound("no limit found")
		}
		return models.WorkOffAllotment{}, fmt.Errorf("find allotment: %w", err)
	}
	return allotment, nil
}
