package attendance

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

// Repository is the persistence surface of the attendance service.
type Repository interface {
	// UpdateStatusOnDay changes the status of the user's row dated day.
	UpdateStatusOnDay(ctx context.Context, userID string, day time.Time, status models.AttendanceStatus, updatedAt time.Time) (models.Attendance, error)
	ListByUser(ctx context.Context, userID string, skip, limit int64) ([]models.Attendance, int64, error)
	DeleteForUser(ctx context.Context, userID, id string) (int64, error)
	// ListBetween returns the rows of a window, newest first, with User populated.
	ListBetween(ctx context.Context, window period.Range, skip, limit int64) ([]models.Attendance, int64, error)
	LatestForUser(ctx context.Context, userID string) (models.Attendance, error)
	UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, updatedAt time.Time) (models.Attendance, error)
	// InsertMissing inserts rows, skipping any whose (user, date) already exists,
	// and returns how many were inserted.
	InsertMissing(ctx context.Context, rows []models.Attendance) (int, error)
}

// UserDirectory lists the ids of every registered user.
type UserDirectory interface {
	UserIDs(ctx context.Context) ([]string, error)
}

// Page is a paginated attendance listing.
type Page struct {
	models.Pagination
	Attendances []models.Attendance `json:"attendances"`
}

// Service tracks daily attendance.
type Service struct {
	repo   Repository
	users  UserDirectory
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewService wires an attendance service.
func NewService(repository Repository, users UserDirectory, loc *time.Location, logger *zap.Logger) *Service {
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

// UpdateToday sets the caller's status for today. The row must already exist,
// i.e. the absent sweep has run.
func (s *Service) UpdateToday(ctx context.Context, userID string, status models.AttendanceStatus) (models.Attendance, error) {
	if status == "" {
		return models.Attendance{}, apperr.Validation("status is required")
	}
	if !status.Valid() {
		return models.Attendance{}, apperr.Validation("invalid status %q", status)
	}

	now := s.now()
	row, err := s.repo.UpdateStatusOnDay(ctx, userID, period.StartOfDay(now), status, now)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return models.Attendance{}, apperr.NotFound("no attendance for today")
		}
		return models.Attendance{}, fmt.Errorf("update attendance: %w", err)
	}
	return row, nil
}

// ListMine returns the caller's rows, newest first.
func (s *Service) ListMine(ctx context.Context, userID string, page, limit int) (Page, error) {
	page, limit = models.NormalizePage(page, limit)

	rows, total, err := s.repo.ListByUser(ctx, userID, models.Offset(page, limit), int64(limit))
	if err != nil {
		return Page{}, fmt.Errorf("list attendance: %w", err)
	}
	return Page{Pagination: models.NewPagination(page, limit, total), Attendances: rows}, nil
}

// DeleteMine removes one of the caller's own rows.
func (s *Service) DeleteMine(ctx context.Context, userID, id string) error {
	deleted, err := s.repo.DeleteForUser(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	if deleted == 0 {
		return apperr.NotFound("attendance not found")
	}
	return nil
}

// List returns every user's rows for the day selected by filter.
func (s *Service) List(ctx context.Context, filter period.AttendanceFilter, date string, page, limit int) (Page, error) {
	var custom time.Time
	if filter == period.OnDate {
		if date == "" {
			return Page{}, apperr.Validation("custom date is required")
		}
		parsed, err := period.ParseDate(date, s.loc)
		if err != nil {
			return Page{}, err
		}
		custom = parsed
	}

	window, err := period.AttendanceWindow(filter, s.now(), custom)
	if err != nil {
		return Page{}, err
	}

	page, limit = models.NormalizePage(page, limit)
	rows, total, err := s.repo.ListBetween(ctx, window, models.Offset(page, limit), int64(limit))
	if err != nil {
		return Page{}, fmt.Errorf("list attendance: %w", err)
	}
	return Page{Pagination: models.NewPagination(page, limit, total), Attendances: rows}, nil
}

// LatestForUser returns the most recent row of a user.
func (s *Service) LatestForUser(ctx context.Context, userID string) (models.Attendance, error) {
	row, err := s.repo.LatestForUser(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return models.Attendance{}, apperr.NotFound("record not found")
		}
		return models.Attendance{}, fmt.Errorf("latest attendance: %w", err)
	}
	return row, nil
}

// UpdateStatus changes the status of any row.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus) (models.Attendance, error) {
	if !status.Valid() {
		return models.Attendance{}, apperr.Validation("invalid status %q", status)
	}

	row, err := s.repo.UpdateStatus(ctx, id, status, s.now())
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return models.Attendance{}, apperr.NotFound("record not found")
		}
		return models.Attendance{}, fmt.Errorf("update attendance: %w", err)
	}
	return row, nil
}

// MarkAbsentForToday inserts an Absent row for every user without a row
// today. Running it again inserts nothing.
func (s *Service) MarkAbsentForToday(ctx context.Context) (int, error) {
	ids, err := s.users.UserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	now := s.now()
	today := period.StartOfDay(now)
	rows := make([]models.Attendance, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, models.Attendance{
			ID:        uuid.NewString(),
			UserID:    id,
			Date:      today,
			Status:    models.AttendanceAbsent,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	inserted, err := s.repo.InsertMissing(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("mark absent: %w", err)
	}
	if inserted > 0 {
		s.logger.Info("marked users absent", zap.Int("count", inserted), zap.Time("date", today))
	}
	return inserted, nil
}
