package milk

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

const exportRange = "Milk!A:F"

// Repository is the persistence surface of the milk service.
type Repository interface {
	CreateAnimal(ctx context.Context, animal models.Animal) error
	ListAnimals(ctx context.Context) ([]models.Animal, error)
	// RecordSession upserts the day record of the animal and the session for
	// its period in one transaction and returns the stored documents.
	RecordSession(ctx context.Context, record models.MilkRecord, session models.MilkSession) (models.MilkRecord, models.MilkSession, error)
	// SessionsInWindows loads, from one consistent snapshot, the sessions of
	// every range whose animal tag contains tag (case-insensitive).
	SessionsInWindows(ctx context.Context, tag string, ranges ...period.Range) ([][]models.MilkSession, error)
}

// UserLookup resolves the recorder of a session.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (models.User, error)
}

// Exporter appends rows to an external spreadsheet.
type Exporter interface {
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

// SummaryQuery selects a milk summary window and page.
type SummaryQuery struct {
	Range     string
	Date      string
	AnimalTag string
	Page      int
	Limit     int
}

// SessionView is one row of the summary listing.
type SessionView struct {
	Date      time.Time         `json:"date"`
	AnimalTag string            `json:"animalTag"`
	Time      time.Time         `json:"time"`
	Period    models.MilkPeriod `json:"period"`
	Quantity  float64           `json:"quantity"`
	Recorder  string            `json:"recorder"`
}

// SummaryResult is the full milk summary payload.
type SummaryResult struct {
	Range  period.Kind  `json:"range"`
	Period period.Range `json:"period"`
	Aggregate
	Pagination models.Pagination `json:"pagination"`
	Records    []SessionView     `json:"records"`
}

// Service implements animal registration, milk recording and summaries.
type Service struct {
	repo     Repository
	users    UserLookup
	exporter Exporter
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewService wires a milk service. exporter may be nil when Sheets is not configured.
func NewService(repository Repository, users UserLookup, exporter Exporter, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repository,
		users:    users,
		exporter: exporter,
		logger:   logger,
		loc:      loc,
		now:      func() time.Time { return time.Now().In(loc) },
	}
}

// CreateAnimal registers a new animal tag.
func (s *Service) CreateAnimal(ctx context.Context, tag string) (models.Animal, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return models.Animal{}, apperr.Validation("animalTag is required")
	}

	animal := models.Animal{ID: uuid.NewString(), AnimalTag: tag, CreatedAt: s.now()}
	if err := s.repo.CreateAnimal(ctx, animal); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return models.Animal{}, apperr.Conflict("animal %s already exists", tag)
		}
		return models.Animal{}, fmt.Errorf("create animal: %w", err)
	}

	s.logger.Info("animal registered", zap.String("animal_tag", tag))
	return animal, nil
}

// ListAnimals returns every animal ordered by tag.
func (s *Service) ListAnimals(ctx context.Context) ([]models.Animal, error) {
	animals, err := s.repo.ListAnimals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list animals: %w", err)
	}
	return animals, nil
}

// RecordMilk stores today's quantity for (animal, period), replacing an
// earlier reading of the same session.
func (s *Service) RecordMilk(ctx context.Context, userID string, entry models.MilkEntry) (models.MilkRecord, models.MilkSession, error) {
	if entry.AnimalID == "" || entry.AnimalTag == "" || entry.Period == "" || entry.Quantity == 0 {
		return models.MilkRecord{}, models.MilkSession{}, apperr.Validation("missing required fields")
	}
	if !entry.Period.Valid() {
		return models.MilkRecord{}, models.MilkSession{}, apperr.Validation("invalid period %q", entry.Period)
	}
	if entry.Quantity < 0 {
		return models.MilkRecord{}, models.MilkSession{}, apperr.Validation("quantity must be positive")
	}

	recorder, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return models.MilkRecord{}, models.MilkSession{}, apperr.NotFound("recorder not found")
		}
		return models.MilkRecord{}, models.MilkSession{}, fmt.Errorf("load recorder: %w", err)
	}

	now := s.now()
	today := period.StartOfDay(now)

	record := models.MilkRecord{
		ID:        uuid.NewString(),
		AnimalID:  entry.AnimalID,
		AnimalTag: entry.AnimalTag,
		Date:      today,
	}
	session := models.MilkSession{
		ID:        uuid.NewString(),
		AnimalID:  entry.AnimalID,
		AnimalTag: entry.AnimalTag,
		Date:      today,
		Period:    entry.Period,
		Quantity:  entry.Quantity,
		Time:      now,
		Recorder:  recorder.Name,
	}

	storedRecord, storedSession, err := s.repo.RecordSession(ctx, record, session)
	if err != nil {
		return models.MilkRecord{}, models.MilkSession{}, fmt.Errorf("record milk session: %w", err)
	}

	s.logger.Debug("milk session recorded",
		zap.String("animal_tag", entry.AnimalTag),
		zap.String("period", string(entry.Period)),
		zap.Float64("quantity", entry.Quantity))

	return storedRecord, storedSession, nil
}

// Summary computes the milk summary of a window. Aggregates are computed on
// the full filtered window; page and limit only slice Records.
func (s *Service) Summary(ctx context.Context, q SummaryQuery) (SummaryResult, error) {
	if q.Date == "" {
		return SummaryResult{}, apperr.Validation("date is required")
	}
	if q.Range == "" {
		q.Range = string(period.Day)
	}

	kind, err := period.ParseKind(q.Range)
	if err != nil {
		return SummaryResult{}, err
	}
	anchor, err := period.ParseDate(q.Date, s.loc)
	if err != nil {
		return SummaryResult{}, err
	}

	current, err := period.Window(kind, anchor)
	if err != nil {
		return SummaryResult{}, err
	}
	previous, err := period.Previous(kind, anchor)
	if err != nil {
		return SummaryResult{}, err
	}

	windows, err := s.repo.SessionsInWindows(ctx, q.AnimalTag, current, previous)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("load milk sessions: %w", err)
	}
	currentSessions, previousSessions := windows[0], windows[1]

	agg := Summarize(kind, toMeasurements(currentSessions, s.loc), toMeasurements(previousSessions, s.loc), q.AnimalTag)

	sort.SliceStable(currentSessions, func(i, j int) bool {
		return currentSessions[i].Time.After(currentSessions[j].Time)
	})

	pagination := models.NewPagination(q.Page, q.Limit, int64(len(currentSessions)))
	records := make([]SessionView, 0, pagination.Limit)
	for i := int(pagination.Skip()); i < len(currentSessions) && len(records) < pagination.Limit; i++ {
		records = append(records, toView(currentSessions[i]))
	}

	return SummaryResult{
		Range:      kind,
		Period:     current,
		Aggregate:  agg,
		Pagination: pagination,
		Records:    records,
	}, nil
}

// Export appends every session of the window to the milk sheet and returns
// how many rows were written.
func (s *Service) Export(ctx context.Context, rangeKind, date string) (int, error) {
	if s.exporter == nil {
		return 0, apperr.Validation("spreadsheet export is not configured")
	}
	if rangeKind == "" {
		rangeKind = string(period.Day)
	}

	kind, err := period.ParseKind(rangeKind)
	if err != nil {
		return 0, err
	}
	anchor, err := period.ParseDate(date, s.loc)
	if err != nil {
		return 0, err
	}
	window, err := period.Window(kind, anchor)
	if err != nil {
		return 0, err
	}

	windows, err := s.repo.SessionsInWindows(ctx, "", window)
	if err != nil {
		return 0, fmt.Errorf("load milk sessions: %w", err)
	}
	sessions := windows[0]
	if len(sessions) == 0 {
		return 0, apperr.NotFound("no milk sessions between %s and %s", window.Start.Format(period.DateLayout), window.End.Format(period.DateLayout))
	}

	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].Time.Before(sessions[j].Time) })

	rows := make([][]interface{}, 0, len(sessions))
	for _, ms := range sessions {
		rows = append(rows, []interface{}{
			ms.Date.In(s.loc).Format(period.DateLayout),
			ms.AnimalTag,
			string(ms.Period),
			ms.Quantity,
			ms.Time.In(s.loc).Format(time.RFC3339),
			ms.Recorder,
		})
	}

	if err := s.exporter.AppendRows(ctx, exportRange, rows); err != nil {
		return 0, apperr.Upstream("spreadsheet export failed", err)
	}

	s.logger.Info("milk sessions exported", zap.Int("rows", len(rows)), zap.String("range", string(kind)))
	return len(rows), nil
}

// toMeasurements moves session days back into the reporting location; the
// store hands dates back in UTC.
func toMeasurements(sessions []models.MilkSession, loc *time.Location) []Measurement {
	out := make([]Measurement, 0, len(sessions))
	for _, ms := range sessions {
		out = append(out, Measurement{AnimalTag: ms.AnimalTag, Quantity: ms.Quantity, Date: ms.Date.In(loc), Period: ms.Period})
	}
	return out
}

func toView(ms models.MilkSession) SessionView {
	return SessionView{
		Date:      ms.Date,
		AnimalTag: ms.AnimalTag,
		Time:      ms.Time,
		Period:    ms.Period,
		Quantity:  ms.Quantity,
		Recorder:  ms.Recorder,
	}
}
