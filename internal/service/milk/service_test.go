package milk

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/apperr"
	"github.com/mamadbah2/farmhand/internal/domain/models"
	"github.com/mamadbah2/farmhand/internal/period"
)

type fakeRepo struct {
	animals  []models.Animal
	sessions []models.MilkSession
	records  []models.MilkRecord
}

func (f *fakeRepo) CreateAnimal(_ context.Context, animal models.Animal) error {
	for _, a := range f.animals {
		if a.AnimalTag == animal.AnimalTag {
			return apperr.Conflict("duplicate key")
		}
	}
	f.animals = append(f.animals, animal)
	return nil
}

func (f *fakeRepo) ListAnimals(context.Context) ([]models.Animal, error) {
	return f.animals, nil
}

func (f *fakeRepo) RecordSession(_ context.Context, record models.MilkRecord, session models.MilkSession) (models.MilkRecord, models.MilkSession, error) {
	existing := false
	for _, r := range f.records {
		if r.AnimalID == record.AnimalID && r.Date.Equal(record.Date) {
			record, existing = r, true
		}
	}
	if !existing {
		f.records = append(f.records, record)
	}
	session.RecordID = record.ID
	for i, s := range f.sessions {
		if s.RecordID == record.ID && s.Period == session.Period {
			session.ID = s.ID
			f.sessions[i] = session
			return record, session, nil
		}
	}
	f.sessions = append(f.sessions, session)
	return record, session, nil
}

func (f *fakeRepo) SessionsInWindows(_ context.Context, tag string, ranges ...period.Range) ([][]models.MilkSession, error) {
	out := make([][]models.MilkSession, len(ranges))
	for i, r := range ranges {
		out[i] = []models.MilkSession{}
		for _, s := range f.sessions {
			if r.Contains(s.Date) && MatchesTag(s.AnimalTag, tag) {
				out[i] = append(out[i], s)
			}
		}
	}
	return out, nil
}

type fakeUsers map[string]models.User

func (f fakeUsers) GetUser(_ context.Context, id string) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

type fakeExporter struct {
	rows  [][]interface{}
	where string
	err   error
}

func (f *fakeExporter) AppendRows(_ context.Context, sheetRange string, rows [][]interface{}) error {
	f.where = sheetRange
	f.rows = append(f.rows, rows...)
	return f.err
}

func newTestService(repo *fakeRepo, exporter Exporter) *Service {
	svc := NewService(repo, fakeUsers{"u1": {ID: "u1", Name: "Awa"}}, exporter, time.UTC, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, time.May, 15, 8, 0, 0, 0, time.UTC) }
	return svc
}

func session(tag string, d time.Time, p models.MilkPeriod, qty float64) models.MilkSession {
	return models.MilkSession{
		ID:        fmt.Sprintf("%s-%s-%s", tag, d.Format(period.DateLayout), p),
		AnimalTag: tag,
		Date:      d,
		Period:    p,
		Quantity:  qty,
		Time:      d.Add(6 * time.Hour),
	}
}

func TestSummaryPaginationDoesNotChangeAggregates(t *testing.T) {
	repo := &fakeRepo{}
	for i := 0; i < 7; i++ {
		d := day(2024, time.May, 12+i)
		repo.sessions = append(repo.sessions,
			session("COW-1", d, models.MilkMorning, 4),
			session("COW-2", d, models.MilkEvening, 3.5),
		)
	}
	repo.sessions = append(repo.sessions, session("COW-1", day(2024, time.May, 8), models.MilkMorning, 9))
	svc := newTestService(repo, nil)

	var baseline *SummaryResult
	for _, page := range []struct{ page, limit int }{{1, 3}, {2, 3}, {5, 3}, {1, 100}} {
		res, err := svc.Summary(context.Background(), SummaryQuery{Range: "week", Date: "2024-05-15", Page: page.page, Limit: page.limit})
		require.NoError(t, err)

		if baseline == nil {
			baseline = &res
			assert.Equal(t, 52.5, res.TotalQuantity)
			assert.Equal(t, 9.0, res.PreviousTotalQuantity)
			assert.Equal(t, 2, res.DistinctAnimals)
			assert.Equal(t, int64(14), res.Pagination.TotalRecords)
			assert.Equal(t, 5, res.Pagination.TotalPages)
			continue
		}
		assert.Equal(t, baseline.Aggregate, res.Aggregate)
	}
}

func TestSummaryPageBeyondLastIsEmpty(t *testing.T) {
	repo := &fakeRepo{sessions: []models.MilkSession{
		session("COW-1", day(2024, time.May, 15), models.MilkMorning, 4),
	}}
	svc := newTestService(repo, nil)

	res, err := svc.Summary(context.Background(), SummaryQuery{Range: "day", Date: "2024-05-15", Page: 2305843009213693953, Limit: 4})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, 4.0, res.TotalQuantity)
	assert.Equal(t, models.MaxPage, res.Pagination.Page)
}

func TestSummaryRecordsNewestFirst(t *testing.T) {
	repo := &fakeRepo{sessions: []models.MilkSession{
		session("COW-1", day(2024, time.May, 13), models.MilkMorning, 1),
		session("COW-1", day(2024, time.May, 14), models.MilkMorning, 2),
	}}
	svc := newTestService(repo, nil)

	res, err := svc.Summary(context.Background(), SummaryQuery{Range: "week", Date: "2024-05-15", Limit: 1})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 2.0, res.Records[0].Quantity)
}

func TestSummaryFilterAppliesToPreviousWindow(t *testing.T) {
	repo := &fakeRepo{sessions: []models.MilkSession{
		session("COW-1", day(2024, time.May, 14), models.MilkMorning, 5),
		session("COW-1", day(2024, time.May, 13), models.MilkMorning, 2),
		session("GOAT-1", day(2024, time.May, 13), models.MilkMorning, 8),
	}}
	svc := newTestService(repo, nil)

	res, err := svc.Summary(context.Background(), SummaryQuery{Range: "day", Date: "2024-05-14", AnimalTag: "cow"})
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.TotalQuantity)
	assert.Equal(t, 2.0, res.PreviousTotalQuantity)
	require.NotNil(t, res.Focus)
	assert.Equal(t, "COW-1", res.Focus.AnimalTag)
}

func TestSummaryValidation(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil)

	_, err := svc.Summary(context.Background(), SummaryQuery{Range: "week"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Summary(context.Background(), SummaryQuery{Range: "decade", Date: "2024-05-15"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRecordMilkUpsertsSession(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, nil)
	entry := models.MilkEntry{AnimalID: "a1", AnimalTag: "COW-1", Period: models.MilkMorning, Quantity: 4}

	_, first, err := svc.RecordMilk(context.Background(), "u1", entry)
	require.NoError(t, err)
	assert.Equal(t, "Awa", first.Recorder)
	assert.Equal(t, day(2024, time.May, 15), first.Date)

	entry.Quantity = 6
	_, second, err := svc.RecordMilk(context.Background(), "u1", entry)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, repo.sessions, 1)
	assert.Equal(t, 6.0, repo.sessions[0].Quantity)
}

func TestRecordMilkErrors(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil)

	_, _, err := svc.RecordMilk(context.Background(), "u1", models.MilkEntry{AnimalID: "a1"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, _, err = svc.RecordMilk(context.Background(), "u1", models.MilkEntry{AnimalID: "a1", AnimalTag: "C", Period: "Noon", Quantity: 1})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, _, err = svc.RecordMilk(context.Background(), "ghost", models.MilkEntry{AnimalID: "a1", AnimalTag: "C", Period: models.MilkEvening, Quantity: 1})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateAnimalConflict(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil)

	_, err := svc.CreateAnimal(context.Background(), " COW-1 ")
	require.NoError(t, err)

	_, err = svc.CreateAnimal(context.Background(), "COW-1")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.CreateAnimal(context.Background(), "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestExport(t *testing.T) {
	repo := &fakeRepo{sessions: []models.MilkSession{
		session("COW-1", day(2024, time.May, 14), models.MilkMorning, 5),
		session("COW-2", day(2024, time.May, 13), models.MilkEvening, 2),
	}}

	t.Run("not configured", func(t *testing.T) {
		_, err := newTestService(repo, nil).Export(context.Background(), "week", "2024-05-15")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("appends rows oldest first", func(t *testing.T) {
		exporter := &fakeExporter{}
		n, err := newTestService(repo, exporter).Export(context.Background(), "week", "2024-05-15")
		require.NoError(t, err)

		assert.Equal(t, 2, n)
		assert.Equal(t, exportRange, exporter.where)
		assert.Equal(t, "COW-2", exporter.rows[0][1])
	})

	t.Run("upstream failure", func(t *testing.T) {
		exporter := &fakeExporter{err: fmt.Errorf("quota exceeded")}
		_, err := newTestService(repo, exporter).Export(context.Background(), "week", "2024-05-15")
		assert.True(t, apperr.Is(err, apperr.KindUpstream))
		assert.True(t, strings.Contains(err.Error(), "quota"))
	})

	t.Run("empty window", func(t *testing.T) {
		_, err := newTestService(repo, &fakeExporter{}).Export(context.Background(), "day", "2024-01-01")
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}
