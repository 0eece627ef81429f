package reports

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmhand/internal/domain/apperr"
	"github.com/mamadbah2/farmhand/internal/domain/models"
	"github.com/mamadbah2/farmhand/internal/period"
)

type fakeRepo struct {
	reports map[string]models.WorkReport
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{reports: map[string]models.WorkReport{}}
}

func (f *fakeRepo) UpsertReport(_ context.Context, r models.WorkReport) (models.WorkReport, error) {
	for id, existing := range f.reports {
		if existing.UserID == r.UserID && existing.Date.Equal(r.Date) {
			existing.Title, existing.Tasks, existing.Challenges, existing.NextPlan = r.Title, r.Tasks, r.Challenges, r.NextPlan
			existing.UpdatedAt = r.UpdatedAt
			f.reports[id] = existing
			return existing, nil
		}
	}
	f.reports[r.ID] = r
	return r, nil
}

func (f *fakeRepo) GetReport(_ context.Context, id string) (models.WorkReport, error) {
	r, ok := f.reports[id]
	if !ok {
		return models.WorkReport{}, apperr.NotFound("report not found")
	}
	return r, nil
}

func (f *fakeRepo) UpdateReport(_ context.Context, id string, fields Update, updatedAt time.Time) (models.WorkReport, error) {
	r, ok := f.reports[id]
	if !ok {
		return models.WorkReport{}, apperr.NotFound("report not found")
	}
	if fields.Title != nil {
		r.Title = *fields.Title
	}
	if fields.Tasks != nil {
		r.Tasks = *fields.Tasks
	}
	if fields.Challenges != nil {
		r.Challenges = *fields.Challenges
	}
	if fields.NextPlan != nil {
		r.NextPlan = *fields.NextPlan
	}
	r.UpdatedAt = updatedAt
	f.reports[id] = r
	return r, nil
}

func (f *fakeRepo) DeleteReport(_ context.Context, id string) error {
	if _, ok := f.reports[id]; !ok {
		return apperr.NotFound("report not found")
	}
	delete(f.reports, id)
	return nil
}

func (f *fakeRepo) ReportsBetween(_ context.Context, start, end time.Time) ([]models.WorkReport, error) {
	var out []models.WorkReport
	for _, r := range f.reports {
		if !r.Date.Before(start) && !r.Date.After(end) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type fakeUsers struct{}

func (fakeUsers) GetUser(_ context.Context, id string) (models.User, error) {
	if id == "ghost" {
		return models.User{}, apperr.NotFound("user not found")
	}
	return models.User{ID: id, Name: "Name of " + id}, nil
}

func newTestService(repo *fakeRepo) *Service {
	svc := NewService(repo, fakeUsers{}, time.UTC, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 15, 18, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateUpsertsPerUserAndDay(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	first, err := svc.Create(context.Background(), "u1", models.WorkReportInput{Title: "Feeding", Tasks: "fed cows", Date: "2024-05-15"})
	require.NoError(t, err)
	assert.Equal(t, "Name of u1", first.UserName)
	assert.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), first.Date)

	second, err := svc.Create(context.Background(), "u1", models.WorkReportInput{Title: "Feeding", Tasks: "fed cows twice", Date: "2024-05-15T16:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "fed cows twice", second.Tasks)
	assert.Len(t, repo.reports, 1)

	_, err = svc.Create(context.Background(), "u1", models.WorkReportInput{Title: "x", Date: "2024-05-15"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Create(context.Background(), "ghost", models.WorkReportInput{Title: "x", Tasks: "y", Date: "2024-05-15"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

var author = models.Identity{UserID: "u1", Role: models.RoleTeamMember}

func TestUpdateAndDelete(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	report, err := svc.Create(context.Background(), "u1", models.WorkReportInput{Title: "Milking", Tasks: "milked", Date: "2024-05-15"})
	require.NoError(t, err)

	plan := "clean barn"
	updated, err := svc.Update(context.Background(), author, report.ID, Update{NextPlan: &plan})
	require.NoError(t, err)
	assert.Equal(t, "clean barn", updated.NextPlan)
	assert.Equal(t, "Milking", updated.Title)

	_, err = svc.Update(context.Background(), author, report.ID, Update{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	blank := " "
	_, err = svc.Update(context.Background(), author, report.ID, Update{Title: &blank})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Update(context.Background(), author, "missing", Update{NextPlan: &plan})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, svc.Delete(context.Background(), author, report.ID))
	assert.True(t, apperr.Is(svc.Delete(context.Background(), author, report.ID), apperr.KindNotFound))

	_, err = svc.Get(context.Background(), author, report.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestReportAccessIsOwnerOrManager(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	report, err := svc.Create(context.Background(), "u1", models.WorkReportInput{Title: "Milking", Tasks: "milked", Date: "2024-05-15"})
	require.NoError(t, err)

	other := models.Identity{UserID: "u2", Role: models.RoleTeamMember}
	leader := models.Identity{UserID: "u3", Role: models.RoleTeamLeader}
	plan := "rest"

	_, err = svc.Get(context.Background(), other, report.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = svc.Update(context.Background(), other, report.ID, Update{NextPlan: &plan})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.True(t, apperr.Is(svc.Delete(context.Background(), other, report.ID), apperr.KindForbidden))
	assert.Empty(t, repo.reports[report.ID].NextPlan)

	got, err := svc.Get(context.Background(), leader, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
	require.NoError(t, svc.Delete(context.Background(), leader, report.ID))
	assert.Empty(t, repo.reports)
}

func TestOverviewFiltersEachWindow(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	for _, d := range []string{"2024-05-15", "2024-05-13", "2024-05-02", "2024-04-30"} {
		_, err := svc.Create(context.Background(), "u1", models.WorkReportInput{Title: "t", Tasks: "x", Date: d})
		require.NoError(t, err)
	}

	out, err := svc.Overview(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, Counts{Daily: 1, Weekly: 2, Monthly: 3}, out.Counts)
	require.Len(t, out.Reports[period.Month], 3)
	assert.Equal(t, 15, out.Reports[period.Month][0].Date.Day())

	out, err = svc.Overview(context.Background(), "week", "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, Counts{Weekly: 2}, out.Counts)
	assert.Empty(t, out.Reports[period.Day])

	_, err = svc.Overview(context.Background(), "", "not-a-date")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
