package summary

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/apperr"
	"github.com/mamadbah2/farmhand/internal/domain/models"
)

type fakeReports struct {
	reports    []models.WorkReport
	start, end time.Time
}

func (f *fakeReports) ReportsBetween(_ context.Context, start, end time.Time) ([]models.WorkReport, error) {
	f.start, f.end = start, end
	var out []models.WorkReport
	for _, r := range f.reports {
		if !r.Date.Before(start) && !r.Date.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

type summaryKey struct {
	typ        models.SummaryType
	start, end time.Time
}

type fakeRepo struct {
	rows map[summaryKey]models.ReportSummary
}

func (f *fakeRepo) UpsertSummary(_ context.Context, s models.ReportSummary) (models.ReportSummary, error) {
	if f.rows == nil {
		f.rows = map[summaryKey]models.ReportSummary{}
	}
	key := summaryKey{s.Type, s.StartDate, s.EndDate}
	if existing, ok := f.rows[key]; ok {
		existing.Content = s.Content
		existing.UpdatedAt = s.UpdatedAt
		f.rows[key] = existing
		return existing, nil
	}
	f.rows[key] = s
	return s, nil
}

func (f *fakeRepo) ListSummaries(_ context.Context, t models.SummaryType) ([]models.ReportSummary, error) {
	var out []models.ReportSummary
	for k, v := range f.rows {
		if k.typ == t {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeSummarizer struct {
	calls   int
	errs    []error
	reply   string
	prompt  string
	text    string
	timeout bool
}

func (f *fakeSummarizer) Summarize(ctx context.Context, systemPrompt, text string) (string, error) {
	f.calls++
	f.prompt, f.text = systemPrompt, text
	_, f.timeout = ctx.Deadline()
	if len(f.errs) >= f.calls && f.errs[f.calls-1] != nil {
		return "", f.errs[f.calls-1]
	}
	return f.reply, nil
}

type fakeNotifier struct {
	sent []models.ReportSummary
	err  error
}

func (f *fakeNotifier) NotifySummary(_ context.Context, s models.ReportSummary) error {
	f.sent = append(f.sent, s)
	return f.err
}

var fixedNow = time.Date(2024, time.May, 15, 17, 30, 0, 0, time.UTC)

func newTestService(reports *fakeReports, repo *fakeRepo, summarizer Summarizer, notifier Notifier) *Service {
	svc := NewService(reports, repo, summarizer, notifier, time.Second, time.UTC, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func todayReport(title string) models.WorkReport {
	return models.WorkReport{
		ID:     "r-" + title,
		UserID: "u1",
		Date:   time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC),
		Title:  title,
		Tasks:  "milked the herd",
	}
}

func TestGenerateDailyUpserts(t *testing.T) {
	reports := &fakeReports{reports: []models.WorkReport{todayReport("morning")}}
	repo := &fakeRepo{}
	summarizer := &fakeSummarizer{reply: "All good."}
	svc := newTestService(reports, repo, summarizer, nil)

	first, err := svc.Generate(context.Background(), models.SummaryDaily)
	require.NoError(t, err)

	summarizer.reply = "Still good."
	second, err := svc.Generate(context.Background(), models.SummaryDaily)
	require.NoError(t, err)

	assert.Len(t, repo.rows, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Still good.", second.Content)
	assert.Equal(t, SystemPrompt, summarizer.prompt)
	assert.True(t, summarizer.timeout)

	day := time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, day, second.StartDate)
	assert.Equal(t, day, second.EndDate)
	assert.Equal(t, day, reports.start)
	assert.Equal(t, 23, reports.end.Hour())
}

func TestGenerateWithoutReportsIsNotFound(t *testing.T) {
	repo := &fakeRepo{}
	summarizer := &fakeSummarizer{reply: "x"}
	svc := newTestService(&fakeReports{}, repo, summarizer, nil)

	_, err := svc.Generate(context.Background(), models.SummaryDaily)

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Empty(t, repo.rows)
	assert.Zero(t, summarizer.calls)
}

func TestGenerateWeeklyWindow(t *testing.T) {
	reports := &fakeReports{reports: []models.WorkReport{todayReport("wed")}}
	svc := newTestService(reports, &fakeRepo{}, &fakeSummarizer{reply: "ok"}, nil)

	saved, err := svc.Generate(context.Background(), models.SummaryWeekly)
	require.NoError(t, err)

	assert.Equal(t, time.Sunday, saved.StartDate.Weekday())
	assert.Equal(t, 12, saved.StartDate.Day())
	assert.Equal(t, 15, saved.EndDate.Day())
}

func TestGenerateInvalidType(t *testing.T) {
	svc := newTestService(&fakeReports{}, &fakeRepo{}, &fakeSummarizer{}, nil)

	_, err := svc.Generate(context.Background(), "yearly")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestGenerateUpstreamFailure(t *testing.T) {
	reports := &fakeReports{reports: []models.WorkReport{todayReport("a")}}

	t.Run("non network error is not retried", func(t *testing.T) {
		summarizer := &fakeSummarizer{errs: []error{errors.New("quota exceeded")}}
		repo := &fakeRepo{}
		_, err := newTestService(reports, repo, summarizer, nil).Generate(context.Background(), models.SummaryDaily)

		assert.True(t, apperr.Is(err, apperr.KindUpstream))
		assert.Equal(t, 1, summarizer.calls)
		assert.Empty(t, repo.rows)
	})

	t.Run("network error retried once", func(t *testing.T) {
		netErr := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		summarizer := &fakeSummarizer{errs: []error{netErr}, reply: "recovered"}
		saved, err := newTestService(reports, &fakeRepo{}, summarizer, nil).Generate(context.Background(), models.SummaryDaily)

		require.NoError(t, err)
		assert.Equal(t, 2, summarizer.calls)
		assert.Equal(t, "recovered", saved.Content)
	})

	t.Run("second network error gives up", func(t *testing.T) {
		netErr := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		summarizer := &fakeSummarizer{errs: []error{netErr, netErr}}
		_, err := newTestService(reports, &fakeRepo{}, summarizer, nil).Generate(context.Background(), models.SummaryDaily)

		assert.True(t, apperr.Is(err, apperr.KindUpstream))
		assert.Equal(t, 2, summarizer.calls)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := newTestService(reports, &fakeRepo{}, &fakeSummarizer{reply: "  "}, nil).Generate(context.Background(), models.SummaryDaily)
		assert.True(t, apperr.Is(err, apperr.KindUpstream))
	})
}

func TestGenerateNotifies(t *testing.T) {
	reports := &fakeReports{reports: []models.WorkReport{todayReport("a")}}
	notifier := &fakeNotifier{err: errors.New("whatsapp down")}

	saved, err := newTestService(reports, &fakeRepo{}, &fakeSummarizer{reply: "ok"}, notifier).Generate(context.Background(), models.SummaryDaily)

	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, saved.ID, notifier.sent[0].ID)
}

func TestList(t *testing.T) {
	svc := newTestService(&fakeReports{}, &fakeRepo{}, &fakeSummarizer{}, nil)

	_, err := svc.List(context.Background(), "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.List(context.Background(), "hourly")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	out, err := svc.List(context.Background(), models.SummaryWeekly)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRender(t *testing.T) {
	reports := []models.WorkReport{
		{Date: time.Date(2024, time.May, 14, 0, 0, 0, 0, time.UTC), Title: "Feeding", Tasks: "fed calves", Challenges: "rain"},
		{Date: time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC), Tasks: "vet visit"},
	}

	text := Render(reports, time.UTC)

	assert.Equal(t, 2, len(strings.Split(text, reportSeparator)))
	assert.Contains(t, text, "Date: 2024-05-14\nTitle: Feeding\nTasks Done:\nfed calves\nChallenges:\nrain\nNext Plan:\nNone\n")
	assert.Contains(t, text, "Title: N/A")
}
