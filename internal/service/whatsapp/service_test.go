package whatsapp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/farmhand/internal/domain/models"
	client "github.com/mamadbah2/farmhand/pkg/clients/whatsapp"
)

type fakeClient struct {
	sent []client.SendTextMessageRequest
	err  error
	// errs, when set, are returned in order before err.
	errs []error
}

func (f *fakeClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	f.sent = append(f.sent, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
		return &client.SendTextMessageResponse{}, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return &client.SendTextMessageResponse{}, nil
}

func TestNotifySummary(t *testing.T) {
	fc := &fakeClient{}
	svc := NewMetaWhatsAppService(fc, "224600000000", zap.NewNop())

	err := svc.NotifySummary(context.Background(), models.ReportSummary{
		Type:      models.SummaryWeekly,
		StartDate: time.Date(2024, time.May, 12, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC),
		Content:   "Herd is healthy.",
	})

	require.NoError(t, err)
	require.Len(t, fc.sent, 1)
	assert.Equal(t, "224600000000", fc.sent[0].To)
	assert.True(t, strings.HasPrefix(fc.sent[0].Body, "Weekly summary (2024-05-12 - 2024-05-15)"))
	assert.Contains(t, fc.sent[0].Body, "Herd is healthy.")
}

func TestNotifySummaryWithoutManager(t *testing.T) {
	svc := NewMetaWhatsAppService(&fakeClient{}, "", nil)
	assert.Error(t, svc.NotifySummary(context.Background(), models.ReportSummary{Type: models.SummaryDaily}))
}

func TestSendOutboundSplitsLongMessages(t *testing.T) {
	fc := &fakeClient{}
	svc := NewMetaWhatsAppService(fc, "", nil)

	line := strings.Repeat("a", 3000)
	err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "1", Message: line + "\n" + line})

	require.NoError(t, err)
	require.Len(t, fc.sent, 2)
	assert.Equal(t, line, fc.sent[0].Body)
	assert.Equal(t, line, fc.sent[1].Body)
}

func TestSendOutboundPropagatesErrors(t *testing.T) {
	svc := NewMetaWhatsAppService(&fakeClient{err: errors.New("boom")}, "", nil)
	assert.Error(t, svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "1", Message: "x"}))
}

func TestSplitBody(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitBody("short", 10))

	parts := splitBody(strings.Repeat("é", 10), 5)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 5)
		assert.True(t, strings.Trim(p, "é") == "", p)
	}
	assert.Equal(t, strings.Repeat("é", 10), strings.Join(parts, ""))
}

func TestSendOutboundRetriesThrottledOnce(t *testing.T) {
	fc := &fakeClient{errs: []error{&client.APIError{Status: 429}, nil}}
	svc := NewMetaWhatsAppService(fc, "", nil)

	require.NoError(t, svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "1", Message: "x"}))
	assert.Len(t, fc.sent, 2)
}

func TestSendOutboundLogsRejection(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	fc := &fakeClient{err: &client.APIError{Status: 400, Code: 131030, Type: "OAuthException", TraceID: "trace-1"}}
	svc := NewMetaWhatsAppService(fc, "", zap.New(core))

	err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "1", Message: "x"})

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Len(t, fc.sent, 1)
	entries := logs.FilterMessage("whatsapp rejected message").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(131030), entries[0].ContextMap()["code"])
	assert.Equal(t, "trace-1", entries[0].ContextMap()["trace_id"])
}
