package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/models"
	"github.com/mamadbah2/farmhand/internal/period"
	client "github.com/mamadbah2/farmhand/pkg/clients/whatsapp"
)

// maxBodyLength is the WhatsApp limit on a text message body.
const maxBodyLength = 4096

// MessagingService pushes notifications to WhatsApp numbers.
type MessagingService interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
	NotifySummary(ctx context.Context, summary models.ReportSummary) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	client    client.Client
	managerID string
	logger    *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance. Summaries are sent to managerID.
func NewMetaWhatsAppService(c client.Client, managerID string, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		client:    c,
		managerID: managerID,
		logger:    logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// SendOutbound sends a message, split into several when it exceeds the body limit.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, part := range splitBody(req.Message, maxBodyLength) {
		msg := client.SendTextMessageRequest{To: req.To, Body: part, PreviewURL: req.PreviewURL}
		resp, err := s.client.SendTextMessage(ctxWithTimeout, msg)
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Retryable() {
			s.logger.Warn("whatsapp throttled, retrying once", zap.Int("code", apiErr.Code), zap.String("trace_id", apiErr.TraceID))
			resp, err = s.client.SendTextMessage(ctxWithTimeout, msg)
		}
		if err != nil {
			if errors.As(err, &apiErr) {
				s.logger.Error("whatsapp rejected message",
					zap.String("to", req.To),
					zap.Int("status", apiErr.Status),
					zap.Int("code", apiErr.Code),
					zap.String("type", apiErr.Type),
					zap.String("trace_id", apiErr.TraceID))
			}
			return err
		}
		if resp != nil && len(resp.Messages) > 0 {
			s.logger.Debug("whatsapp message sent", zap.String("to", req.To), zap.String("message_id", resp.Messages[0].ID))
		}
	}
	return nil
}

// NotifySummary sends a generated summary to the manager number.
func (s *MetaWhatsAppService) NotifySummary(ctx context.Context, summary models.ReportSummary) error {
	if s.managerID == "" {
		return errors.New("no manager number configured")
	}

	label := string(summary.Type)
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}

	header := fmt.Sprintf("%s summary (%s - %s)",
		label,
		summary.StartDate.Format(period.DateLayout),
		summary.EndDate.Format(period.DateLayout))

	return s.SendOutbound(ctx, models.OutboundMessageRequest{
		To:      s.managerID,
		Message: header + "\n\n" + summary.Content,
	})
}

// splitBody cuts text into chunks of at most limit bytes, preferring line
// breaks and never splitting a rune.
func splitBody(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
