package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/farmhand/internal/config"
)

// ErrMissingRecipient is returned before any call when the recipient or body is empty.
var ErrMissingRecipient = errors.New("recipient and body are required")

// Client sends notifications through the WhatsApp Cloud API.
type Client interface {
	SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendTextMessageResponse, error)
}

// APIClient talks to the Cloud API messages endpoint of one phone number.
type APIClient struct {
	httpClient    *resty.Client
	phoneNumberID string
}

// NewClient builds a client for cfg.PhoneNumberID authenticated with cfg.AccessToken.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	return &APIClient{
		httpClient: resty.New().
			SetBaseURL(base+"/"+cfg.APIVersion).
			SetAuthToken(cfg.AccessToken).
			SetHeader("Content-Type", "application/json").
			SetTimeout(15 * time.Second),
		phoneNumberID: cfg.PhoneNumberID,
	}
}

// SendTextMessageRequest is one plain text notification.
type SendTextMessageRequest struct {
	To         string
	Body       string
	PreviewURL bool
}

// SendTextMessageResponse carries the ids Meta assigned to the sent messages.
type SendTextMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

// APIError is a rejected call, decoded from the Graph API error envelope.
type APIError struct {
	Status  int
	Code    int
	Type    string
	Message string
	TraceID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error: status=%d code=%d message=%s", e.Status, e.Code, e.Message)
}

// Retryable reports whether Meta throttled the call rather than rejecting it.
func (e *APIError) Retryable() bool {
	return e.Status == 429 || e.Code == 4 || e.Code == 80007 || e.Code == 131048
}

type errorEnvelope struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// SendTextMessage delivers req.Body to req.To. Rejections come back as *APIError.
func (c *APIClient) SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendTextMessageResponse, error) {
	if req.To == "" || req.Body == "" {
		return nil, ErrMissingRecipient
	}

	result := new(SendTextMessageResponse)
	envelope := new(errorEnvelope)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(textMessage{
			MessagingProduct: "whatsapp",
			RecipientType:    "individual",
			To:               req.To,
			Type:             "text",
			Text:             textBody{Body: req.Body, PreviewURL: req.PreviewURL},
		}).
		SetResult(result).
		SetError(envelope).
		Post(c.phoneNumberID + "/messages")
	if err != nil {
		return nil, fmt.Errorf("send whatsapp message: %w", err)
	}
	if resp.IsError() {
		apiErr := &APIError{
			Status:  resp.StatusCode(),
			Code:    envelope.Error.Code,
			Type:    envelope.Error.Type,
			Message: envelope.Error.Message,
			TraceID: envelope.Error.FBTraceID,
		}
		if apiErr.Message == "" {
			apiErr.Message = resp.String()
		}
		return nil, apiErr
	}

	return result, nil
}
