package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmhand/internal/config"
)

func TestSendTextMessage(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "token", PhoneNumberID: "12345", BaseURL: srv.URL + "/", APIVersion: "v20.0"})
	resp, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "224600000000", Body: "hello"})

	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "wamid.1", resp.Messages[0].ID)
	assert.Equal(t, "224600000000", payload["to"])
	assert.Equal(t, "whatsapp", payload["messaging_product"])
	assert.Equal(t, map[string]any{"body": "hello", "preview_url": false}, payload["text"])
}

func TestSendTextMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100,"fbtrace_id":"abc"}}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "token", PhoneNumberID: "1", BaseURL: srv.URL, APIVersion: "v20.0"})
	_, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "2", Body: "x"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, 100, apiErr.Code)
	assert.Equal(t, "abc", apiErr.TraceID)
	assert.False(t, apiErr.Retryable())
	assert.Contains(t, err.Error(), "Invalid parameter")
}

func TestSendTextMessageThrottled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{PhoneNumberID: "1", BaseURL: srv.URL, APIVersion: "v20.0"})
	_, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "2", Body: "x"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Retryable())
	assert.Equal(t, "slow down", apiErr.Message)
}

func TestSendTextMessageValidates(t *testing.T) {
	client := NewClient(config.WhatsAppConfig{BaseURL: "http://unused", APIVersion: "v1"})
	_, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{})
	assert.ErrorIs(t, err, ErrMissingRecipient)
}
