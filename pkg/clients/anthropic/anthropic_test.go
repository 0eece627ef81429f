package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	var got messageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"  Team delivered.  "}]}`))
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL), WithModel("claude-test"))
	out, err := client.Summarize(context.Background(), "be brief", "reports")

	require.NoError(t, err)
	assert.Equal(t, "Team delivered.", out)
	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, "be brief", got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "reports", got.Messages[0].Content)
}

func TestSummarizeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	_, err := NewClient("secret", WithBaseURL(srv.URL)).Summarize(context.Background(), "p", "t")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "slow down")
	assert.Contains(t, err.Error(), "429")
}

func TestSummarizeEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient("secret", WithBaseURL(srv.URL)).Summarize(context.Background(), "p", "t")
	assert.Error(t, err)
}
