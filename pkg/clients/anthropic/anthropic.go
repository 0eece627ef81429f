package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	defaultModel   = "claude-3-haiku-20240307"
	maxTokens      = 1024
	temperature    = 0.4
)

// Client summarizes text with the Anthropic Messages API.
type Client struct {
	httpClient *resty.Client
	model      string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.httpClient.SetBaseURL(strings.TrimSuffix(url, "/"))
	}
}

// WithModel overrides the default model. Empty values are ignored.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// NewClient creates a configured Anthropic client.
func NewClient(apiKey string, opts ...Option) *Client {
	httpClient := resty.New().
		SetBaseURL(defaultBaseURL).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(60 * time.Second)

	c := &Client{httpClient: httpClient, model: defaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type messageRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Summarize sends text as the user turn under systemPrompt and returns the reply text.
func (c *Client) Summarize(ctx context.Context, systemPrompt, text string) (string, error) {
	reqBody := messageRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      systemPrompt,
		Messages:    []message{{Role: "user", Content: text}},
	}

	var respBody messageResponse
	var errBody apiError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		SetError(&errBody).
		Post("/v1/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		msg := errBody.Error.Message
		if msg == "" {
			msg = resp.String()
		}
		return "", fmt.Errorf("anthropic api error: status=%d, message=%s", resp.StatusCode(), msg)
	}

	var parts []string
	for _, block := range respBody.Content {
		if block.Type == "" || block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("empty response from anthropic")
	}

	return strings.TrimSpace(strings.Join(parts, "")), nil
}
