package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// Client summarizes text with Google's Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client. baseURL is only set by tests.
func NewClient(ctx context.Context, apiKey, model, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = defaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Summarize sends text under systemPrompt and returns the generated text.
func (c *Client) Summarize(ctx context.Context, systemPrompt, text string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx,
		c.model,
		genai.Text(text),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.4),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	out := strings.TrimSpace(result.Text())
	if out == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return out, nil
}

// Model returns the model the client generates with.
func (c *Client) Model() string {
	return c.model
}
