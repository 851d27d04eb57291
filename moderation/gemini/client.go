package gemini

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

// Client sends single-turn prompts to a Gemini model with default sampling.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini API client. An empty model selects
// DefaultModel; a non-empty baseURL overrides the API host.
func NewClient(ctx context.Context, apiKey, model string, baseURL ...string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{},
	}
	if len(baseURL) > 0 && baseURL[0] != "" {
		cfg.HTTPOptions.BaseURL = baseURL[0]
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gemini client")
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) Model() string {
	return c.model
}

// Generate returns the text of the first candidate, unparsed.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate content")
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", errors.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("no candidates in response")
	}

	// A candidate stopped by a safety filter carries a finish reason but no
	// parts.
	candidate := resp.Candidates[0]
	if !hasText(candidate) {
		return "", errors.Errorf("candidate has no text, finish reason: %s", candidate.FinishReason)
	}

	return resp.Text(), nil
}

func hasText(candidate *genai.Candidate) bool {
	if candidate == nil || candidate.Content == nil {
		return false
	}
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought && part.Text != "" {
			return true
		}
	}
	return false
}
