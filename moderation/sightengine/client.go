package sightengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/pkg/errors"

	"github.com/code-payments/moderation-gateway/moderation"
)

const (
	DefaultAPIURL = "https://api.sightengine.com/1.0/check.json"
	model         = "genai"

	statusSuccess = "success"
)

type Client struct {
	APIUser    string
	APISecret  string
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(apiUser, apiSecret string, baseURL ...string) *Client {
	url := DefaultAPIURL
	if len(baseURL) > 0 && baseURL[0] != "" {
		url = baseURL[0]
	}
	return &Client{
		APIUser:    apiUser,
		APISecret:  apiSecret,
		BaseURL:    url,
		HTTPClient: &http.Client{},
	}
}

type checkResponse struct {
	Status string `json:"status"`
	Type   *struct {
		AIGenerated *float64 `json:"ai_generated"`
	} `json:"type"`
	Error *struct {
		Type    string `json:"type"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// DetectAIGenerated runs the "genai" model on media. A successful response
// without type.ai_generated yields an AIScore with Present set to false.
func (c *Client) DetectAIGenerated(ctx context.Context, filename string, media io.Reader) (*moderation.AIScore, error) {
	body, contentType, err := c.buildForm(filename, media)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 status code: %d, response: %s", resp.StatusCode, string(responseBody))
	}

	var parsed checkResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}

	if parsed.Status != statusSuccess {
		if parsed.Error != nil {
			return nil, fmt.Errorf("check failed: %s (type=%s code=%d)", parsed.Error.Message, parsed.Error.Type, parsed.Error.Code)
		}
		return nil, fmt.Errorf("check failed with status %q", parsed.Status)
	}

	if parsed.Type == nil || parsed.Type.AIGenerated == nil {
		return &moderation.AIScore{}, nil
	}
	return &moderation.AIScore{Score: *parsed.Type.AIGenerated, Present: true}, nil
}

func (c *Client) buildForm(filename string, media io.Reader) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range []struct{ name, value string }{
		{"models", model},
		{"api_user", c.APIUser},
		{"api_secret", c.APISecret},
	} {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", errors.Wrap(err, "failed to write form field")
		}
	}

	part, err := w.CreateFormFile("media", filename)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to create media part")
	}
	if _, err := io.Copy(part, media); err != nil {
		return nil, "", errors.Wrap(err, "failed to copy media")
	}

	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "failed to finalize form")
	}
	return &buf, w.FormDataContentType(), nil
}
