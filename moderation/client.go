package moderation

import (
	"context"
	"io"
)

// Generates a free-text completion for a prompt. The completion is returned
// exactly as the model produced it.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Estimates the likelihood that an image was produced by a generative model.
type AIDetector interface {
	DetectAIGenerated(ctx context.Context, filename string, media io.Reader) (*AIScore, error)
}

// Detects sensitive content in raw image bytes.
type LabelDetector interface {
	DetectModerationLabels(ctx context.Context, image []byte) ([]Label, error)
}

// TextGeneratorFunc adapts a function to the TextGenerator interface.
type TextGeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f TextGeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// AIDetectorFunc adapts a function to the AIDetector interface.
type AIDetectorFunc func(ctx context.Context, filename string, media io.Reader) (*AIScore, error)

func (f AIDetectorFunc) DetectAIGenerated(ctx context.Context, filename string, media io.Reader) (*AIScore, error) {
	return f(ctx, filename, media)
}

// LabelDetectorFunc adapts a function to the LabelDetector interface.
type LabelDetectorFunc func(ctx context.Context, image []byte) ([]Label, error)

func (f LabelDetectorFunc) DetectModerationLabels(ctx context.Context, image []byte) ([]Label, error) {
	return f(ctx, image)
}
