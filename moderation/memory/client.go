package memory

import (
	"context"
	"io"
	"sync"

	"github.com/code-payments/moderation-gateway/moderation"
)

// TextGenerator returns a predetermined completion and records every prompt
// it was given.
type TextGenerator struct {
	response string
	err      error

	mu      sync.Mutex
	prompts []string
}

func NewTextGenerator(response string) *TextGenerator {
	return &TextGenerator{response: response}
}

func NewFailingTextGenerator(err error) *TextGenerator {
	return &TextGenerator{err: err}
}

func (g *TextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

// Prompts returns the prompts received so far.
func (g *TextGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]string(nil), g.prompts...)
}

// AIDetector returns a predetermined score. The media is drained so callers
// observe the same reads a real upload would perform.
type AIDetector struct {
	score moderation.AIScore
	err   error
}

func NewAIDetector(score float64) *AIDetector {
	return &AIDetector{score: moderation.AIScore{Score: score, Present: true}}
}

// NewAbsentScoreDetector answers successfully without a score.
func NewAbsentScoreDetector() *AIDetector {
	return &AIDetector{}
}

func NewFailingAIDetector(err error) *AIDetector {
	return &AIDetector{err: err}
}

func (d *AIDetector) DetectAIGenerated(ctx context.Context, filename string, media io.Reader) (*moderation.AIScore, error) {
	if _, err := io.Copy(io.Discard, media); err != nil {
		return nil, err
	}
	if d.err != nil {
		return nil, d.err
	}
	score := d.score
	return &score, nil
}

// LabelDetector returns a predetermined label list.
type LabelDetector struct {
	labels []moderation.Label
	err    error
}

func NewLabelDetector(labels ...moderation.Label) *LabelDetector {
	return &LabelDetector{labels: labels}
}

func NewFailingLabelDetector(err error) *LabelDetector {
	return &LabelDetector{err: err}
}

func (d *LabelDetector) DetectModerationLabels(ctx context.Context, image []byte) ([]moderation.Label, error) {
	if d.err != nil {
		return nil, d.err
	}
	return append([]moderation.Label(nil), d.labels...), nil
}
