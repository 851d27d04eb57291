package metrics

import (
	"context"
	"io"
	"time"

	"github.com/code-payments/moderation-gateway/moderation"
)

// InstrumentTextGenerator records call counts and latency for gen.
func InstrumentTextGenerator(c *Collector, gen moderation.TextGenerator) moderation.TextGenerator {
	return moderation.TextGeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		start := time.Now()
		out, err := gen.Generate(ctx, prompt)
		c.RecordUpstream(moderation.ServiceGemini, time.Since(start), err)
		return out, err
	})
}

// InstrumentAIDetector records call counts, latency and verdicts for d.
func InstrumentAIDetector(c *Collector, d moderation.AIDetector) moderation.AIDetector {
	return moderation.AIDetectorFunc(func(ctx context.Context, filename string, media io.Reader) (*moderation.AIScore, error) {
		start := time.Now()
		score, err := d.DetectAIGenerated(ctx, filename, media)
		c.RecordUpstream(moderation.ServiceSightengine, time.Since(start), err)
		if err == nil && score != nil {
			c.RecordAIScore(score.Present, score.AIGenerated())
		}
		return score, err
	})
}

// InstrumentLabelDetector records call counts, latency and label volume for d.
func InstrumentLabelDetector(c *Collector, d moderation.LabelDetector) moderation.LabelDetector {
	return moderation.LabelDetectorFunc(func(ctx context.Context, image []byte) ([]moderation.Label, error) {
		start := time.Now()
		labels, err := d.DetectModerationLabels(ctx, image)
		c.RecordUpstream(moderation.ServiceRekognition, time.Since(start), err)
		if err == nil {
			c.RecordLabels(len(labels))
		}
		return labels, err
	})
}
