package tests

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/moderation-gateway/moderation"
)

// A tiny payload is enough: backends under test are stubs or live services
// that reject it with a well-formed error.
var sampleImage = []byte("\xff\xd8\xff\xe0sample-image-bytes")

func RunTextGeneratorTests(t *testing.T, gen moderation.TextGenerator, want string, teardown func()) {
	for _, tf := range []func(t *testing.T, gen moderation.TextGenerator, want string){
		testGenerate,
		testGenerateLongPrompt,
	} {
		tf(t, gen, want)
		teardown()
	}
}

func RunAIDetectorTests(t *testing.T, detector moderation.AIDetector, want *moderation.AIScore, teardown func()) {
	for _, tf := range []func(t *testing.T, detector moderation.AIDetector, want *moderation.AIScore){
		testDetectAIGenerated,
	} {
		tf(t, detector, want)
		teardown()
	}
}

func RunLabelDetectorTests(t *testing.T, detector moderation.LabelDetector, want []moderation.Label, teardown func()) {
	for _, tf := range []func(t *testing.T, detector moderation.LabelDetector, want []moderation.Label){
		testDetectModerationLabels,
	} {
		tf(t, detector, want)
		teardown()
	}
}

func testGenerate(t *testing.T, gen moderation.TextGenerator, want string) {
	t.Run("Generate", func(t *testing.T) {
		out, err := gen.Generate(context.Background(), moderation.BuildTextPrompt("hello"))
		require.NoError(t, err)
		require.Equal(t, want, out, "completion should be returned verbatim")
	})
}

func testGenerateLongPrompt(t *testing.T, gen moderation.TextGenerator, want string) {
	t.Run("Generate long prompt", func(t *testing.T) {
		text := string(bytes.Repeat([]byte("long text "), 10_000))

		out, err := gen.Generate(context.Background(), moderation.BuildTextPrompt(text))
		require.NoError(t, err)
		require.Equal(t, want, out)
	})
}

func testDetectAIGenerated(t *testing.T, detector moderation.AIDetector, want *moderation.AIScore) {
	t.Run("Detect AI generated", func(t *testing.T) {
		score, err := detector.DetectAIGenerated(context.Background(), "sample.jpg", bytes.NewReader(sampleImage))
		require.NoError(t, err)
		require.NotNil(t, score)
		require.Equal(t, want.Present, score.Present)
		require.InDelta(t, want.Score, score.Score, 1e-9)
	})
}

func testDetectModerationLabels(t *testing.T, detector moderation.LabelDetector, want []moderation.Label) {
	t.Run("Detect moderation labels", func(t *testing.T) {
		labels, err := detector.DetectModerationLabels(context.Background(), sampleImage)
		require.NoError(t, err)
		require.Equal(t, len(want), len(labels))
		for i := range want {
			require.Equal(t, want[i], labels[i], "labels should keep upstream order and fields")
		}
	})
}
