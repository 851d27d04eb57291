package moderation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/code-payments/moderation-gateway/image"
	"github.com/code-payments/moderation-gateway/spool"
)

const textPromptTemplate = `
    Classify this message as toxic or safe:
    "%s"

    Respond ONLY JSON:
    {
        "classification": "...",
        "explanation": "..."
    }
    `

// BuildTextPrompt returns the classification prompt for text. The text is
// embedded as-is, without truncation or escaping.
func BuildTextPrompt(text string) string {
	return fmt.Sprintf(textPromptTemplate, text)
}

type Server struct {
	log      *zap.Logger
	text     TextGenerator
	detector AIDetector
	labels   LabelDetector
	spool    spool.Store
}

func NewServer(log *zap.Logger, text TextGenerator, detector AIDetector, labels LabelDetector, spoolStore spool.Store) *Server {
	return &Server{
		log:      log,
		text:     text,
		detector: detector,
		labels:   labels,
		spool:    spoolStore,
	}
}

// ModerateText asks the text model to classify req.Text and returns its
// answer verbatim.
func (s *Server) ModerateText(ctx context.Context, req *TextRequest) (*TextAnalysis, error) {
	log := s.log.With(zap.Int64("user_id", req.UserID), zap.Int("text_len", len(req.Text)))

	start := time.Now()
	out, err := s.text.Generate(ctx, BuildTextPrompt(req.Text))
	if err != nil {
		log.Warn("Text model call failed", zap.Error(err))
		return nil, upstream(ServiceGemini, err)
	}

	log.Debug("Text moderated", zap.Duration("latency", time.Since(start)))
	return &TextAnalysis{Analysis: out}, nil
}

// ModerateImage stages the upload, runs AI-generation detection and label
// detection concurrently, and merges both results. A failure of either call
// fails the whole request.
func (s *Server) ModerateImage(ctx context.Context, req *ImageRequest) (*ImageResult, error) {
	if len(req.Data) == 0 {
		return nil, ErrEmptyImage
	}

	info := image.Inspect(req.Data)
	filename := image.Filename(req.Filename, info)
	log := s.log.With(
		zap.String("filename", filename),
		zap.Int("size", info.Size),
		zap.String("format", info.Format),
	)

	artifact, err := s.spool.Put(ctx, info.Ext(), req.Data)
	if err != nil {
		log.Error("Failed to stage upload", zap.Error(err))
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	defer func() {
		if err := artifact.Release(); err != nil {
			log.Warn("Failed to release staged upload", zap.String("artifact", artifact.Name()), zap.Error(err))
		}
	}()

	var (
		score  *AIScore
		labels []Label
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		media, err := artifact.Open()
		if err != nil {
			return fmt.Errorf("failed to open staged upload: %w", err)
		}
		defer media.Close()

		score, err = s.detector.DetectAIGenerated(gctx, filename, media)
		return upstream(ServiceSightengine, err)
	})
	g.Go(func() error {
		var err error
		labels, err = s.labels.DetectModerationLabels(gctx, req.Data)
		return upstream(ServiceRekognition, err)
	})
	if err := g.Wait(); err != nil {
		log.Warn("Image moderation failed", zap.Error(err))
		return nil, err
	}

	if score == nil || !score.Present {
		log.Warn("Detector returned no ai_generated score, treating as not AI generated")
	}
	if labels == nil {
		labels = []Label{}
	}

	result := &ImageResult{
		AIGenerated: score.AIGenerated(),
		Labels:      labels,
	}

	log.Debug("Image moderated",
		zap.Bool("ai_generated", result.AIGenerated),
		zap.Int("labels", len(result.Labels)),
	)
	return result, nil
}
