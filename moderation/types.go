package moderation

// Scores strictly above this value mark an image as AI generated.
const AIGeneratedThreshold = 0.5

// AIScore is the AI-generation likelihood reported by a detector.
//
// Present is false when the detector answered successfully but did not
// include a score. Score is 0 in that case.
type AIScore struct {
	Score   float64
	Present bool
}

// AIGenerated reports whether the score crosses AIGeneratedThreshold. An
// absent score is never considered AI generated.
func (s *AIScore) AIGenerated() bool {
	if s == nil || !s.Present {
		return false
	}
	return s.Score > AIGeneratedThreshold
}

// Label is a moderation label as reported by the vision service. Field names
// and optionality follow the upstream payload so it can be relayed verbatim.
type Label struct {
	Name          *string  `json:"Name,omitempty"`
	Confidence    *float32 `json:"Confidence,omitempty"`
	ParentName    *string  `json:"ParentName,omitempty"`
	TaxonomyLevel *int32   `json:"TaxonomyLevel,omitempty"`
}

// TextRequest is a single text submission.
type TextRequest struct {
	UserID int64
	Text   string
}

// TextAnalysis holds the model's raw answer. It is opaque: expected to be a
// JSON object with "classification" and "explanation", but never parsed.
type TextAnalysis struct {
	Analysis string `json:"analysis"`
}

// ImageRequest is a single uploaded image.
type ImageRequest struct {
	Filename string
	Data     []byte
}

// ImageResult merges the AI-generation verdict with the vision labels.
type ImageResult struct {
	AIGenerated bool    `json:"ai_generated"`
	Labels      []Label `json:"aws_labels"`
}
