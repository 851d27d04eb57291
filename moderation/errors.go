package moderation

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyImage = errors.New("image data is empty")
)

// Names of the external collaborators, used in errors, logs and metrics.
const (
	ServiceGemini      = "gemini"
	ServiceSightengine = "sightengine"
	ServiceRekognition = "rekognition"
)

// UpstreamError marks a failure of an external collaborator: unreachable,
// rejecting the payload or answering with an unexpected shape.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Service: service, Err: err}
}
