package spool

import (
	"strings"

	"github.com/google/uuid"
)

// Generates a unique artifact name with the given extension.
func GenerateName(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return uuid.NewString() + ext
}
