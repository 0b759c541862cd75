package core

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns a new unique entity id.
func GenerateID() string {
	return uuid.New().String()
}

// ShortModelName returns the final path segment of a slash-delimited model
// identifier, e.g. "anthropic/claude-sonnet" -> "claude-sonnet".
func ShortModelName(model string) string {
	if idx := strings.LastIndex(model, "/"); idx >= 0 {
		return model[idx+1:]
	}
	return model
}
