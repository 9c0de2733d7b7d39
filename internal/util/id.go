package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random URL-safe identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
