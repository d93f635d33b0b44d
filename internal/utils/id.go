package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random connection identifier (a UUID without dashes).
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
