// Package uuid generates and validates the identifiers used for every
// stored row.
package uuid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// New generates a new UUID v4.
func New() string {
	return uuid.New().String()
}

// Normalize parses s and returns its canonical lowercase hyphenated form.
// Braced and URN forms are accepted.
func Normalize(s string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid identifier %q: %w", s, err)
	}
	return id.String(), nil
}
