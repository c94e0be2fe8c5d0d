// Package ai wraps the text-generation providers used for routine and recipe
// generation. Every provider is asked for a JSON document and returns it as a string.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrQuotaExceeded is returned when a provider answers with HTTP 429 or RESOURCE_EXHAUSTED.
	ErrQuotaExceeded = errors.New("ai provider quota exceeded")
	// ErrNotConfigured is returned when a provider has no API key.
	ErrNotConfigured = errors.New("ai provider not configured")
	// ErrEmptyResponse is returned when a provider answers without content.
	ErrEmptyResponse = errors.New("ai provider returned an empty response")
)

// Generator produces a JSON document for a system instruction and a user prompt.
type Generator interface {
	Name() string
	GenerateJSON(ctx context.Context, system, prompt string) (string, error)
}
