// Package translator sends sentence groups to a text-generation backend and
// returns the cleaned translation.
package translator

import (
	"context"
)

// Model is a model advertised by the backend.
type Model struct {
	ID string `json:"id"`
}

// ConnectionStatus is the result of a backend health check.
type ConnectionStatus struct {
	Connected bool    `json:"connected"`
	Models    []Model `json:"models"`
	Error     string  `json:"error,omitempty"`
}

// Backend is the external translation capability.
type Backend interface {
	CheckConnection(ctx context.Context) ConnectionStatus
	TranslateText(
		ctx context.Context,
		text string,
		languageName string,
		model string,
		temperature float64,
		maxTokens int,
	) (string, error)
}

// Options are the per-job generation parameters.
type Options struct {
	TargetLanguage string
	Model          string
	Temperature    float64
	MaxTokens      int
}
