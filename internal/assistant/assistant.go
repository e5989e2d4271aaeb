// Package assistant asks a generative model to analyze the inventory or to
// extract server records from free text.
package assistant

import (
	"context"
	"errors"

	"github.com/tphummel/server_inventory/internal/models"
)

// ErrDisabled is returned by every operation when no model is configured.
var ErrDisabled = errors.New("assistant is not configured")

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Assistant is an AI collaborator over the inventory.
type Assistant interface {
	// Analyze answers prompt about servers in prose.
	Analyze(ctx context.Context, servers []models.Server, prompt string) (string, error)
	// ExtractServers turns unstructured text into validated server records.
	ExtractServers(ctx context.Context, text string) ([]models.Server, error)
}

// Disabled is the Assistant used when no API key is configured.
type Disabled struct{}

func (Disabled) Analyze(context.Context, []models.Server, string) (string, error) {
	return "", ErrDisabled
}

func (Disabled) ExtractServers(context.Context, string) ([]models.Server, error) {
	return nil, ErrDisabled
}
