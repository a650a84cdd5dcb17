package ai

import (
	"context"

	"talentsift/internal/types"
)

// Provider is the gateway to one LLM service. Implementations differ only in
// request/response field mapping; callers never branch on provider identity.
// Complete sends one prompt and returns one reply with no application-level
// retries - a failed call surfaces immediately as a per-resume error.
type Provider interface {
	Complete(ctx context.Context, prompt string) (types.CompletionResult, error)
	Name() string
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// ModelInfo describes the configured model for the health endpoint.
// Available is false when the provider client failed to initialize or the
// circuit breaker is open; Error carries the reason.
type ModelInfo struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
