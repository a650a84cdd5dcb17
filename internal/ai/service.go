package ai

import (
	"context"
	"fmt"

	"talentsift/internal/config"
	"talentsift/internal/errors"
	"talentsift/internal/types"
)

// Service handles AI operations for resume screening
type Service struct {
	Provider Provider // Exported for access from server package
	config   config.ScreeningConfig
	logger   *errors.Logger
}

// NewService creates a new AI service instance from the resolved screening
// configuration. The provider is chosen by name; an unknown provider is a
// configuration error, not a runtime fallback.
func NewService(cfg config.ScreeningConfig, logger *errors.Logger) (*Service, error) {
	var provider Provider
	var err error

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", cfg.Temperature,
		"max_tokens", cfg.MaxTokens,
		"timeout", cfg.Timeout)

	switch cfg.Provider {
	case "anthropic":
		provider, err = NewAnthropicProvider(cfg, logger)
	case "openai":
		provider, err = NewOpenAIProvider(cfg, logger)
	case "gemini":
		provider, err = NewGeminiProvider(cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	if err != nil {
		return nil, err
	}

	return &Service{
		Provider: provider,
		config:   cfg,
		logger:   logger,
	}, nil
}

// Complete forwards one prompt to the configured provider
func (s *Service) Complete(ctx context.Context, prompt string) (types.CompletionResult, error) {
	return s.Provider.Complete(ctx, prompt)
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// GetCircuitBreakerStats exposes breaker state for the stats endpoint
func (s *Service) GetCircuitBreakerStats() map[string]any {
	type statsProvider interface {
		GetCircuitBreakerStats() map[string]any
	}
	if sp, ok := s.Provider.(statsProvider); ok {
		return sp.GetCircuitBreakerStats()
	}
	return map[string]any{"enabled": false}
}

// Close releases provider resources
func (s *Service) Close() error {
	return s.Provider.Close()
}
