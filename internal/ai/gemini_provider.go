package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talentsift/internal/config"
	talentsiftErrors "talentsift/internal/errors"
	"talentsift/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// modelCheckTimeout bounds the health-check call to the model metadata API
const modelCheckTimeout = 10 * time.Second

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	config         config.ScreeningConfig
	circuitBreaker *CompletionBreaker
	logger         *talentsiftErrors.Logger
}

// Ensure GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(cfg config.ScreeningConfig, logger *talentsiftErrors.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, talentsiftErrors.NewConfigError(talentsiftErrors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured", nil)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, talentsiftErrors.NewAIError(talentsiftErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		circuitBreaker: NewCompletionBreaker("gemini", cfg.CircuitBreaker, logger),
		logger:         logger,
	}, nil
}

// Name implements Provider
func (g *GeminiProvider) Name() string {
	return "gemini"
}

// Complete sends one screening prompt to Gemini as a single generate call
func (g *GeminiProvider) Complete(ctx context.Context, prompt string) (types.CompletionResult, error) {
	tracer := otel.Tracer("talentsift.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(g.config.Temperature)),
		attribute.Int("ai.prompt_length", len(prompt)),
	)

	temperature := g.config.Temperature
	genCfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(g.config.MaxTokens),
	}

	result, err := g.circuitBreaker.Execute(func() (types.CompletionResult, error) {
		resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(prompt), genCfg)
		if err != nil {
			return types.CompletionResult{}, err
		}
		text := resp.Text()
		if text == "" {
			return types.CompletionResult{}, fmt.Errorf("empty response from model")
		}
		return types.CompletionResult{
			Text:  text,
			Usage: extractTokenUsage(resp),
		}, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			span.SetAttributes(attribute.Int("ai.http_status", apiErr.Code))
		}
		return types.CompletionResult{}, talentsiftErrors.NewAIError(talentsiftErrors.ErrCodeAIServiceFailed,
			"Gemini completion failed", err)
	}

	if result.Usage != nil {
		span.SetAttributes(
			attribute.Int("ai.tokens.input", result.Usage.InputTokens),
			attribute.Int("ai.tokens.output", result.Usage.OutputTokens),
			attribute.Int("ai.tokens.total", result.Usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))

	return result, nil
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Provider:  "gemini",
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", "gemini",
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", "gemini",
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return g.circuitBreaker.GetStats()
}

// Close implements Provider
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	return nil
}

// extractTokenUsage extracts token usage information from a Gemini response
func extractTokenUsage(result *genai.GenerateContentResponse) *types.TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &types.TokenUsage{
		InputTokens:  int(usage.PromptTokenCount),
		OutputTokens: int(usage.CandidatesTokenCount),
		TotalTokens:  int(usage.TotalTokenCount),
	}
}
