package ai

import (
	"context"
	"fmt"
	"net/http"

	"talentsift/internal/config"
	talentsiftErrors "talentsift/internal/errors"
	"talentsift/internal/types"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// OpenAIProvider implements Provider for the OpenAI chat completions API
type OpenAIProvider struct {
	client         *openai.Client
	config         config.ScreeningConfig
	circuitBreaker *CompletionBreaker
	logger         *talentsiftErrors.Logger
}

// Ensure OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a new OpenAI provider instance
func NewOpenAIProvider(cfg config.ScreeningConfig, logger *talentsiftErrors.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, talentsiftErrors.NewConfigError(talentsiftErrors.ErrCodeMissingAPIKey,
			"OpenAI API key is not configured", nil)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
	}

	return &OpenAIProvider{
		client:         openai.NewClientWithConfig(clientConfig),
		config:         cfg,
		circuitBreaker: NewCompletionBreaker("openai", cfg.CircuitBreaker, logger),
		logger:         logger,
	}, nil
}

// Name implements Provider
func (o *OpenAIProvider) Name() string {
	return "openai"
}

// Complete sends one screening prompt as a single chat completion request
func (o *OpenAIProvider) Complete(ctx context.Context, prompt string) (types.CompletionResult, error) {
	tracer := otel.Tracer("talentsift.ai.openai")
	ctx, span := tracer.Start(ctx, "openai.complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", o.config.Model),
		attribute.Float64("ai.temperature", float64(o.config.Temperature)),
		attribute.Int("ai.prompt_length", len(prompt)),
	)

	result, err := o.circuitBreaker.Execute(func() (types.CompletionResult, error) {
		return o.createCompletion(ctx, prompt)
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.CompletionResult{}, talentsiftErrors.NewAIError(talentsiftErrors.ErrCodeAIServiceFailed,
			"OpenAI completion failed", err)
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

// createCompletion performs the chat completion exchange
func (o *OpenAIProvider) createCompletion(ctx context.Context, prompt string) (types.CompletionResult, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.config.Model,
		Temperature: o.config.Temperature,
		MaxTokens:   o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return types.CompletionResult{}, err
	}

	if len(resp.Choices) == 0 {
		return types.CompletionResult{}, fmt.Errorf("no choices in response")
	}

	usage := &types.TokenUsage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}

	return types.CompletionResult{
		Text:  resp.Choices[0].Message.Content,
		Usage: usage,
	}, nil
}

// GetModelInfo reports the configured model and breaker health
func (o *OpenAIProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	return &ModelInfo{
		Name:      o.config.Model,
		Provider:  "openai",
		Available: o.circuitBreaker.IsHealthy(),
	}
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (o *OpenAIProvider) GetCircuitBreakerStats() map[string]any {
	return o.circuitBreaker.GetStats()
}

// Close implements Provider
func (o *OpenAIProvider) Close() error {
	return nil
}
