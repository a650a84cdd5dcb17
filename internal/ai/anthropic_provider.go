package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"talentsift/internal/config"
	talentsiftErrors "talentsift/internal/errors"
	"talentsift/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion  = "2023-06-01"
)

// AnthropicProvider implements Provider against the Anthropic Messages API
type AnthropicProvider struct {
	httpClient     *http.Client
	config         config.ScreeningConfig
	circuitBreaker *CompletionBreaker
	logger         *talentsiftErrors.Logger
}

// Ensure AnthropicProvider implements Provider
var _ Provider = (*AnthropicProvider)(nil)

// anthropicRequest is the Messages API request payload
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the subset of the Messages API response we consume
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewAnthropicProvider creates a new Anthropic provider instance
func NewAnthropicProvider(cfg config.ScreeningConfig, logger *talentsiftErrors.Logger) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, talentsiftErrors.NewConfigError(talentsiftErrors.ErrCodeMissingAPIKey,
			"Anthropic API key is not configured", nil)
	}

	return &AnthropicProvider{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config:         cfg,
		circuitBreaker: NewCompletionBreaker("anthropic", cfg.CircuitBreaker, logger),
		logger:         logger,
	}, nil
}

// Name implements Provider
func (a *AnthropicProvider) Name() string {
	return "anthropic"
}

// Complete sends one screening prompt to the Messages API. A single request
// per resume, no retries: failures become per-resume errors upstream.
func (a *AnthropicProvider) Complete(ctx context.Context, prompt string) (types.CompletionResult, error) {
	tracer := otel.Tracer("talentsift.ai.anthropic")
	ctx, span := tracer.Start(ctx, "anthropic.complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "anthropic"),
		attribute.String("ai.model", a.config.Model),
		attribute.Float64("ai.temperature", float64(a.config.Temperature)),
		attribute.Int("ai.prompt_length", len(prompt)),
	)

	result, err := a.circuitBreaker.Execute(func() (types.CompletionResult, error) {
		return a.sendMessage(ctx, prompt)
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.CompletionResult{}, talentsiftErrors.NewAIError(talentsiftErrors.ErrCodeAIServiceFailed,
			"Anthropic completion failed", err)
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

// sendMessage performs the HTTP exchange with the Messages API
func (a *AnthropicProvider) sendMessage(ctx context.Context, prompt string) (types.CompletionResult, error) {
	reqBody := anthropicRequest{
		Model:       a.config.Model,
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return types.CompletionResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicMessagesURL, bytes.NewReader(payload))
	if err != nil {
		return types.CompletionResult{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", a.config.APIKey)
	req.Header.Set("Anthropic-Version", anthropicAPIVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return types.CompletionResult{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.CompletionResult{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return types.CompletionResult{}, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return types.CompletionResult{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(apiResp.Content) == 0 {
		return types.CompletionResult{}, fmt.Errorf("no content in response")
	}

	usage := &types.TokenUsage{
		InputTokens:  apiResp.Usage.InputTokens,
		OutputTokens: apiResp.Usage.OutputTokens,
		TotalTokens:  apiResp.Usage.InputTokens + apiResp.Usage.OutputTokens,
	}

	return types.CompletionResult{
		Text:  apiResp.Content[0].Text,
		Usage: usage,
	}, nil
}

// GetModelInfo reports the configured model. The Messages API has no cheap
// model metadata endpoint, so availability is only known after the first call.
func (a *AnthropicProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	return &ModelInfo{
		Name:      a.config.Model,
		Provider:  "anthropic",
		Available: a.circuitBreaker.IsHealthy(),
	}
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (a *AnthropicProvider) GetCircuitBreakerStats() map[string]any {
	return a.circuitBreaker.GetStats()
}

// Close implements Provider
func (a *AnthropicProvider) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}
