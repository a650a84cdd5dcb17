package config

import (
	"fmt"
	"os"
	"time"
)

// Default models per provider, used when ai.model is not set
const (
	DefaultAnthropicModel = "claude-3-5-sonnet-20241022"
	DefaultOpenAIModel    = "gpt-4o"
	DefaultGeminiModel    = "gemini-2.0-flash"
)

// ScreeningConfig is the fully resolved AI configuration for screening calls
type ScreeningConfig struct {
	Provider       string
	Model          string
	APIKey         string
	Timeout        time.Duration
	Temperature    float32
	MaxTokens      int
	CircuitBreaker CircuitBreakerConfig
}

// GetScreeningConfig resolves the provider, model and credentials for
// screening operations. A missing API key for the selected provider is a
// fatal configuration error, reported before any batch starts.
func (c *Config) GetScreeningConfig() (ScreeningConfig, error) {
	cfg := ScreeningConfig{
		Provider:       c.AI.Provider,
		Model:          c.AI.Model,
		Timeout:        c.AI.Timeout,
		Temperature:    c.AI.Temperature,
		MaxTokens:      c.AI.MaxTokens,
		CircuitBreaker: c.AI.CircuitBreaker,
	}

	if cfg.Model == "" {
		cfg.Model = defaultModelFor(cfg.Provider)
	}

	key, err := c.resolveAPIKey(cfg.Provider)
	if err != nil {
		return ScreeningConfig{}, err
	}
	cfg.APIKey = key

	return cfg, nil
}

// resolveAPIKey picks the API key for a provider: provider-specific config
// value first, then the generic ai.apiKey, then the provider's conventional
// environment variable.
func (c *Config) resolveAPIKey(provider string) (string, error) {
	var specific, envVar string
	switch provider {
	case "anthropic":
		specific, envVar = c.AI.AnthropicAPIKey, "ANTHROPIC_API_KEY"
	case "openai":
		specific, envVar = c.AI.OpenAIAPIKey, "OPENAI_API_KEY"
	case "gemini":
		specific, envVar = c.AI.GeminiAPIKey, "GEMINI_API_KEY"
	default:
		return "", fmt.Errorf("unsupported AI provider: %s", provider)
	}

	if specific != "" {
		return specific, nil
	}
	if c.AI.APIKey != "" {
		return c.AI.APIKey, nil
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}

	return "", fmt.Errorf("API key for provider %q not found (set %s or TALENTSIFT_AI_APIKEY)", provider, envVar)
}

func defaultModelFor(provider string) string {
	switch provider {
	case "anthropic":
		return DefaultAnthropicModel
	case "openai":
		return DefaultOpenAIModel
	case "gemini":
		return DefaultGeminiModel
	default:
		return ""
	}
}
