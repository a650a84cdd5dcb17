package ai

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"talentsift/internal/config"
	"talentsift/internal/errors"
	"talentsift/internal/types"
)

func testBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}
}

func TestIndependentProviderBreakers(t *testing.T) {
	// Each provider gets its own breaker so one failing backend does not
	// open the circuit for the others.
	logger := errors.NewLogger(slog.LevelError)

	anthropicCB := NewCompletionBreaker("anthropic", testBreakerConfig(), logger)
	openaiCB := NewCompletionBreaker("openai", testBreakerConfig(), logger)
	geminiCB := NewCompletionBreaker("gemini", testBreakerConfig(), logger)

	cases := []struct {
		name     string
		breaker  *CompletionBreaker
		expected string
	}{
		{"Anthropic", anthropicCB, "AI-anthropic"},
		{"OpenAI", openaiCB, "AI-openai"},
		{"Gemini", geminiCB, "AI-gemini"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stats := tc.breaker.GetStats()

			name, ok := stats["name"].(string)
			if !ok {
				t.Fatal("Circuit breaker name not found")
			}
			if name != tc.expected {
				t.Errorf("Expected circuit breaker name '%s', got '%s'", tc.expected, name)
			}

			state, ok := stats["state"].(string)
			if !ok {
				t.Fatal("Circuit breaker state not found")
			}
			if state != "closed" {
				t.Errorf("Expected initial state 'closed', got '%s'", state)
			}

			enabled, ok := stats["enabled"].(bool)
			if !ok {
				t.Fatal("Circuit breaker enabled status not found")
			}
			if !enabled {
				t.Error("Circuit breaker should be enabled")
			}

			if !tc.breaker.IsHealthy() {
				t.Error("Circuit breaker should be healthy initially")
			}
		})
	}

	t.Run("IndependentInstances", func(t *testing.T) {
		if anthropicCB == openaiCB || anthropicCB == geminiCB || openaiCB == geminiCB {
			t.Error("Provider circuit breakers should be different instances")
		}
	})
}

func TestCompletionBreakerDisabled(t *testing.T) {
	cfg := config.CircuitBreakerConfig{
		Enabled: false,
	}

	cb := NewCompletionBreaker("anthropic", cfg, errors.NewLogger(slog.LevelError))
	if cb != nil {
		t.Fatal("Circuit breaker should be nil when disabled")
	}

	// A nil breaker still executes the wrapped call directly
	result, err := cb.Execute(func() (types.CompletionResult, error) {
		return types.CompletionResult{Text: "ok"}, nil
	})
	if err != nil {
		t.Fatalf("Execute on disabled breaker failed: %v", err)
	}
	if result.Text != "ok" {
		t.Errorf("Expected passthrough result 'ok', got '%s'", result.Text)
	}

	if !cb.IsHealthy() {
		t.Error("Disabled breaker should report healthy")
	}

	stats := cb.GetStats()
	if enabled, _ := stats["enabled"].(bool); enabled {
		t.Error("Disabled breaker stats should report enabled=false")
	}
}

func TestCompletionBreakerOpensAfterFailures(t *testing.T) {
	cfg := config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}

	cb := NewCompletionBreaker("anthropic", cfg, errors.NewLogger(slog.LevelError))

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (types.CompletionResult, error) {
			return types.CompletionResult{}, fmt.Errorf("backend unavailable")
		})
		if err == nil {
			t.Fatal("Expected failure from wrapped call")
		}
	}

	if cb.IsHealthy() {
		t.Error("Breaker should be open after consecutive failures past the threshold")
	}

	stats := cb.GetStats()
	if state, _ := stats["state"].(string); state != "open" {
		t.Errorf("Expected state 'open', got '%s'", state)
	}
}
