package config

import (
	"os"
	"path/filepath"
	"testing"

	"talentsift/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("error")
	return logger
}

func TestResolveVaultToken(t *testing.T) {
	logger := newTestLogger()

	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"}, logger)
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file is trimmed", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, logger)
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token"}, logger)
		assert.ErrorContains(t, err, "failed to read vault token file")
	})

	t.Run("no token at all", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{}, logger)
		assert.ErrorContains(t, err, "vault token is required")
	})

	t.Run("whitespace-only token file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "empty-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("   \n  \n"), 0600))

		_, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, logger)
		assert.ErrorContains(t, err, "vault token is required")
	})
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64", input: int64(42), expected: 42},
		{name: "float64", input: float64(42.0), expected: 42},
		{name: "numeric string", input: "42", expected: 42},
		{name: "non-numeric string", input: "latest", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/talentsift/tls")
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestParseKVv2Secret(t *testing.T) {
	t.Run("valid envelope", func(t *testing.T) {
		secret := &api.Secret{
			Data: map[string]any{
				"data":     map[string]any{"anthropic": "sk-test"},
				"metadata": map[string]any{"version": int64(3)},
			},
		}

		parsed, err := parseKVv2Secret(secret, "secret/talentsift/providers")
		require.NoError(t, err)
		assert.Equal(t, "sk-test", parsed.Data["anthropic"])
		assert.Equal(t, int64(3), parsed.Version)
	})

	t.Run("missing data field", func(t *testing.T) {
		secret := &api.Secret{Data: map[string]any{"metadata": map[string]any{}}}
		_, err := parseKVv2Secret(secret, "secret/talentsift/providers")
		assert.ErrorContains(t, err, "missing 'data' field")
	})

	t.Run("data field wrong type", func(t *testing.T) {
		secret := &api.Secret{Data: map[string]any{"data": "not-a-map"}}
		_, err := parseKVv2Secret(secret, "secret/talentsift/providers")
		assert.ErrorContains(t, err, "missing 'data' field")
	})

	t.Run("missing metadata field", func(t *testing.T) {
		secret := &api.Secret{Data: map[string]any{"data": map[string]any{}}}
		_, err := parseKVv2Secret(secret, "secret/talentsift/providers")
		assert.ErrorContains(t, err, "missing 'metadata' field")
	})

	t.Run("missing version field", func(t *testing.T) {
		secret := &api.Secret{
			Data: map[string]any{
				"data":     map[string]any{},
				"metadata": map[string]any{"created_time": "2026-01-01"},
			},
		}
		_, err := parseKVv2Secret(secret, "secret/talentsift/providers")
		assert.ErrorContains(t, err, "missing 'version' field")
	})
}

func TestApplyProviderKeys(t *testing.T) {
	logger := newTestLogger()
	config := &Config{}

	loaded := applyProviderKeys(config, map[string]any{
		"anthropic": "test-anthropic-key",
		"openai":    "test-openai-key",
		"gemini":    "test-gemini-key",
	}, logger)

	assert.Equal(t, 3, loaded)
	assert.Equal(t, "test-anthropic-key", config.AI.AnthropicAPIKey)
	assert.Equal(t, "test-openai-key", config.AI.OpenAIAPIKey)
	assert.Equal(t, "test-gemini-key", config.AI.GeminiAPIKey)
}

func TestApplyProviderKeysPartial(t *testing.T) {
	logger := newTestLogger()
	config := &Config{
		AI: AIConfig{OpenAIAPIKey: "existing-openai-key"},
	}

	loaded := applyProviderKeys(config, map[string]any{
		"anthropic": "test-anthropic-key",
		"gemini":    "", // empty values are ignored
		"other":     123,
	}, logger)

	assert.Equal(t, 1, loaded)
	assert.Equal(t, "test-anthropic-key", config.AI.AnthropicAPIKey)
	assert.Equal(t, "existing-openai-key", config.AI.OpenAIAPIKey) // untouched
	assert.Equal(t, "", config.AI.GeminiAPIKey)
}

func TestApplyTLSCertificateContent(t *testing.T) {
	config := &Config{}
	secret := &VaultSecret{
		Data: map[string]any{
			"cert": "cert-content",
			"key":  "key-content",
			"ca":   "ca-content",
		},
	}

	loaded := applyTLSCertificateContent(config, secret)

	assert.Equal(t, 3, loaded)
	assert.Equal(t, "cert-content", config.Server.TLS.CertContent)
	assert.Equal(t, "key-content", config.Server.TLS.KeyContent)
	assert.Equal(t, "ca-content", config.Server.TLS.CAContent)
}

func TestApplyTLSCertificateContentPartial(t *testing.T) {
	config := &Config{}
	secret := &VaultSecret{
		Data: map[string]any{
			"cert": "cert-content",
			"key":  123, // non-string values are skipped
		},
	}

	loaded := applyTLSCertificateContent(config, secret)

	assert.Equal(t, 1, loaded)
	assert.Equal(t, "cert-content", config.Server.TLS.CertContent)
	assert.Equal(t, "", config.Server.TLS.KeyContent)
	assert.Equal(t, "", config.Server.TLS.CAContent)
}

func TestRejectTLSFileFields(t *testing.T) {
	t.Run("content layout is accepted", func(t *testing.T) {
		secret := &VaultSecret{
			Data: map[string]any{"cert": "pem", "key": "pem", "ca": "pem"},
		}
		assert.NoError(t, rejectTLSFileFields(secret))
	})

	for _, field := range []string{"cert_file", "key_file", "ca_file"} {
		t.Run(field+" is rejected", func(t *testing.T) {
			secret := &VaultSecret{Data: map[string]any{field: "/path/on/disk"}}
			err := rejectTLSFileFields(secret)
			assert.ErrorContains(t, err, field)
			assert.ErrorContains(t, err, "no longer supported")
		})
	}
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{Vault: VaultConfig{Enabled: false}}
	assert.NoError(t, ApplyVaultSecrets(config, newTestLogger()))
}
