package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"talentsift/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets names the KVv2 paths the screening service reads.
type VaultSecrets struct {
	// APIKeys holds the keys that authenticate screen endpoint callers,
	// stored as one comma-separated string under "keys".
	APIKeys string `mapstructure:"apiKeys"`
	// ProviderKeys holds LLM provider credentials under the keys
	// "anthropic", "openai" and "gemini" (each optional).
	ProviderKeys string `mapstructure:"providerKeys"`
	// TLSCerts holds PEM content under "cert", "key" and "ca".
	TLSCerts string `mapstructure:"tlsCerts"`
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// VaultSecret is one secret read from the KVv2 engine, with the version
// the certificate watcher polls for changes.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient connects to Vault and verifies the connection. Returns
// (nil, nil) when Vault integration is disabled.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled")
		}
		return nil, nil
	}

	apiConfig := api.DefaultConfig()
	if cfg.Address != "" {
		apiConfig.Address = cfg.Address
	}
	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg, logger)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	// Checking health up front turns a bad address or sealed Vault into
	// a startup failure instead of a mid-screening one
	health, err := client.Sys().Health()
	if err != nil {
		if logger != nil {
			logger.LogError(err, "Failed to connect to Vault", "address", cfg.Address)
		}
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	if logger != nil {
		logger.Info("Connected to Vault",
			"address", cfg.Address, "version", health.Version, "sealed", health.Sealed)
	}

	return &VaultClient{client: client, config: cfg, logger: logger}, nil
}

// resolveVaultToken picks the token from config, falling back to the
// token file. An enabled Vault with no token is a configuration error.
func resolveVaultToken(cfg VaultConfig, logger *errors.Logger) (string, error) {
	token := cfg.Token

	if token == "" && cfg.TokenFile != "" {
		raw, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			if logger != nil {
				logger.LogError(err, "Failed to read Vault token file", "file", cfg.TokenFile)
			}
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 reads one secret from the KVv2 engine
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	return parseKVv2Secret(secret, path)
}

// parseKVv2Secret unwraps the data/metadata envelope of a KVv2 read
func parseKVv2Secret(secret *api.Secret, path string) (*VaultSecret, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}

	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}

	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue tolerates the number encodings the API returns
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// GetStringSecret reads one string field from a KVv2 secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	switch value := secret.Data[key].(type) {
	case string:
		return value, nil
	case nil:
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	default:
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
}

// GetStringSliceSecret reads a comma-separated string field as a slice
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return []string{}, nil
	}
	var result []string
	for part := range strings.SplitSeq(value, ",") {
		result = append(result, strings.TrimSpace(part))
	}
	return result, nil
}

// ApplyVaultSecrets overlays Vault-held secrets onto the loaded config:
// screen endpoint API keys, provider credentials and TLS certificate
// content. Paths left empty in the config are skipped.
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	if client == nil {
		return nil
	}

	if err := applyServerAPIKeys(client, config, logger); err != nil {
		return err
	}
	if err := applyVaultProviderKeys(client, config, logger); err != nil {
		return err
	}
	if err := applyTLSCertificates(client, config, logger); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("Secrets applied from Vault")
	}
	return nil
}

// applyServerAPIKeys replaces the configured screen endpoint API keys
// with the set held in Vault, when a path is configured.
func applyServerAPIKeys(client *VaultClient, config *Config, logger *errors.Logger) error {
	path := config.Vault.Secrets.APIKeys
	if path == "" {
		return nil
	}

	apiKeys, err := client.GetStringSliceSecret(path, "keys")
	if err != nil {
		return fmt.Errorf("failed to load API keys from vault: %w", err)
	}

	if len(apiKeys) == 0 {
		if logger != nil {
			logger.Warn("No API keys found in Vault", "path", path)
		}
		return nil
	}

	config.Server.APIKeys = apiKeys
	if logger != nil {
		logger.Info("API keys loaded from Vault", "count", len(apiKeys))
	}
	return nil
}

// applyVaultProviderKeys reads the provider credentials secret and
// copies present keys into the config.
func applyVaultProviderKeys(client *VaultClient, config *Config, logger *errors.Logger) error {
	path := config.Vault.Secrets.ProviderKeys
	if path == "" {
		return nil
	}

	secret, err := client.GetSecretV2(path)
	if err != nil {
		return fmt.Errorf("failed to load provider keys from vault: %w", err)
	}

	loaded := applyProviderKeys(config, secret.Data, logger)
	if loaded == 0 {
		if logger != nil {
			logger.Warn("No provider keys found in Vault", "path", path)
		}
	} else if logger != nil {
		logger.Info("Provider keys loaded from Vault", "count", loaded)
	}
	return nil
}

// applyProviderKeys copies present provider credentials from Vault data
// into the config. Missing providers are left untouched.
func applyProviderKeys(config *Config, data map[string]any, logger *errors.Logger) int {
	targets := map[string]*string{
		"anthropic": &config.AI.AnthropicAPIKey,
		"openai":    &config.AI.OpenAIAPIKey,
		"gemini":    &config.AI.GeminiAPIKey,
	}

	loaded := 0
	for name, target := range targets {
		if value, ok := data[name].(string); ok && value != "" {
			*target = value
			loaded++
			if logger != nil {
				logger.Debug("Provider key loaded from Vault", "provider", name)
			}
		}
	}
	return loaded
}

// tlsContentKeys maps Vault data keys to the TLS content fields they fill
func tlsContentKeys(config *Config) map[string]*string {
	return map[string]*string{
		"cert": &config.Server.TLS.CertContent,
		"key":  &config.Server.TLS.KeyContent,
		"ca":   &config.Server.TLS.CAContent,
	}
}

// applyTLSCertificates copies PEM content from the TLS secret into the
// config. File-path fields inside Vault are rejected: the secret must
// carry the certificate content itself.
func applyTLSCertificates(client *VaultClient, config *Config, logger *errors.Logger) error {
	path := config.Vault.Secrets.TLSCerts
	if path == "" {
		return nil
	}

	secret, err := client.GetSecretV2(path)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificates from vault: %w", err)
	}

	if err := rejectTLSFileFields(secret); err != nil {
		return err
	}

	loaded := applyTLSCertificateContent(config, secret)
	if logger != nil {
		logger.Info("TLS certificates loaded from Vault", "certificates_loaded", loaded)
	}
	return nil
}

// applyTLSCertificateContent copies present PEM fields into the config
func applyTLSCertificateContent(config *Config, secret *VaultSecret) int {
	loaded := 0
	for key, target := range tlsContentKeys(config) {
		if content, ok := secret.Data[key].(string); ok && content != "" {
			*target = content
			loaded++
		}
	}
	return loaded
}

// rejectTLSFileFields fails on the retired file-path secret layout
func rejectTLSFileFields(secret *VaultSecret) error {
	for _, field := range []string{"cert_file", "key_file", "ca_file"} {
		if _, present := secret.Data[field]; present {
			return fmt.Errorf("vault TLS configuration error: '%s' field is no longer supported. Store certificate content in '%s' field instead",
				field, strings.TrimSuffix(field, "_file"))
		}
	}
	return nil
}
