package config

import (
	"log"
	"os"
	"strings"
)

// applyFallbacks fills gaps viper can't: comma-separated API keys from a
// single env var, TLS policy defaults that depend on the chosen mode, and
// a hostname-derived service instance id.
func (c *Config) applyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if raw := os.Getenv("TALENTSIFT_SERVER_APIKEYS"); raw != "" {
			for _, key := range strings.Split(raw, ",") {
				c.Server.APIKeys = append(c.Server.APIKeys, strings.TrimSpace(key))
			}
		}
	}

	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}

	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = serviceInstanceID(c.Observability.ServiceName)
	}
}

func serviceInstanceID(serviceName string) string {
	hostname, err := os.Hostname()
	if err != nil {
		return serviceName + "-1"
	}
	return serviceName + "-" + hostname
}

// watchedEnvVars are the variables worth calling out at startup. Anything
// matching "key" is masked when printed.
var watchedEnvVars = []string{
	"TALENTSIFT_AI_APIKEY",
	"TALENTSIFT_AI_PROVIDER",
	"TALENTSIFT_AI_MODEL",
	"TALENTSIFT_SERVER_PORT",
	"TALENTSIFT_SERVER_HOST",
	"TALENTSIFT_APP_LOGLEVEL",
	"TALENTSIFT_VAULT_ENABLED",
	"ANTHROPIC_API_KEY",
	"OPENAI_API_KEY",
	"GEMINI_API_KEY",
}

// logConfigurationSources summarizes where the effective configuration came
// from, with secrets masked. Runs once at load time.
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed == "" {
		log.Println("[CONFIG] Config file: None (using defaults)")
	} else {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	}

	log.Println("[CONFIG] Environment variables:")
	seen := 0
	for _, name := range watchedEnvVars {
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		seen++
		if strings.Contains(strings.ToLower(name), "key") {
			value = "***MASKED***"
		}
		log.Printf("[CONFIG]   %s=%s", name, value)
	}
	if seen == 0 {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	switch model := c.AI.Model; model {
	case "":
		log.Printf("[CONFIG] AI Model: %s (provider default)", defaultModelFor(c.AI.Provider))
	default:
		log.Printf("[CONFIG] AI Model: %s", model)
	}
	if c.AI.APIKey == "" && c.AI.AnthropicAPIKey == "" && c.AI.OpenAIAPIKey == "" && c.AI.GeminiAPIKey == "" {
		log.Println("[CONFIG] AI API Key: ***NOT SET*** (environment lookup at screening time)")
	} else {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	}
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}
