package config

import (
	"time"

	"github.com/spf13/viper"
)

// defaults are the built-in values, overridable by config file and
// environment. Grouped by config section.
var defaults = map[string]any{
	// LLM provider. Temperature 0 keeps scores stable between runs.
	"ai.provider":        "anthropic",
	"ai.model":           "",
	"ai.timeout":         120 * time.Second,
	"ai.apiKey":          "",
	"ai.anthropicApiKey": "",
	"ai.openaiApiKey":    "",
	"ai.geminiApiKey":    "",
	"ai.temperature":     0.0,
	"ai.maxTokens":       2500,

	// Circuit breaker around LLM calls
	"ai.circuitBreaker.enabled":          true,
	"ai.circuitBreaker.maxRequests":      3,
	"ai.circuitBreaker.interval":         60 * time.Second,
	"ai.circuitBreaker.timeout":          60 * time.Second,
	"ai.circuitBreaker.minRequests":      3,
	"ai.circuitBreaker.failureThreshold": 0.6,

	// Custom prompt templates
	"ai.prompts.description":     "",
	"ai.prompts.descriptionFile": "",
	"ai.prompts.criteria":        "",
	"ai.prompts.criteriaFile":    "",

	// Listener. The long write timeout covers a full screening batch
	// held open across provider calls.
	"server.host":         "localhost",
	"server.port":         "8080",
	"server.readTimeout":  30 * time.Second,
	"server.writeTimeout": 10 * time.Minute,
	"server.idleTimeout":  120 * time.Second,

	// TLS off by default; operators opt in per deployment
	"server.tls.mode":               "disabled",
	"server.tls.certFile":           "",
	"server.tls.keyFile":            "",
	"server.tls.caFile":             "",
	"server.tls.minVersion":         "1.2",
	"server.tls.cipherSuites":       []string{},
	"server.tls.clientAuthPolicy":   "require",
	"server.tls.insecureSkipVerify": false,
	"server.tls.serverName":         "",

	// Certificate hot-reload
	"server.tls.autoReload.enabled":                   true,
	"server.tls.autoReload.checkInterval":             30 * time.Second,
	"server.tls.autoReload.preemptiveRenewal":         72 * time.Hour,
	"server.tls.autoReload.maxRetries":                3,
	"server.tls.autoReload.retryDelay":                10 * time.Second,
	"server.tls.autoReload.fileWatcher.enabled":       true,
	"server.tls.autoReload.fileWatcher.debounceDelay": time.Second,
	"server.tls.autoReload.vaultWatcher.enabled":      false,
	"server.tls.autoReload.vaultWatcher.pollInterval": 5 * time.Minute,
	"server.tls.autoReload.vaultWatcher.autoRenew":    true,
	"server.tls.autoReload.vaultWatcher.renewThreshold": 24 * time.Hour,
	"server.tls.autoReload.vaultWatcher.secretPath":     "",

	// Auth and rate limiting
	"server.apiKeys":                  []string{},
	"server.rateLimit.enabled":        false,
	"server.rateLimit.requestsPerMin": 60,
	"server.rateLimit.burstCapacity":  10,
	"server.rateLimit.byIP":           true,
	"server.rateLimit.byAPIKey":       false,

	// CLI behavior; maxFileSize caps one uploaded resume at 16MB
	"app.logLevel":         "info",
	"app.defaultFormat":    "json",
	"app.supportedFormats": []string{"json", "text", "markdown"},
	"app.maxFileSize":      16 * 1024 * 1024,

	// Vault integration
	"vault.enabled":              false,
	"vault.address":              "",
	"vault.token":                "",
	"vault.tokenFile":            "",
	"vault.namespace":            "",
	"vault.secrets.apiKeys":      "",
	"vault.secrets.providerKeys": "",
	"vault.secrets.tlsCerts":     "",

	// Observability. serviceVersion falls back to the app version,
	// serviceInstance to hostname.
	"observability.enabled":         true,
	"observability.serviceName":     "talentsift",
	"observability.serviceVersion":  "",
	"observability.serviceInstance": "",
	"observability.consoleOutput":   false,
	"observability.sampleRate":      1.0,

	"observability.tracing.enabled":            true,
	"observability.tracing.sampleRate":         1.0,
	"observability.metrics.enabled":            true,
	"observability.metrics.collectionInterval": 15 * time.Second,

	"observability.customMetrics.aiOperations.enabled":              true,
	"observability.customMetrics.aiOperations.trackDuration":        true,
	"observability.customMetrics.aiOperations.trackTokenUsage":      true,
	"observability.customMetrics.aiOperations.trackModelInfo":       true,
	"observability.customMetrics.businessMetrics.enabled":           true,
	"observability.customMetrics.businessMetrics.trackSuccessRates": true,
	"observability.customMetrics.businessMetrics.trackBatchSizes":   true,
	"observability.customMetrics.businessMetrics.trackScores":       true,
	"observability.customMetrics.infrastructure.enabled":            true,
	"observability.customMetrics.infrastructure.trackRateLimits":    true,
	"observability.customMetrics.infrastructure.trackCertExpiry":    true,

	"observability.console.enabled":     false,
	"observability.console.prettyPrint": true,

	"observability.prometheus.enabled":  true,
	"observability.prometheus.endpoint": "/metrics",
	"observability.prometheus.port":     "9090",

	"observability.otlp.enabled":  false,
	"observability.otlp.endpoint": "http://localhost:4318",
	"observability.otlp.insecure": true,
	"observability.otlp.headers":  map[string]string{},

	"observability.healthCheck.timeout": 15 * time.Second,
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
