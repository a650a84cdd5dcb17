package cli

import (
	"fmt"

	"talentsift/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for resume screening",
	Long: `Start an HTTP server that provides a REST API endpoint for resume screening.

Available endpoints:
- POST /api/v1/screen: Screen uploaded resumes against a job description or criteria
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

// serveFlags maps each serve flag onto the config key it overrides
var serveFlags = []struct {
	name      string
	shorthand string
	usage     string
	configKey string
}{
	{"port", "p", "Port to listen on (default from config)", "server.port"},
	{"host", "", "Host to bind to (default from config)", "server.host"},
	{"tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)", "server.tls.mode"},
	{"cert-file", "", "Server certificate file (PEM, overrides config)", "server.tls.certfile"},
	{"key-file", "", "Server private key file (PEM, overrides config)", "server.tls.keyfile"},
	{"ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)", "server.tls.cafile"},
}

func init() {
	for _, f := range serveFlags {
		serveCmd.Flags().StringP(f.name, f.shorthand, "", f.usage)
		if err := viper.BindPFlag(f.configKey, serveCmd.Flags().Lookup(f.name)); err != nil {
			panic(err)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := configFrom(cmd.Context())
	logger := loggerFrom(cmd.Context())

	// Flag overrides landed in cfg via viper; validate the result
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	return server.NewServer(cfg, server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: int64(cfg.App.MaxFileSize),
		RateLimit:      &cfg.Server.RateLimit,
	}, logger).Start()
}
