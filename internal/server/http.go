package server

import (
	"time"

	"talentsift/internal/config"
	talentsiftErrors "talentsift/internal/errors"
)

// ErrorResponse is the JSON error envelope of the screening API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server is the screening API server: it exposes the batch screening
// endpoint plus health and stats, authenticated by API key.
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config

	TLSConfig          config.TLSConfig
	CertificateManager *CertificateManager

	// APIKeys is keyed by the accepted keys for O(1) auth checks
	APIKeys map[string]bool

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *ClientLimiter

	Logger *talentsiftErrors.Logger
}

// ServerConfig gathers the constructor knobs for a Server
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer builds a Server. The rate limiter is only created when rate
// limiting is enabled; a nil limiter disables the middleware.
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *talentsiftErrors.Logger) *Server {
	s := &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        make(map[string]bool, len(cfg.APIKeys)),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		Logger:         logger,
	}

	for _, key := range cfg.APIKeys {
		if key != "" {
			s.APIKeys[key] = true
		}
	}

	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		s.RateLimiter = NewClientLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	return s
}
