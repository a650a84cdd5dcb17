package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"talentsift/internal/ai"
	talentsiftErrors "talentsift/internal/errors"
)

// Certificate expiry thresholds for health reporting
const (
	certCriticalWindow = 24 * time.Hour
	certWarningWindow  = 7 * 24 * time.Hour
)

// healthHandler reports service health: the screening model, its circuit
// breaker and the TLS certificates. Degraded state returns 503 so load
// balancers stop routing screening traffic here.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	aiStatus, breakerStatus := s.screeningHealth()
	certStatus := s.certificateHealth()

	response := map[string]any{
		"status":           "healthy",
		"service":          "talentsift",
		"version":          s.Version,
		"ai_models":        aiStatus,
		"circuit_breakers": breakerStatus,
	}
	if certStatus != nil {
		response["certificates"] = certStatus
	}

	w.Header().Set("Content-Type", "application/json")
	if !modelsAvailable(aiStatus) || !certHealthy(certStatus) {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	writeJSONResponse(w, s.Logger, response)
}

// screeningHealth builds one AI service and reports both model
// availability and circuit breaker state from it
func (s *Server) screeningHealth() (aiStatus, breakerStatus map[string]any) {
	aiStatus = make(map[string]any)
	breakerStatus = make(map[string]any)

	fail := func(format string, args ...any) {
		unavailable := map[string]any{"available": false, "error": fmt.Sprintf(format, args...)}
		aiStatus["screening"] = unavailable
		breakerStatus["screening"] = unavailable
	}

	screeningConfig, err := s.AppConfig.GetScreeningConfig()
	if err != nil {
		fail("Screening configuration invalid: %v", err)
		return aiStatus, breakerStatus
	}
	service, err := ai.NewService(screeningConfig, s.Logger)
	if err != nil {
		fail("Failed to create screening service: %v", err)
		return aiStatus, breakerStatus
	}
	defer func() {
		if err := service.Close(); err != nil {
			s.Logger.Warn("Failed to close AI service after health check", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.AppConfig.Observability.HealthCheck.Timeout)
	defer cancel()

	aiStatus["screening"] = service.GetModelInfo(ctx)
	breakerStatus["screening"] = service.GetCircuitBreakerStats()
	return aiStatus, breakerStatus
}

// modelsAvailable reports whether every checked model answered
func modelsAvailable(aiStatus map[string]any) bool {
	for _, modelStatus := range aiStatus {
		switch info := modelStatus.(type) {
		case *ai.ModelInfo:
			if !info.Available {
				return false
			}
		case map[string]any:
			if available, ok := info["available"].(bool); ok && !available {
				return false
			}
		}
	}
	return true
}

// certHealthy treats an absent certificate manager as healthy
func certHealthy(certStatus map[string]any) bool {
	if certStatus == nil {
		return true
	}
	healthy, ok := certStatus["healthy"].(bool)
	return !ok || healthy
}

// certificateHealth reports certificate expiry and the watcher states.
// Returns nil when the server runs without managed certificates.
func (s *Server) certificateHealth() map[string]any {
	cm := s.CertificateManager
	if cm == nil {
		return nil
	}

	certStatus := make(map[string]any)

	timeToExpiry, err := cm.CheckExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())
	certStatus["time_to_expiry"] = timeToExpiry.String()

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
		certStatus["message"] = "Certificate has expired"
	case timeToExpiry <= certCriticalWindow:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
		certStatus["message"] = "Certificate expires within 24 hours"
	case timeToExpiry <= certWarningWindow:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
		certStatus["message"] = "Certificate expires within 7 days"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
		certStatus["message"] = "Certificate is valid"
	}

	certStatus["auto_reload"] = s.autoReloadStatus(cm)

	stats := cm.Metrics()
	certStatus["metrics"] = map[string]any{
		"reload_count":         stats.ReloadCount,
		"reload_success_count": stats.ReloadSuccessCount,
		"reload_failure_count": stats.ReloadFailureCount,
		"last_reload_time":     stats.LastReloadTime,
		"last_reload_success":  stats.LastReloadSuccess,
		"last_reload_error":    stats.LastReloadError,
	}

	return certStatus
}

func (s *Server) autoReloadStatus(cm *CertificateManager) map[string]any {
	if !s.TLSConfig.AutoReload.Enabled {
		return map[string]any{"enabled": false}
	}

	status := map[string]any{
		"enabled":               true,
		"file_watcher_enabled":  s.TLSConfig.AutoReload.FileWatcher.Enabled,
		"vault_watcher_enabled": s.TLSConfig.AutoReload.VaultWatcher.Enabled,
	}
	if cm.fileWatcher != nil {
		status["file_watcher_running"] = cm.fileWatcher.Running()
		status["watched_files"] = cm.fileWatcher.WatchedFiles()
	}
	if cm.vaultWatcher != nil {
		status["vault_watcher_status"] = cm.vaultWatcher.Status()
	}
	return status
}

// statsHandler exposes server limits and rate limiter occupancy
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "talentsift",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.Stats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}
	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSONResponse(w, s.Logger, response)
}

// writeJSONResponse encodes v onto the wire, logging encode failures
func writeJSONResponse(w http.ResponseWriter, logger *talentsiftErrors.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		if logger != nil {
			logger.Warn("Failed to encode response", "error", err)
		}
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse sends the standard error envelope with the given status
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: error, Message: message}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
