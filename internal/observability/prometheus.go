package observability

import (
	"fmt"
	"net/http"
	"time"

	"talentsift/internal/config"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusConfig controls the scrape endpoint for screening metrics
type PrometheusConfig struct {
	Enabled  bool
	Endpoint string
	Port     string
}

// SetupPrometheusExporter builds a Prometheus metric reader and the mux
// serving its scrape endpoint. Returns nils when disabled; the OTel
// exporter registers into the default registry that promhttp serves.
func SetupPrometheusExporter(cfg PrometheusConfig) (metric.Reader, *http.ServeMux, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Endpoint, promhttp.Handler())
	return exporter, mux, nil
}

// StartPrometheusServer serves the scrape mux on its own port in the
// background. A nil mux means Prometheus is disabled.
func StartPrometheusServer(mux *http.ServeMux, port string) error {
	if mux == nil {
		return nil
	}

	addr := ":" + port
	fmt.Printf("Starting Prometheus metrics server on http://localhost%s\n", addr)
	fmt.Printf("Metrics available at: http://localhost%s/metrics\n", addr)

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
		// Header timeout bounds Slowloris-style slow requests
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Prometheus server error: %v\n", err)
		}
	}()
	return nil
}

// GetPrometheusConfig maps app configuration onto the exporter settings,
// defaulting to an enabled endpoint on :9090 when no config is loaded
func GetPrometheusConfig(cfg *config.Config) PrometheusConfig {
	if cfg == nil {
		return PrometheusConfig{Enabled: true, Endpoint: "/metrics", Port: "9090"}
	}
	p := cfg.Observability.Prometheus
	return PrometheusConfig{Enabled: p.Enabled, Endpoint: p.Endpoint, Port: p.Port}
}
