package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"talentsift/internal/config"
	"talentsift/internal/errors"
	"talentsift/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CertificateManager serves the TLS material for the screening API and
// hot-reloads it when the backing files or Vault secret change, so long
// screening batches are never interrupted by a certificate rotation.
type CertificateManager struct {
	mu sync.RWMutex

	serverCert   *tls.Certificate
	clientCert   *tls.Certificate
	caPool       *x509.CertPool
	serverExpiry time.Time
	clientExpiry time.Time

	fileWatcher  *CertWatcher
	vaultWatcher *VaultWatcher

	tls        *config.TLSConfig
	autoReload *config.AutoReloadConfig
	vault      VaultClientInterface

	callbacks []ReloadCallback
	logger    *errors.Logger
	obs       *observability.ObservabilityManager

	stats CertificateMetrics
}

// ReloadCallback is called after each reload attempt
type ReloadCallback func(success bool, err error)

// CertificateMetrics counts reload attempts for the health endpoint
type CertificateMetrics struct {
	ReloadCount        int64
	ReloadSuccessCount int64
	ReloadFailureCount int64
	LastReloadTime     time.Time
	LastReloadSuccess  bool
	LastReloadError    string
}

// NewCertificateManager creates a certificate manager. vaultClient may be
// nil when certificates come from local files only.
func NewCertificateManager(tlsConfig *config.TLSConfig, autoReloadConfig *config.AutoReloadConfig, vaultClient VaultClientInterface, om *observability.ObservabilityManager, logger *errors.Logger) *CertificateManager {
	return &CertificateManager{
		tls:        tlsConfig,
		autoReload: autoReloadConfig,
		vault:      vaultClient,
		logger:     logger,
		obs:        om,
	}
}

// Start loads the initial certificates and begins watching for changes
func (cm *CertificateManager) Start() error {
	if err := cm.reload(); err != nil {
		return fmt.Errorf("failed to load initial certificates: %w", err)
	}

	cm.startExpiryMonitoring()

	if err := cm.startFileWatcher(); err != nil {
		return err
	}
	return cm.startVaultWatcher()
}

// startFileWatcher watches file-based certificates when enabled
func (cm *CertificateManager) startFileWatcher() error {
	if cm.autoReload == nil || !cm.autoReload.FileWatcher.Enabled {
		return nil
	}
	if cm.tls.CertFile == "" && cm.tls.KeyFile == "" && cm.tls.CAFile == "" {
		return nil
	}

	watcher, err := NewCertWatcher(
		[]string{cm.tls.CertFile, cm.tls.KeyFile, cm.tls.CAFile},
		cm.autoReload.FileWatcher.DebounceDelay,
		func() { _ = cm.reload() },
		cm.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate file watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start certificate file watcher: %w", err)
	}
	cm.fileWatcher = watcher

	if cm.logger != nil {
		cm.logger.Info("Certificate file watcher started",
			"cert_file", cm.tls.CertFile,
			"key_file", cm.tls.KeyFile,
			"ca_file", cm.tls.CAFile)
	}
	return nil
}

// startVaultWatcher polls the Vault TLS secret when content-based
// certificates are in use
func (cm *CertificateManager) startVaultWatcher() error {
	if cm.autoReload == nil || !cm.autoReload.VaultWatcher.Enabled {
		return nil
	}
	if cm.tls.CertContent == "" && cm.tls.KeyContent == "" && cm.tls.CAContent == "" {
		return nil
	}
	if cm.vault == nil {
		if cm.logger != nil {
			cm.logger.Warn("Vault watcher enabled but Vault client is nil")
		}
		return nil
	}

	watcher := NewVaultWatcher(
		cm.vault,
		cm.autoReload.VaultWatcher.SecretPath,
		cm.autoReload.VaultWatcher.PollInterval,
		cm.handleVaultUpdate,
		cm.logger,
	)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start Vault watcher: %w", err)
	}
	cm.vaultWatcher = watcher

	if cm.logger != nil {
		cm.logger.Info("Vault watcher started",
			"secret_path", cm.autoReload.VaultWatcher.SecretPath,
			"poll_interval", cm.autoReload.VaultWatcher.PollInterval)
	}
	return nil
}

// handleVaultUpdate copies fresh PEM content from Vault into the TLS
// config, then reloads
func (cm *CertificateManager) handleVaultUpdate(data *CertificateData, err error) {
	if err != nil {
		if cm.logger != nil {
			cm.logger.LogError(err, "Failed to fetch new certificate data from Vault")
		}
		return
	}

	cm.mu.Lock()
	if data.CertContent != "" {
		cm.tls.CertContent = data.CertContent
	}
	if data.KeyContent != "" {
		cm.tls.KeyContent = data.KeyContent
	}
	if data.CAContent != "" {
		cm.tls.CAContent = data.CAContent
	}
	cm.mu.Unlock()

	_ = cm.reload()
}

// Stop stops both watchers
func (cm *CertificateManager) Stop() error {
	if cm.fileWatcher != nil {
		if err := cm.fileWatcher.Stop(); err != nil {
			if cm.logger != nil {
				cm.logger.LogError(err, "Failed to stop certificate file watcher")
			}
			return err
		}
	}
	if cm.vaultWatcher != nil {
		if err := cm.vaultWatcher.Stop(); err != nil {
			if cm.logger != nil {
				cm.logger.LogError(err, "Failed to stop Vault watcher")
			}
			return err
		}
	}
	if cm.logger != nil {
		cm.logger.Info("Certificate manager stopped")
	}
	return nil
}

// GetServerCertificate serves TLS handshakes with the current certificate
func (cm *CertificateManager) GetServerCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate available")
	}
	if time.Now().After(cm.serverExpiry) {
		if cm.logger != nil {
			cm.logger.LogError(fmt.Errorf("server certificate expired"), "Server certificate expired",
				"expiry", cm.serverExpiry,
				"server_name", hello.ServerName)
		}
		return nil, fmt.Errorf("server certificate expired")
	}

	if cm.autoReload != nil && cm.autoReload.PreemptiveRenewal > 0 {
		if time.Now().After(cm.serverExpiry.Add(-cm.autoReload.PreemptiveRenewal)) {
			go cm.preemptiveRenewal()
		}
	}

	return cm.serverCert, nil
}

// GetClientCertificate returns the current client certificate
func (cm *CertificateManager) GetClientCertificate() (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.clientCert == nil {
		return nil, fmt.Errorf("no client certificate available")
	}
	if time.Now().After(cm.clientExpiry) {
		if cm.logger != nil {
			cm.logger.LogError(fmt.Errorf("client certificate expired"), "Client certificate expired", "expiry", cm.clientExpiry)
		}
		return nil, fmt.Errorf("client certificate expired")
	}
	return cm.clientCert, nil
}

// VerifyPeerCertificate checks a screening client's certificate against
// the current CA pool, so a rotated CA takes effect without a restart
func (cm *CertificateManager) VerifyPeerCertificate(rawCerts [][]byte, verifiedChains [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return fmt.Errorf("no peer certificates provided")
	}

	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("failed to parse peer certificate: %w", err)
	}

	cm.mu.RLock()
	pool := cm.caPool
	cm.mu.RUnlock()
	if pool == nil {
		return fmt.Errorf("no CA certificate pool available")
	}

	if _, err := cert.Verify(x509.VerifyOptions{Roots: pool}); err != nil {
		return fmt.Errorf("peer certificate verification failed: %w", err)
	}
	return nil
}

// AddReloadCallback registers a callback for reload attempts
func (cm *CertificateManager) AddReloadCallback(callback ReloadCallback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, callback)
}

// CheckExpiry returns the time until the earliest loaded certificate expires
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	earliest := cm.serverExpiry
	if !cm.clientExpiry.IsZero() && (earliest.IsZero() || cm.clientExpiry.Before(earliest)) {
		earliest = cm.clientExpiry
	}
	if earliest.IsZero() {
		return 0, fmt.Errorf("no certificates loaded")
	}
	return time.Until(earliest), nil
}

// Metrics returns a snapshot of the reload counters
func (cm *CertificateManager) Metrics() *CertificateMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	stats := cm.stats
	return &stats
}

// reload loads certificates from their configured source, swaps them in
// and records the outcome. Every attempt updates the counters and fires
// the registered callbacks.
func (cm *CertificateManager) reload() error {
	cm.mu.Lock()
	err := cm.loadLocked()
	cm.stats.ReloadCount++
	if err == nil {
		cm.stats.ReloadSuccessCount++
		cm.stats.LastReloadSuccess = true
		cm.stats.LastReloadError = ""
		cm.stats.LastReloadTime = time.Now()
	} else {
		cm.stats.ReloadFailureCount++
		cm.stats.LastReloadSuccess = false
		cm.stats.LastReloadError = err.Error()
	}
	callbacks := make([]ReloadCallback, len(cm.callbacks))
	copy(callbacks, cm.callbacks)
	cm.mu.Unlock()

	if err == nil {
		if cm.logger != nil {
			cm.logger.Info("Certificates reloaded", "server_cert_expiry", cm.serverExpiry)
		}
	} else if cm.logger != nil {
		cm.logger.LogError(err, "Failed to reload certificates")
	}

	cm.recordReloadMetric(err)
	for _, callback := range callbacks {
		go callback(err == nil, err)
	}
	return err
}

// loadLocked loads the server key pair and, for mutual mode, the CA
// pool. Vault-sourced content takes precedence over file paths. Caller
// holds cm.mu.
func (cm *CertificateManager) loadLocked() error {
	fromContent := cm.tls.CertContent != "" && cm.tls.KeyContent != ""
	fromFiles := cm.tls.CertFile != "" && cm.tls.KeyFile != ""

	if fromContent || fromFiles {
		var cert tls.Certificate
		var err error
		if fromContent {
			cert, err = tls.X509KeyPair([]byte(cm.tls.CertContent), []byte(cm.tls.KeyContent))
		} else {
			cert, err = tls.LoadX509KeyPair(cm.tls.CertFile, cm.tls.KeyFile)
		}
		if err != nil {
			return fmt.Errorf("failed to load server key pair: %w", err)
		}
		if len(cert.Certificate) > 0 {
			leaf, err := x509.ParseCertificate(cert.Certificate[0])
			if err != nil {
				return fmt.Errorf("failed to parse server certificate: %w", err)
			}
			cm.serverExpiry = leaf.NotAfter
		}
		cm.serverCert = &cert
	}

	if cm.tls.Mode == "mutual" {
		var caCert []byte
		switch {
		case cm.tls.CAContent != "":
			caCert = []byte(cm.tls.CAContent)
		case cm.tls.CAFile != "":
			var err error
			caCert, err = os.ReadFile(cm.tls.CAFile)
			if err != nil {
				return fmt.Errorf("failed to read CA file: %w", err)
			}
		}
		if len(caCert) > 0 {
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caCert) {
				return fmt.Errorf("failed to parse CA certificate")
			}
			cm.caPool = pool
		}
	}

	return nil
}

// preemptiveRenewal reloads ahead of expiry. File-based setups pick up
// whatever the external renewal process has written.
func (cm *CertificateManager) preemptiveRenewal() {
	if cm.logger != nil {
		cm.logger.Info("Triggering preemptive certificate renewal")
	}
	_ = cm.reload()
}

// recordReloadMetric publishes the reload outcome to OpenTelemetry
func (cm *CertificateManager) recordReloadMetric(err error) {
	metrics := cm.otelMetrics()
	if metrics == nil {
		return
	}

	ctx := context.Background()
	attrs := []attribute.KeyValue{attribute.String("cert_type", "server")}
	if err == nil {
		attrs = append(attrs, attribute.String("status", "success"))
	} else {
		attrs = append(attrs,
			attribute.String("status", "failure"),
			attribute.String("error", err.Error()))
	}
	metrics.CertReloadCount.Add(ctx, 1, metric.WithAttributes(attrs...))

	cm.recordExpiryMetrics()
}

// recordExpiryMetrics publishes seconds-to-expiry gauges per certificate
func (cm *CertificateManager) recordExpiryMetrics() {
	metrics := cm.otelMetrics()
	if metrics == nil {
		return
	}

	ctx := context.Background()
	for certType, expiry := range map[string]time.Time{
		"server": cm.serverExpiry,
		"client": cm.clientExpiry,
	} {
		if expiry.IsZero() {
			continue
		}
		metrics.CertExpiryTime.Record(ctx, time.Until(expiry).Seconds(),
			metric.WithAttributes(attribute.String("cert_type", certType)))
	}
}

func (cm *CertificateManager) otelMetrics() *observability.Metrics {
	if cm.obs == nil {
		return nil
	}
	return cm.obs.GetMetrics()
}

// startExpiryMonitoring refreshes the expiry gauges once a minute
func (cm *CertificateManager) startExpiryMonitoring() {
	if cm.obs == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cm.mu.RLock()
			cm.recordExpiryMetrics()
			cm.mu.RUnlock()
		}
	}()

	if cm.logger != nil {
		cm.logger.Info("Certificate expiry monitoring started")
	}
}
