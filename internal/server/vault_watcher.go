package server

import (
	"fmt"
	"sync"
	"time"

	"talentsift/internal/config"
	"talentsift/internal/errors"
)

// VaultClientInterface is the slice of the Vault client the server needs
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
	GetStringSecret(path, key string) (string, error)
	GetStringSliceSecret(path, key string) ([]string, error)
}

// CertificateData is the PEM content of one TLS secret version
type CertificateData struct {
	CertContent string
	KeyContent  string
	CAContent   string
}

// VaultReloadCallback receives fresh certificate data, or the error that
// prevented fetching it
type VaultReloadCallback func(data *CertificateData, err error)

// VaultWatcher polls the TLS secret in Vault and hands new PEM content
// to the certificate manager whenever the KVv2 version advances. Version
// polling keeps the server off Vault's event streams, which most
// deployments don't enable.
type VaultWatcher struct {
	mu sync.RWMutex

	client     VaultClientInterface
	secretPath string
	interval   time.Duration
	onReload   VaultReloadCallback
	logger     *errors.Logger

	stop        chan struct{}
	running     bool
	lastVersion int64
}

// NewVaultWatcher creates a watcher over one KVv2 secret path
func NewVaultWatcher(client VaultClientInterface, secretPath string, pollInterval time.Duration, reloadCallback VaultReloadCallback, logger *errors.Logger) *VaultWatcher {
	return &VaultWatcher{
		client:     client,
		secretPath: secretPath,
		interval:   pollInterval,
		onReload:   reloadCallback,
		logger:     logger,
		stop:       make(chan struct{}),
	}
}

// Start begins polling
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	vw.running = true
	go vw.pollLoop()

	if vw.logger != nil {
		vw.logger.Info("Vault watcher started", "secret_path", vw.secretPath, "poll_interval", vw.interval)
	}
	return nil
}

// Stop stops polling. Safe to call when not running.
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	if !vw.running {
		return nil
	}
	close(vw.stop)
	vw.running = false

	if vw.logger != nil {
		vw.logger.Info("Vault watcher stopped")
	}
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			vw.poll()
		case <-vw.stop:
			return
		}
	}
}

// poll reads the secret once, covering both the version check and the
// data fetch. Read failures are reported to the callback so the manager
// can surface them, without advancing the seen version.
func (vw *VaultWatcher) poll() {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		if vw.logger != nil {
			vw.logger.LogError(err, "Failed to poll Vault TLS secret", "secret_path", vw.secretPath)
		}
		vw.onReload(nil, err)
		return
	}

	vw.mu.Lock()
	changed := secret.Version > vw.lastVersion
	if changed {
		vw.lastVersion = secret.Version
	}
	vw.mu.Unlock()
	if !changed {
		return
	}

	if vw.logger != nil {
		vw.logger.Info("Vault TLS secret changed, triggering reload",
			"secret_path", vw.secretPath,
			"version", secret.Version)
	}
	vw.onReload(certificateDataFrom(secret), nil)
}

// certificateDataFrom extracts whichever PEM fields the secret carries
func certificateDataFrom(secret *config.VaultSecret) *CertificateData {
	data := &CertificateData{}
	if cert, ok := secret.Data["cert"].(string); ok {
		data.CertContent = cert
	}
	if key, ok := secret.Data["key"].(string); ok {
		data.KeyContent = key
	}
	if ca, ok := secret.Data["ca"].(string); ok {
		data.CAContent = ca
	}
	return data
}

// Status reports the watcher state for the health endpoint
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return map[string]any{
		"running":       vw.running,
		"poll_interval": vw.interval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
	}
}
