package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"talentsift/internal/config"
)

// generateTestCertificate builds a self-signed certificate valid until
// notAfter, returning the PEM pair and the raw DER for peer verification
func generateTestCertificate(t *testing.T, notAfter time.Time) (certPEM, keyPEM, der []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "talentsift.test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err = x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal key: %v", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM, der
}

func TestCertificateManagerLoadFromContent(t *testing.T) {
	certPEM, keyPEM, _ := generateTestCertificate(t, time.Now().Add(24*time.Hour))
	tlsCfg := &config.TLSConfig{
		Mode:        "server",
		CertContent: string(certPEM),
		KeyContent:  string(keyPEM),
	}

	cm := NewCertificateManager(tlsCfg, nil, nil, nil, nil)
	if err := cm.reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	cert, err := cm.GetServerCertificate(&tls.ClientHelloInfo{})
	if err != nil {
		t.Fatalf("GetServerCertificate failed: %v", err)
	}
	if cert == nil || len(cert.Certificate) == 0 {
		t.Fatal("expected a loaded server certificate")
	}

	remaining, err := cm.CheckExpiry()
	if err != nil {
		t.Fatalf("CheckExpiry failed: %v", err)
	}
	if remaining <= 23*time.Hour {
		t.Errorf("expected close to 24h until expiry, got %v", remaining)
	}

	stats := cm.Metrics()
	if stats.ReloadCount != 1 || stats.ReloadSuccessCount != 1 {
		t.Errorf("unexpected reload counters: %+v", stats)
	}
	if !stats.LastReloadSuccess || stats.LastReloadError != "" {
		t.Errorf("expected clean success state, got %+v", stats)
	}
}

func TestCertificateManagerExpiredCertificate(t *testing.T) {
	certPEM, keyPEM, _ := generateTestCertificate(t, time.Now().Add(-time.Minute))
	tlsCfg := &config.TLSConfig{
		Mode:        "server",
		CertContent: string(certPEM),
		KeyContent:  string(keyPEM),
	}

	cm := NewCertificateManager(tlsCfg, nil, nil, nil, nil)
	if err := cm.reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if _, err := cm.GetServerCertificate(&tls.ClientHelloInfo{}); err == nil {
		t.Error("expected expired certificate to be refused")
	}

	remaining, err := cm.CheckExpiry()
	if err != nil {
		t.Fatalf("CheckExpiry failed: %v", err)
	}
	if remaining > 0 {
		t.Errorf("expected negative time to expiry, got %v", remaining)
	}
}

func TestCertificateManagerReloadFailure(t *testing.T) {
	tlsCfg := &config.TLSConfig{
		Mode:        "server",
		CertContent: "not a certificate",
		KeyContent:  "not a key",
	}
	cm := NewCertificateManager(tlsCfg, nil, nil, nil, nil)

	results := make(chan bool, 1)
	cm.AddReloadCallback(func(success bool, err error) {
		results <- success
	})

	if err := cm.reload(); err == nil {
		t.Fatal("expected reload to fail on garbage PEM")
	}

	select {
	case success := <-results:
		if success {
			t.Error("callback should report failure")
		}
	case <-time.After(time.Second):
		t.Fatal("reload callback was not invoked")
	}

	stats := cm.Metrics()
	if stats.ReloadCount != 1 || stats.ReloadFailureCount != 1 {
		t.Errorf("unexpected reload counters: %+v", stats)
	}
	if stats.LastReloadSuccess || stats.LastReloadError == "" {
		t.Errorf("expected recorded failure, got %+v", stats)
	}

	if _, err := cm.GetServerCertificate(&tls.ClientHelloInfo{}); err == nil {
		t.Error("no certificate should be available after a failed load")
	}
}

func TestCertificateManagerVerifyPeerCertificate(t *testing.T) {
	certPEM, keyPEM, der := generateTestCertificate(t, time.Now().Add(24*time.Hour))
	tlsCfg := &config.TLSConfig{
		Mode:        "mutual",
		CertContent: string(certPEM),
		KeyContent:  string(keyPEM),
		CAContent:   string(certPEM),
	}

	cm := NewCertificateManager(tlsCfg, nil, nil, nil, nil)
	if err := cm.reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if err := cm.VerifyPeerCertificate([][]byte{der}, nil); err != nil {
		t.Errorf("expected peer certificate to verify against its own CA: %v", err)
	}
	if err := cm.VerifyPeerCertificate(nil, nil); err == nil {
		t.Error("expected error when no peer certificates are presented")
	}

	// A certificate from an unrelated CA must be rejected
	_, _, strangerDER := generateTestCertificate(t, time.Now().Add(24*time.Hour))
	if err := cm.VerifyPeerCertificate([][]byte{strangerDER}, nil); err == nil {
		t.Error("expected certificate from unknown CA to be rejected")
	}
}

func TestCertificateManagerVaultUpdate(t *testing.T) {
	oldCert, oldKey, _ := generateTestCertificate(t, time.Now().Add(time.Hour))
	newCert, newKey, _ := generateTestCertificate(t, time.Now().Add(48*time.Hour))

	tlsCfg := &config.TLSConfig{
		Mode:        "server",
		CertContent: string(oldCert),
		KeyContent:  string(oldKey),
	}
	cm := NewCertificateManager(tlsCfg, nil, nil, nil, nil)
	if err := cm.reload(); err != nil {
		t.Fatalf("initial reload failed: %v", err)
	}

	cm.handleVaultUpdate(&CertificateData{
		CertContent: string(newCert),
		KeyContent:  string(newKey),
	}, nil)

	remaining, err := cm.CheckExpiry()
	if err != nil {
		t.Fatalf("CheckExpiry failed: %v", err)
	}
	if remaining <= 24*time.Hour {
		t.Errorf("expected rotated certificate with ~48h left, got %v", remaining)
	}

	stats := cm.Metrics()
	if stats.ReloadCount != 2 || stats.ReloadSuccessCount != 2 {
		t.Errorf("unexpected reload counters after rotation: %+v", stats)
	}
}
