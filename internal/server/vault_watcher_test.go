package server

import (
	"fmt"
	"testing"
	"time"

	"talentsift/internal/config"
)

// stubVaultClient serves canned secrets for watcher tests
type stubVaultClient struct {
	secrets map[string]*config.VaultSecret
}

func (s *stubVaultClient) GetSecretV2(path string) (*config.VaultSecret, error) {
	if secret, ok := s.secrets[path]; ok {
		return secret, nil
	}
	return nil, fmt.Errorf("secret not found at path: %s", path)
}

func (s *stubVaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := s.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, _ := secret.Data[key].(string)
	return value, nil
}

func (s *stubVaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	secret, err := s.GetSecretV2(path)
	if err != nil {
		return nil, err
	}
	value, _ := secret.Data[key].([]string)
	return value, nil
}

func TestVaultWatcherPollDeliversNewVersion(t *testing.T) {
	client := &stubVaultClient{
		secrets: map[string]*config.VaultSecret{
			"secret/data/talentsift/tls": {
				Data: map[string]any{
					"cert": "rotated-cert",
					"key":  "rotated-key",
					"ca":   "rotated-ca",
				},
				Version: 2,
			},
		},
	}

	var delivered *CertificateData
	calls := 0
	vw := NewVaultWatcher(client, "secret/data/talentsift/tls", time.Minute,
		func(data *CertificateData, err error) {
			calls++
			delivered = data
			if err != nil {
				t.Errorf("unexpected callback error: %v", err)
			}
		}, nil)

	vw.poll()
	if calls != 1 {
		t.Fatalf("expected one callback for a new version, got %d", calls)
	}
	if delivered.CertContent != "rotated-cert" || delivered.KeyContent != "rotated-key" || delivered.CAContent != "rotated-ca" {
		t.Errorf("PEM content not delivered correctly: %+v", delivered)
	}

	// Same version again: no callback
	vw.poll()
	if calls != 1 {
		t.Errorf("unchanged version should not trigger the callback, got %d calls", calls)
	}

	// Version bump: callback fires again
	client.secrets["secret/data/talentsift/tls"].Version = 3
	vw.poll()
	if calls != 2 {
		t.Errorf("expected callback on version bump, got %d calls", calls)
	}
}

func TestVaultWatcherPollReportsReadErrors(t *testing.T) {
	client := &stubVaultClient{secrets: map[string]*config.VaultSecret{}}

	var reported error
	vw := NewVaultWatcher(client, "secret/data/missing", time.Minute,
		func(data *CertificateData, err error) {
			reported = err
		}, nil)

	vw.poll()
	if reported == nil {
		t.Error("expected the read error to reach the callback")
	}
	if vw.lastVersion != 0 {
		t.Errorf("failed poll must not advance the seen version, got %d", vw.lastVersion)
	}
}

func TestVaultWatcherStartStop(t *testing.T) {
	client := &stubVaultClient{secrets: map[string]*config.VaultSecret{}}
	vw := NewVaultWatcher(client, "secret/data/talentsift/tls", time.Hour, func(*CertificateData, error) {}, nil)

	if err := vw.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := vw.Start(); err == nil {
		t.Error("second Start should fail")
	}

	status := vw.Status()
	if status["running"] != true {
		t.Errorf("status should report running, got %v", status)
	}

	if err := vw.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := vw.Stop(); err != nil {
		t.Errorf("repeated Stop should be a no-op, got %v", err)
	}
}
