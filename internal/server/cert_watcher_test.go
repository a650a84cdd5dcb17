package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCertFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestNewCertWatcherFiltersEmptyPaths(t *testing.T) {
	cw, err := NewCertWatcher([]string{"", "/etc/tls/server.pem", ""}, 0, func() {}, nil)
	if err != nil {
		t.Fatalf("NewCertWatcher failed: %v", err)
	}

	files := cw.WatchedFiles()
	if len(files) != 1 || files[0] != "/etc/tls/server.pem" {
		t.Errorf("expected only the non-empty path, got %v", files)
	}
	if cw.debounce != defaultDebounce {
		t.Errorf("expected default debounce %v, got %v", defaultDebounce, cw.debounce)
	}

	if _, err := NewCertWatcher([]string{"", ""}, 0, func() {}, nil); err == nil {
		t.Error("expected error when no files are given")
	}
}

func TestCertWatcherDetectsChanges(t *testing.T) {
	dir := t.TempDir()
	certFile := writeCertFile(t, dir, "server.pem", "cert-v1")
	keyFile := writeCertFile(t, dir, "server.key", "key-v1")

	cw, err := NewCertWatcher([]string{certFile, keyFile}, time.Millisecond, func() {}, nil)
	if err != nil {
		t.Fatalf("NewCertWatcher failed: %v", err)
	}
	if err := cw.seedModTimes(); err != nil {
		t.Fatalf("seedModTimes failed: %v", err)
	}

	if cw.anyFileChanged() {
		t.Error("no changes yet, expected false")
	}

	// Rewrite with a bumped mod time; coarse filesystem timestamps would
	// otherwise make this flaky
	writeCertFile(t, dir, "server.pem", "cert-v2")
	future := time.Now().Add(time.Second)
	if err := os.Chtimes(certFile, future, future); err != nil {
		t.Fatalf("failed to bump mod time: %v", err)
	}
	if !cw.anyFileChanged() {
		t.Error("expected modification to be detected")
	}
	if cw.anyFileChanged() {
		t.Error("expected snapshot to absorb the change")
	}

	if err := os.Remove(keyFile); err != nil {
		t.Fatalf("failed to remove key file: %v", err)
	}
	if !cw.anyFileChanged() {
		t.Error("expected deletion to be detected")
	}
	if cw.anyFileChanged() {
		t.Error("deleted file should only register once")
	}
}

func TestCertWatcherStartStop(t *testing.T) {
	dir := t.TempDir()
	certFile := writeCertFile(t, dir, "server.pem", "cert")

	cw, err := NewCertWatcher([]string{certFile}, time.Millisecond, func() {}, nil)
	if err != nil {
		t.Fatalf("NewCertWatcher failed: %v", err)
	}

	if cw.Running() {
		t.Error("watcher should not be running before Start")
	}
	if err := cw.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !cw.Running() {
		t.Error("watcher should be running after Start")
	}
	if err := cw.Start(); err == nil {
		t.Error("second Start should fail")
	}

	if err := cw.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if cw.Running() {
		t.Error("watcher should not be running after Stop")
	}
	if err := cw.Stop(); err != nil {
		t.Errorf("repeated Stop should be a no-op, got %v", err)
	}
}
