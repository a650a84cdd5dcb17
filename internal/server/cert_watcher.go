package server

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"talentsift/internal/errors"
)

// defaultDebounce absorbs the event burst an atomic secret-mount update
// produces into a single reload.
const defaultDebounce = time.Second

// CertWatcher triggers a reload when any of the PEM files backing the
// TLS listener changes on disk. It watches the parent directories rather
// than the files themselves: secret mounts and certbot both replace
// certificates via rename, which file-level watches lose track of.
type CertWatcher struct {
	mu sync.RWMutex

	files    []string
	modTimes map[string]time.Time

	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	timer     *time.Timer

	onChange func()
	logger   *errors.Logger

	stop    chan struct{}
	pending chan struct{}
	running bool
}

// NewCertWatcher builds a watcher over the given certificate files.
// Empty paths are skipped, so callers can pass cert, key and CA
// unconditionally.
func NewCertWatcher(files []string, debounce time.Duration, onChange func(), logger *errors.Logger) (*CertWatcher, error) {
	if debounce == 0 {
		debounce = defaultDebounce
	}

	watched := make([]string, 0, len(files))
	for _, f := range files {
		if f != "" {
			watched = append(watched, f)
		}
	}
	if len(watched) == 0 {
		return nil, fmt.Errorf("no certificate files to watch")
	}

	return &CertWatcher{
		files:    watched,
		modTimes: make(map[string]time.Time),
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		stop:     make(chan struct{}),
		pending:  make(chan struct{}, 1),
	}, nil
}

// Start records the current modification times and begins watching
func (cw *CertWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("certificate watcher is already running")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := cw.seedModTimes(); err != nil {
		_ = fsWatcher.Close()
		return err
	}

	dirs := make(map[string]bool)
	for _, f := range cw.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			_ = fsWatcher.Close()
			return fmt.Errorf("failed to watch certificate directory %s: %w", dir, err)
		}
	}

	cw.fsWatcher = fsWatcher
	cw.running = true
	go cw.watchLoop()

	if cw.logger != nil {
		cw.logger.Info("Certificate file watcher started",
			"files", cw.files,
			"debounce_delay", cw.debounce)
	}
	return nil
}

// Stop stops the watcher. Safe to call when not running.
func (cw *CertWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}

	close(cw.stop)
	if cw.timer != nil {
		cw.timer.Stop()
	}
	if err := cw.fsWatcher.Close(); err != nil {
		if cw.logger != nil {
			cw.logger.LogError(err, "Failed to close file system watcher")
		}
		return err
	}
	cw.running = false

	if cw.logger != nil {
		cw.logger.Info("Certificate file watcher stopped")
	}
	return nil
}

// Running reports whether the watch loop is active
func (cw *CertWatcher) Running() bool {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.running
}

// WatchedFiles returns the certificate files under watch
func (cw *CertWatcher) WatchedFiles() []string {
	return slices.Clone(cw.files)
}

// seedModTimes records the starting modification times. Files that do
// not exist yet are tolerated; they register as changed once created.
func (cw *CertWatcher) seedModTimes() error {
	for _, f := range cw.files {
		stat, err := os.Stat(f)
		switch {
		case err == nil:
			cw.modTimes[f] = stat.ModTime()
		case os.IsNotExist(err):
		default:
			return fmt.Errorf("failed to stat certificate file %s: %w", f, err)
		}
	}
	return nil
}

func (cw *CertWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.fsWatcher.Events:
			if !ok {
				return
			}
			if cw.relevant(event) {
				cw.scheduleReload()
			}

		case err, ok := <-cw.fsWatcher.Errors:
			if !ok {
				return
			}
			if cw.logger != nil {
				cw.logger.LogError(err, "Certificate file watcher error")
			}

		case <-cw.pending:
			if cw.anyFileChanged() {
				if cw.logger != nil {
					cw.logger.Info("Certificate files changed, triggering reload")
				}
				cw.onChange()
			}

		case <-cw.stop:
			return
		}
	}
}

// relevant filters directory events down to writes, creates and renames
// of the watched files
func (cw *CertWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return slices.ContainsFunc(cw.files, func(f string) bool {
		return event.Name == f || filepath.Base(event.Name) == filepath.Base(f)
	})
}

// anyFileChanged compares modification times against the last snapshot,
// updating it as a side effect. Deletion counts as a change so a removed
// certificate fails loudly at reload instead of at the next handshake.
func (cw *CertWatcher) anyFileChanged() bool {
	changed := false
	for _, f := range cw.files {
		stat, err := os.Stat(f)
		if err != nil {
			if os.IsNotExist(err) {
				if _, had := cw.modTimes[f]; had {
					delete(cw.modTimes, f)
					changed = true
				}
			}
			continue
		}
		last, had := cw.modTimes[f]
		if !had || stat.ModTime().After(last) {
			cw.modTimes[f] = stat.ModTime()
			changed = true
		}
	}
	return changed
}

// scheduleReload arms the debounce timer, collapsing event bursts
func (cw *CertWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.timer = time.AfterFunc(cw.debounce, func() {
		select {
		case cw.pending <- struct{}{}:
		default:
		}
	})
}
