package config

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadCallback receives the freshly loaded records after a route file change.
type ReloadCallback func([]Record)

// ErrorCallback is called when a reload attempt fails.
type ErrorCallback func(error)

// Watcher watches a route definition source for changes and reloads it.
// A failed reload never replaces the last good records.
type Watcher struct {
	path          string
	watcher       *fsnotify.Watcher
	callback      ReloadCallback
	errorCallback ErrorCallback
	logger        *zap.Logger
	debounceDelay time.Duration
	lastRecords   []Record
	mu            sync.RWMutex
	stopCh        chan struct{}
	stoppedCh     chan struct{}
	running       bool
}

// WatcherOption is a functional option for configuring the watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets the debounce delay for file changes.
func WithDebounceDelay(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = delay
	}
}

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithErrorCallback sets the error callback for the watcher.
func WithErrorCallback(callback ErrorCallback) WatcherOption {
	return func(w *Watcher) {
		w.errorCallback = callback
	}
}

// NewWatcher creates a watcher for the given route source path. The path may
// be a file or a directory, mirroring what Load accepts.
func NewWatcher(path string, callback ReloadCallback, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:          absPath,
		watcher:       fsWatcher,
		callback:      callback,
		debounceDelay: 100 * time.Millisecond,
		logger:        zap.NewNop(),
		stopCh:        make(chan struct{}),
		stoppedCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Start loads the source once and begins watching it for changes.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	abort := func(err error) error {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	records, err := Load(w.path, WithLogger(w.logger))
	if err != nil {
		return abort(err)
	}

	w.mu.Lock()
	w.lastRecords = records
	w.mu.Unlock()

	// Watching the parent directory also catches editors that replace the
	// file instead of writing it in place.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return abort(err)
	}
	if err := w.watcher.Add(w.path); err != nil {
		return abort(err)
	}

	w.logger.Info("started watching route source", zap.String("path", w.path))

	go w.watch(ctx)

	return nil
}

// Stop stops watching the route source.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.stoppedCh

	return w.watcher.Close()
}

// Records returns the last successfully loaded records.
func (w *Watcher) Records() []Record {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastRecords
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.stoppedCh)

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("route watcher stopped due to context cancellation")
			return

		case <-w.stopCh:
			w.logger.Info("route watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			debounceTimer, debounceCh = w.handleFileEvent(event, debounceTimer, debounceCh)

		case <-debounceCh:
			debounceCh = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.handleWatchError(err)
		}
	}
}

// handleFileEvent processes a file system event and returns the updated
// debounce timer.
func (w *Watcher) handleFileEvent(
	event fsnotify.Event,
	debounceTimer *time.Timer,
	debounceCh <-chan time.Time,
) (timer *time.Timer, ch <-chan time.Time) {
	if !w.relevant(event.Name) {
		return debounceTimer, debounceCh
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return debounceTimer, debounceCh
	}

	w.logger.Debug("route source changed",
		zap.String("path", event.Name),
		zap.String("op", event.Op.String()),
	)

	if debounceTimer != nil {
		debounceTimer.Stop()
	}
	debounceTimer = time.NewTimer(w.debounceDelay)
	return debounceTimer, debounceTimer.C
}

// relevant reports whether an event path concerns the watched source: the
// source itself, or a route file below it when the source is a directory.
func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if name == w.path {
		return true
	}
	rel, err := filepath.Rel(w.path, name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return isRouteFile(name)
}

func (w *Watcher) handleWatchError(err error) {
	w.logger.Error("route watcher error", zap.Error(err))
	if w.errorCallback != nil {
		w.errorCallback(err)
	}
}

func (w *Watcher) reload() {
	w.logger.Info("reloading route source", zap.String("path", w.path))

	records, err := Load(w.path, WithLogger(w.logger))
	if err != nil {
		w.logger.Error("failed to reload route source", zap.Error(err))
		if w.errorCallback != nil {
			w.errorCallback(err)
		}
		return
	}

	w.mu.Lock()
	w.lastRecords = records
	w.mu.Unlock()

	w.logger.Info("route source reloaded", zap.Int("routes", len(records)))

	if w.callback != nil {
		w.callback(records)
	}
}

// ForceReload forces an immediate reload of the route source.
func (w *Watcher) ForceReload() error {
	records, err := Load(w.path, WithLogger(w.logger))
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.lastRecords = records
	w.mu.Unlock()

	if w.callback != nil {
		w.callback(records)
	}

	return nil
}
