// Package watch re-runs the query batch when the config file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"seatfinder/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce absorbs the burst of events a single editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc is called once per settled change. Calls never overlap.
type ChangeFunc func(ctx context.Context)

// ConfigWatcher watches one file and calls a ChangeFunc after it settles.
//
// The parent directory is watched rather than the file itself, since many
// editors save by writing a temporary file and renaming it over the original.
type ConfigWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	dir         string
	onChange    ChangeFunc
	debounceDur time.Duration
	lastEvent   time.Time
	pending     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// Stats tracks watcher activity.
type Stats struct {
	Events    int // events for the watched file
	Triggers  int // ChangeFunc calls
	Errors    int
	LastEvent time.Time
}

// NewConfigWatcher creates a watcher for path. A debounce <= 0 uses
// DefaultDebounce.
func NewConfigWatcher(path string, debounce time.Duration, onChange ChangeFunc) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &ConfigWatcher{
		watcher:     w,
		path:        abs,
		dir:         filepath.Dir(abs),
		onChange:    onChange,
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. It does not block. The watcher is closed when Start
// fails, so a failed ConfigWatcher cannot be restarted.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	cw.mu.Lock()
	if cw.running {
		cw.mu.Unlock()
		return nil
	}
	cw.running = true
	cw.mu.Unlock()

	if err := cw.watcher.Add(cw.dir); err != nil {
		cw.mu.Lock()
		cw.running = false
		cw.mu.Unlock()
		// Stop is a no-op after a failed Start, so release the watcher here.
		if cerr := cw.watcher.Close(); cerr != nil {
			logging.WatchWarn("ConfigWatcher: error closing watcher: %v", cerr)
		}
		return fmt.Errorf("watch %s: %w", cw.dir, err)
	}
	logging.Watch("ConfigWatcher: watching %s", cw.path)

	go cw.run(ctx)
	return nil
}

// Stop stops the watcher and waits for an in-flight ChangeFunc to return.
func (cw *ConfigWatcher) Stop() {
	cw.mu.Lock()
	if !cw.running {
		cw.mu.Unlock()
		return
	}
	cw.running = false
	cw.mu.Unlock()

	close(cw.stopCh)
	<-cw.doneCh

	if err := cw.watcher.Close(); err != nil {
		logging.WatchWarn("ConfigWatcher: error closing watcher: %v", err)
	}
	logging.Watch("ConfigWatcher: stopped")
}

// Done is closed once the event loop has exited.
func (cw *ConfigWatcher) Done() <-chan struct{} { return cw.doneCh }

// Stats returns a snapshot of the watcher's counters.
func (cw *ConfigWatcher) Stats() Stats {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.stats
}

func (cw *ConfigWatcher) run(ctx context.Context) {
	defer close(cw.doneCh)

	tick := cw.debounceDur / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	debounceTicker := time.NewTicker(tick)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.WatchDebug("ConfigWatcher: context cancelled")
			return

		case <-cw.stopCh:
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleEvent(event)

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logging.WatchWarn("ConfigWatcher error: %v", err)
			cw.mu.Lock()
			cw.stats.Errors++
			cw.mu.Unlock()

		case <-debounceTicker.C:
			if cw.settled(time.Now()) {
				cw.trigger(ctx)
			}
		}
	}
}

func (cw *ConfigWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != cw.path {
		return
	}
	// Chmod alone never changes the queries
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	logging.WatchDebug("ConfigWatcher: %s", event)

	cw.mu.Lock()
	now := time.Now()
	cw.lastEvent = now
	cw.pending = true
	cw.stats.Events++
	cw.stats.LastEvent = now
	cw.mu.Unlock()
}

// settled reports and clears a pending change older than the debounce window.
func (cw *ConfigWatcher) settled(now time.Time) bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if !cw.pending || now.Sub(cw.lastEvent) < cw.debounceDur {
		return false
	}
	cw.pending = false
	cw.stats.Triggers++
	return true
}

func (cw *ConfigWatcher) trigger(ctx context.Context) {
	logging.Watch("ConfigWatcher: %s changed", filepath.Base(cw.path))
	if cw.onChange != nil {
		cw.onChange(ctx)
	}
}
