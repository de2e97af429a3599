// Package daemon provides the watch daemon that keeps the store and the
// vault converged while a human edits task documents.
//
// The daemon:
// 1. Watches the vault's tasks/ directory for markdown changes
// 2. Debounces rapid edits and runs a reverse sync per batch
// 3. Periodically runs a forward sync as a safety net
// 4. Handles graceful shutdown
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/deltatask/deltatask/internal/engine"
	"github.com/deltatask/deltatask/internal/vault"
)

// Config holds configuration for the daemon.
type Config struct {
	// DebounceInterval is how long to wait after the last edit before a
	// reverse sync runs. This batches editor save bursts together.
	DebounceInterval time.Duration

	// ResyncInterval is how often to run a full forward sync regardless of
	// file events.
	ResyncInterval time.Duration

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 500 * time.Millisecond,
		ResyncInterval:   5 * time.Minute,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates file watching and store synchronization.
type Daemon struct {
	engine   *engine.Engine
	tasksDir string
	config   *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // filepath -> last event
	changeQueueMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon watching the vault rooted at vaultDir.
// Use Start() to begin watching and syncing.
func New(eng *engine.Engine, vaultDir string, config *Config) (*Daemon, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if vaultDir == "" {
		return nil, fmt.Errorf("vaultDir cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		engine:      eng,
		tasksDir:    filepath.Join(vaultDir, "tasks"),
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// The daemon will:
// 1. Perform an initial forward sync so the vault exists and is current
// 2. Start watching the tasks directory
// 3. Process edits with debouncing via reverse sync
// 4. Periodically forward-sync as a safety net
//
// This blocks until ctx is cancelled or startup fails.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if _, err := d.engine.ForwardSync(ctx); err != nil {
		return fmt.Errorf("initial sync failed: %w", err)
	}

	if err := d.watcher.Add(d.tasksDir); err != nil {
		return fmt.Errorf("failed to watch tasks directory: %w", err)
	}
	d.config.Logger.Printf("Watching: %s", d.tasksDir)

	d.wg.Add(3)
	go d.watchFileEvents()
	go d.processChangeQueue()
	go d.periodicResync()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// watchFileEvents monitors filesystem events and queues changes.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if !d.relevant(event) {
				continue
			}
			d.config.Logger.Printf("File event: %s %s", event.Op, event.Name)
			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// relevant filters events down to human-editable task documents.
// Generated view files change on every sync the daemon itself triggers, so
// reacting to them would loop forever.
func (d *Daemon) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, ".md") {
		return false
	}
	return !vault.ViewFiles[name]
}

// queueChange adds a file to the change queue with debouncing.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

// processChangeQueue drains the change queue once edits have settled.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			if d.drainSettled() {
				d.runReverseSync()
			}
		}
	}
}

// drainSettled removes queue entries older than the debounce interval and
// reports whether any were drained. Entries still inside the window stay
// queued for the next tick.
func (d *Daemon) drainSettled() bool {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	now := time.Now()
	drained := false
	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}
		delete(d.changeQueue, path)
		drained = true
	}
	return drained
}

func (d *Daemon) runReverseSync() {
	result, err := d.engine.ReverseSync(d.ctx)
	if err != nil {
		d.config.Logger.Printf("Error in reverse sync: %v", err)
		return
	}
	d.config.Logger.Printf("Reverse sync: %d scanned, %d updated, %d inserted, %d skipped, %d failed",
		result.Scanned, result.Updated, result.Inserted, result.Skipped, result.Failed)
}

// periodicResync forward-syncs on a timer so the vault converges even when
// a projection failed or a file was changed without a watch event.
func (d *Daemon) periodicResync() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.ResyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			if _, err := d.engine.ForwardSync(d.ctx); err != nil {
				d.config.Logger.Printf("Error in periodic sync: %v", err)
			}
		}
	}
}
