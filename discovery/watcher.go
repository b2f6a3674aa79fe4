package discovery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the source watcher
type WatcherConfig struct {
	// Root is the module directory to watch
	Root string

	// SkipDirs lists directories whose changes are ignored, such as the
	// generator's output directory
	SkipDirs []string

	// DebounceDelay is how long to wait for more changes before emitting
	DebounceDelay time.Duration

	// Logger for logging events
	Logger *slog.Logger
}

// WatchOperation indicates the type of file operation
type WatchOperation string

const (
	OpCreate WatchOperation = "create"
	OpModify WatchOperation = "modify"
	OpDelete WatchOperation = "delete"
)

// Change is a single source file change
type Change struct {
	// Path is the file path relative to the watch root
	Path string

	// Operation is the type of change
	Operation WatchOperation
}

// WatchEvent is a debounced batch of source changes
type WatchEvent struct {
	Changes []Change
}

// Watcher watches a module's Go sources and emits debounced change batches.
// Writes that leave a file's content unchanged are dropped.
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	skip    map[string]bool

	// Debouncing: collect changes before emitting
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // path → most recent operation

	// State tracking for change detection
	hashMu sync.RWMutex
	hashes map[string]string // relative path → content hash

	events chan WatchEvent
}

// NewWatcher creates a new source watcher
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if config.DebounceDelay == 0 {
		config.DebounceDelay = 200 * time.Millisecond
	}

	if root, err := filepath.Abs(config.Root); err == nil {
		config.Root = root
	}

	skip := make(map[string]bool)
	for _, dir := range config.SkipDirs {
		if abs, err := filepath.Abs(dir); err == nil {
			skip[abs] = true
		}
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		skip:    skip,
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
		events:  make(chan WatchEvent, 16),
	}, nil
}

// Events returns the channel of change batches
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start records the current content hashes and begins watching
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.config.Root); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Source watcher started",
		"root", w.config.Root,
		"debounce", w.config.DebounceDelay)

	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// ComputeHash computes a short SHA256 hash of the given content
func ComputeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:8])
}

// addWatchesRecursive adds watches to all directories and seeds hashes
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			if strings.HasSuffix(path, ".go") {
				if content, err := os.ReadFile(path); err == nil {
					w.setHash(w.relPath(path), ComputeHash(content))
				}
			}
			return nil
		}

		if w.ignoredDir(path) && path != root {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}

		return nil
	})
}

// ignoredDir reports whether a directory is never watched
func (w *Watcher) ignoredDir(path string) bool {
	if w.skip[path] {
		return true
	}
	base := filepath.Base(path)
	return base == "vendor" || base == "testdata" || strings.HasPrefix(base, ".")
}

// processEvents handles fsnotify events with debouncing
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleFSEvent processes a single fsnotify event
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if !strings.HasSuffix(path, ".go") {
		// Watch directories created after start
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() && !w.ignoredDir(path) {
				if err := w.watcher.Add(path); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
				}
			}
		}
		return
	}
	if w.skip[filepath.Dir(path)] || strings.HasSuffix(path, "_test.go") {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Source change detected",
		"path", w.relPath(path),
		"op", event.Op.String())
}

// flushPending emits accumulated changes as one batch
func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	var changes []Change
	for path, op := range toProcess {
		relPath := w.relPath(path)

		content, err := os.ReadFile(path)
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) || os.IsNotExist(err) {
			w.hashMu.Lock()
			delete(w.hashes, relPath)
			w.hashMu.Unlock()
			changes = append(changes, Change{Path: relPath, Operation: OpDelete})
			continue
		}
		if err != nil {
			w.logger.Warn("Failed to read changed file", "path", relPath, "error", err)
			continue
		}

		hash := ComputeHash(content)
		oldHash, hadHash := w.getHash(relPath)
		if hadHash && oldHash == hash {
			continue
		}
		w.setHash(relPath, hash)

		operation := OpModify
		if !hadHash {
			operation = OpCreate
		}
		changes = append(changes, Change{Path: relPath, Operation: operation})
	}

	if len(changes) == 0 {
		return
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })

	select {
	case w.events <- WatchEvent{Changes: changes}:
		w.logger.Debug("Sent watch event", "changes", len(changes))
	default:
		w.logger.Warn("Event channel full, dropping batch", "changes", len(changes))
	}
}

func (w *Watcher) relPath(path string) string {
	rel, err := filepath.Rel(w.config.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) setHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

func (w *Watcher) getHash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[path]
	return hash, ok
}
