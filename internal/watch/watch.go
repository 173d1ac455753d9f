// Package watch reports changes below a set of folders. Bursts of
// filesystem events collapse into a single callback once things settle.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/llehouerou/shelf/internal/tags"
)

// DefaultDebounce is used when New is given a non-positive debounce.
const DefaultDebounce = 2 * time.Second

// Watcher watches folder trees recursively.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange func()
	log      *slog.Logger

	mu      sync.Mutex
	folders []string
	timer   *time.Timer
}

// New creates a watcher that calls onChange, on its own goroutine, once no
// relevant event arrived for debounce.
func New(onChange func(), debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		onChange: onChange,
		log:      logger.With("component", "watch"),
	}, nil
}

// SetFolders replaces the watched trees. Directories no longer below any
// folder stop being watched.
func (w *Watcher) SetFolders(folders []string) {
	w.mu.Lock()
	w.folders = slices.Clone(folders)
	w.mu.Unlock()

	for _, path := range w.fsw.WatchList() {
		if !w.covered(path) {
			if err := w.fsw.Remove(path); err != nil {
				w.log.Debug("unwatch failed", "path", path, "error", err)
			}
		}
	}
	for _, folder := range folders {
		w.addRecursive(folder)
	}
}

// Folders returns the watched trees.
func (w *Watcher) Folders() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.folders)
}

func (w *Watcher) covered(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, f := range w.folders {
		if path == f || strings.HasPrefix(path, f+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(root string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// skip inaccessible dirs
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				w.log.Warn("cannot watch", "path", path, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		w.log.Warn("walk failed", "folder", root, "error", err)
	}
}

// Run handles events until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopTimer()
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addRecursive(event.Name)
			w.schedule()
			return
		}
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
		return
	}
	// A removed directory has no extension to go by.
	if !tags.IsMusicFile(event.Name) && filepath.Ext(event.Name) != "" {
		return
	}
	w.schedule()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Reset(w.debounce)
		return
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.timer = nil
		w.mu.Unlock()

		w.log.Debug("changes settled")
		if w.onChange != nil {
			w.onChange()
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
