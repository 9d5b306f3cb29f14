// Package watcher reports debounced changes of a set of files.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events editors emit on save
const DefaultDebounce = 200 * time.Millisecond

// FileWatcher watches files for changes and triggers a callback once per
// burst of events. It watches the parent directories so files replaced by
// rename are still seen.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	mu     sync.Mutex
	files  map[string]func(string)
	dirs   map[string]int
	timers map[string]*time.Timer
}

// New creates a file watcher. A nil logger uses slog.Default().
func New(debounce time.Duration, logger *slog.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWatcher{
		watcher:  w,
		logger:   logger,
		debounce: debounce,
		files:    make(map[string]func(string)),
		dirs:     make(map[string]int),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Watch registers files; callback receives the absolute path that changed
func (fw *FileWatcher) Watch(files []string, callback func(string)) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", file, err)
		}
		if _, ok := fw.files[abs]; ok {
			fw.files[abs] = callback
			continue
		}
		dir := filepath.Dir(abs)
		if fw.dirs[dir] == 0 {
			if err := fw.watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
		}
		fw.dirs[dir]++
		fw.files[abs] = callback
	}
	return nil
}

// Run dispatches events until ctx is done or the watcher is closed
func (fw *FileWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				fw.schedule(filepath.Clean(event.Name))
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn("watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) schedule(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	callback, ok := fw.files[path]
	if !ok {
		return
	}
	if timer, ok := fw.timers[path]; ok {
		timer.Stop()
	}
	fw.timers[path] = time.AfterFunc(fw.debounce, func() {
		fw.logger.Debug("file changed", "path", path)
		callback(path)
	})
}

// RemoveAll forgets every watched file
func (fw *FileWatcher) RemoveAll() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for _, timer := range fw.timers {
		timer.Stop()
	}
	for dir := range fw.dirs {
		if err := fw.watcher.Remove(dir); err != nil {
			return err
		}
	}
	fw.files = make(map[string]func(string))
	fw.dirs = make(map[string]int)
	fw.timers = make(map[string]*time.Timer)
	return nil
}

// Close stops the watcher
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	for _, timer := range fw.timers {
		timer.Stop()
	}
	fw.mu.Unlock()
	return fw.watcher.Close()
}
