// Package watch reports changes to documents on disk.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long a document has to be quiet before a change is reported
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports writes to a set of documents. The directory of each
// document is watched rather than the file itself, so editors that save by
// renaming a temporary file over the original are still noticed.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   zerolog.Logger

	events chan string
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup

	mu     sync.Mutex
	files  map[string]bool
	dirs   map[string]bool
	timers map[string]*time.Timer
	closed bool
}

// NewWatcher creates a new Watcher and starts its event loop
func NewWatcher(debounce time.Duration, logger zerolog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		debounce: debounce,
		logger:   logger,
		events:   make(chan string, 16),
		errors:   make(chan error, 4),
		done:     make(chan struct{}),
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		timers:   make(map[string]*time.Timer),
	}

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Add starts watching the document at path
func (w *Watcher) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	dir := filepath.Dir(absPath)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("watcher is closed")
	}
	if !w.dirs[dir] {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	w.files[absPath] = true

	w.logger.Debug().Str("file", absPath).Msg("Watching document")
	return nil
}

// Events delivers the absolute path of every changed document
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Errors delivers errors reported by the file system
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and closes the Events and Errors channels
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()

	close(w.events)
	close(w.errors)
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.schedule(filepath.Clean(event.Name))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Watcher error")
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// schedule reports path once it has been quiet for the debounce interval
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || !w.files[path] {
		return
	}

	if t, ok := w.timers[path]; ok && t.Stop() {
		w.wg.Done()
	}

	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.timers[path] == timer {
			delete(w.timers, path)
		}
		w.mu.Unlock()

		select {
		case w.events <- path:
		case <-w.done:
		}
	})
	w.timers[path] = timer
}
