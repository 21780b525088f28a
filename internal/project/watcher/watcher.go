// Package watcher reloads open buffers when their backing files change on
// disk. Resolution always re-diffs located edits against the live buffer, so
// keeping buffers fresh is all that is needed for the engine to self-heal
// after external modifications.
package watcher

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last write event
// before reloading a file. Editors frequently emit several events per save.
const DefaultDebounce = 50 * time.Millisecond

// ErrClosed is returned when operations are attempted on a closed watcher.
var ErrClosed = errors.New("watcher is closed")

// Reloader receives paths whose content changed on disk.
type Reloader interface {
	Reload(path string) error
}

// Watcher monitors files with fsnotify and triggers reloads.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	reloader Reloader
	debounce time.Duration
	pending  map[string]*time.Timer
	closed   bool
	done     chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the reload debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher that reloads changed paths through the reloader.
func New(reloader Reloader, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		reloader: reloader,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.run()
	return w, nil
}

// Watch starts monitoring a file path.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.fsw.Add(path)
}

// Unwatch stops monitoring a file path.
func (w *Watcher) Unwatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.fsw.Remove(path)
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, t := range w.pending {
		t.Stop()
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.schedule(ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("file watcher error", "err", err)
		}
	}
}

// schedule arms (or re-arms) the debounce timer for a path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return
		}
		if err := w.reloader.Reload(path); err != nil {
			slog.Warn("reload after change failed", "path", path, "err", err)
		}
	})
}
