package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dshills/patchwork/internal/engine/buffer"
	"github.com/dshills/patchwork/internal/project/filestore"
	"github.com/dshills/patchwork/internal/project/vfs"
)

// recordingReloader collects reloaded paths.
type recordingReloader struct {
	mu    sync.Mutex
	paths []string
	ch    chan string
}

func newRecordingReloader() *recordingReloader {
	return &recordingReloader{ch: make(chan string, 16)}
}

func (r *recordingReloader) Reload(path string) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.ch <- path
	return nil
}

func (r *recordingReloader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	r := newRecordingReloader()
	w, err := New(r, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer w.Close()

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	select {
	case got := <-r.ch:
		if got != path {
			t.Errorf("reloaded %q, want %q", got, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	r := newRecordingReloader()
	w, err := New(r, WithDebounce(100*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer w.Close()

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("burst"), 0o644); err != nil {
			t.Fatalf("WriteFile() error: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-r.ch:
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after burst")
	}
	// Allow any stragglers to fire, then check the burst collapsed.
	time.Sleep(300 * time.Millisecond)
	if got := r.count(); got > 2 {
		t.Errorf("reload count = %d, want the burst debounced to at most 2", got)
	}
}

func TestWatcherRefreshesFileStoreBuffers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("one\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	files := filestore.New(vfs.NewOSFS())
	buf, err := files.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	reloaded := make(chan string, 1)
	files.OnReload(func(b *buffer.Buffer) { reloaded <- b.Path() })

	w, err := New(files, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer w.Close()
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error: %v", err)
	}

	if err := os.WriteFile(path, []byte("two\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}
	if got := buf.Text(); got != "two\n" {
		t.Errorf("buffer text after reload = %q, want %q", got, "two\n")
	}
}

func TestWatcherClose(t *testing.T) {
	r := newRecordingReloader()
	w, err := New(r)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	// Closing twice is a no-op.
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	if err := w.Watch("/tmp/x"); err != ErrClosed {
		t.Errorf("Watch() after Close error = %v, want ErrClosed", err)
	}
}
