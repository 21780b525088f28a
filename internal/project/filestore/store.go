// Package filestore manages the buffers the patch engine has open, keyed by
// absolute file path. It is the project/file service the resolver uses to
// load edit targets on demand.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/patchwork/internal/engine/buffer"
	"github.com/dshills/patchwork/internal/project/vfs"
)

// Errors returned by store operations.
var (
	ErrFileTooLarge = errors.New("file too large")
	ErrBinaryFile   = errors.New("binary file")
	ErrIsDirectory  = errors.New("is a directory")
	ErrNotOpen      = errors.New("file not open")
)

// PathError wraps an error with the operation and path that caused it.
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PathError) Unwrap() error {
	return e.Err
}

// DefaultMaxFileSize bounds the size of files the store will open.
const DefaultMaxFileSize = 10 * 1024 * 1024

// FileStore manages open buffers.
// It provides thread-safe access and caches buffers per path.
type FileStore struct {
	mu      sync.RWMutex
	buffers map[string]*buffer.Buffer // abs path -> buffer
	byID    map[buffer.ID]string      // buffer identity -> abs path
	fs      vfs.VFS

	maxFileSize int64

	onReload []func(buf *buffer.Buffer)
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithMaxFileSize sets the maximum file size the store will open.
func WithMaxFileSize(size int64) Option {
	return func(s *FileStore) { s.maxFileSize = size }
}

// New creates a FileStore backed by the given file system.
func New(fsys vfs.VFS, opts ...Option) *FileStore {
	s := &FileStore{
		buffers:     make(map[string]*buffer.Buffer),
		byID:        make(map[buffer.ID]string),
		fs:          fsys,
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens a file and returns its buffer.
// If the file is already open, the existing buffer is returned.
func (s *FileStore) Open(ctx context.Context, path string) (*buffer.Buffer, error) {
	absPath, err := s.fs.Abs(path)
	if err != nil {
		return nil, &PathError{Op: "open", Path: path, Err: err}
	}

	s.mu.RLock()
	if buf, ok := s.buffers[absPath]; ok {
		s.mu.RUnlock()
		return buf, nil
	}
	s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := s.fs.Stat(absPath)
	if err != nil {
		return nil, &PathError{Op: "open", Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &PathError{Op: "open", Path: path, Err: ErrIsDirectory}
	}
	if s.maxFileSize > 0 && info.Size > s.maxFileSize {
		return nil, &PathError{Op: "open", Path: path, Err: ErrFileTooLarge}
	}

	content, err := s.fs.ReadFile(absPath)
	if err != nil {
		return nil, &PathError{Op: "open", Path: path, Err: err}
	}
	if vfs.IsBinary(content) {
		return nil, &PathError{Op: "open", Path: path, Err: ErrBinaryFile}
	}

	return s.adopt(absPath, string(content)), nil
}

// OpenOrCreate opens a file, or returns an empty buffer for the path when
// the file does not exist yet. Create edits target files that are new.
func (s *FileStore) OpenOrCreate(ctx context.Context, path string) (*buffer.Buffer, error) {
	buf, err := s.Open(ctx, path)
	if err == nil {
		return buf, nil
	}
	var pathErr *PathError
	if errors.As(err, &pathErr) && !s.fs.Exists(path) {
		absPath, absErr := s.fs.Abs(path)
		if absErr != nil {
			return nil, &PathError{Op: "create", Path: path, Err: absErr}
		}
		return s.adopt(absPath, ""), nil
	}
	return nil, err
}

// adopt registers a buffer for a path, resolving the race where two callers
// open the same file concurrently.
func (s *FileStore) adopt(absPath, content string) *buffer.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.buffers[absPath]; ok {
		return existing
	}
	buf := buffer.New(content, buffer.WithPath(absPath))
	s.buffers[absPath] = buf
	s.byID[buf.ID()] = absPath
	return buf
}

// Get returns the open buffer for a path, if any.
func (s *FileStore) Get(path string) (*buffer.Buffer, bool) {
	absPath, err := s.fs.Abs(path)
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	buf, ok := s.buffers[absPath]
	return buf, ok
}

// GetByID returns the open buffer with the given identity, if any.
func (s *FileStore) GetByID(id buffer.ID) (*buffer.Buffer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return s.buffers[path], true
}

// Paths returns the paths of all open buffers, sorted.
func (s *FileStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.buffers))
	for p := range s.buffers {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Reload re-reads a file from disk into its open buffer.
// Does nothing if the path is not open.
func (s *FileStore) Reload(path string) error {
	absPath, err := s.fs.Abs(path)
	if err != nil {
		return &PathError{Op: "reload", Path: path, Err: err}
	}

	s.mu.RLock()
	buf, ok := s.buffers[absPath]
	s.mu.RUnlock()
	if !ok {
		return &PathError{Op: "reload", Path: path, Err: ErrNotOpen}
	}

	content, err := s.fs.ReadFile(absPath)
	if err != nil {
		return &PathError{Op: "reload", Path: path, Err: err}
	}
	buf.SetText(string(content))

	s.mu.RLock()
	handlers := make([]func(*buffer.Buffer), len(s.onReload))
	copy(handlers, s.onReload)
	s.mu.RUnlock()
	for _, h := range handlers {
		h(buf)
	}
	return nil
}

// OnReload registers a handler invoked after a buffer is reloaded from disk.
func (s *FileStore) OnReload(h func(buf *buffer.Buffer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = append(s.onReload, h)
}
