package vfs

import (
	"io/fs"
	"path"
	"sync"
	"time"
)

// MemFS implements VFS using an in-memory file system.
// It is primarily used for testing.
//
// MemFS is safe for concurrent use. All paths are rooted at "/".
type MemFS struct {
	mu    sync.RWMutex
	files map[string]*memFile
}

type memFile struct {
	content []byte
	mode    fs.FileMode
	modTime time.Time
}

// NewMemFS creates a new in-memory file system.
func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string]*memFile)}
}

var _ VFS = (*MemFS)(nil)

func (m *MemFS) cleanPath(p string) string {
	if !path.IsAbs(p) {
		p = "/" + p
	}
	return path.Clean(p)
}

// ReadFile reads the entire file content.
func (m *MemFS) ReadFile(p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[m.cleanPath(p)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: p, Err: fs.ErrNotExist}
	}
	out := make([]byte, len(f.content))
	copy(out, f.content)
	return out, nil
}

// WriteFile writes data to a file, creating it if necessary.
func (m *MemFS) WriteFile(p string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	content := make([]byte, len(data))
	copy(content, data)
	m.files[m.cleanPath(p)] = &memFile{
		content: content,
		mode:    perm,
		modTime: time.Now(),
	}
	return nil
}

// Stat returns file information.
func (m *MemFS) Stat(p string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clean := m.cleanPath(p)
	f, ok := m.files[clean]
	if !ok {
		return FileInfo{}, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
	}
	return FileInfo{
		Path:    clean,
		Size:    int64(len(f.content)),
		Mode:    f.mode,
		ModTime: f.modTime,
	}, nil
}

// Abs returns the absolute, cleaned form of a path.
func (m *MemFS) Abs(p string) (string, error) {
	return m.cleanPath(p), nil
}

// Exists returns true if the path exists.
func (m *MemFS) Exists(p string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[m.cleanPath(p)]
	return ok
}
