// Package vfs provides a virtual file system abstraction.
//
// The VFS interface allows swapping the underlying file system
// implementation, enabling testing with in-memory file systems.
package vfs

import (
	"io/fs"
	"time"
)

// VFS is a virtual file system abstraction covering the operations the
// patch engine needs: reading files into buffers, writing staged results,
// and path normalization.
type VFS interface {
	// ReadFile reads the entire file content.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary.
	WriteFile(path string, data []byte, perm fs.FileMode) error

	// Stat returns file information.
	Stat(path string) (FileInfo, error)

	// Abs returns the absolute, cleaned form of a path.
	Abs(path string) (string, error)

	// Exists returns true if the path exists.
	Exists(path string) bool
}

// FileInfo describes a file.
type FileInfo struct {
	Path    string
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
	Dir     bool
}

// IsDir returns true if the entry is a directory.
func (fi FileInfo) IsDir() bool {
	return fi.Dir
}

// IsBinary reports whether content looks like binary data.
// It checks for NUL bytes in the first 8000 bytes, the same heuristic git
// uses.
func IsBinary(content []byte) bool {
	n := len(content)
	if n > 8000 {
		n = 8000
	}
	for i := 0; i < n; i++ {
		if content[i] == 0 {
			return true
		}
	}
	return false
}
