package vfs

import (
	"errors"
	"io/fs"
	"testing"
)

func TestMemFSReadWrite(t *testing.T) {
	m := NewMemFS()

	if err := m.WriteFile("/a/b.txt", []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	got, err := m.ReadFile("/a/b.txt")
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("ReadFile() = %q, want %q", got, "hello")
	}
	if !m.Exists("/a/b.txt") {
		t.Error("Exists() = false, want true")
	}
}

func TestMemFSMissingFile(t *testing.T) {
	m := NewMemFS()

	_, err := m.ReadFile("/nope")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile() error = %v, want fs.ErrNotExist", err)
	}
	_, err = m.Stat("/nope")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat() error = %v, want fs.ErrNotExist", err)
	}
	if m.Exists("/nope") {
		t.Error("Exists() = true, want false")
	}
}

func TestMemFSPathNormalization(t *testing.T) {
	m := NewMemFS()

	if err := m.WriteFile("a.txt", []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	// Relative and unclean paths resolve to the same rooted file.
	if _, err := m.ReadFile("/a.txt"); err != nil {
		t.Errorf("ReadFile(/a.txt) error: %v", err)
	}
	if _, err := m.ReadFile("/./a.txt"); err != nil {
		t.Errorf("ReadFile(/./a.txt) error: %v", err)
	}

	abs, err := m.Abs("x/../a.txt")
	if err != nil {
		t.Fatalf("Abs() error: %v", err)
	}
	if abs != "/a.txt" {
		t.Errorf("Abs() = %q, want %q", abs, "/a.txt")
	}
}

func TestMemFSStat(t *testing.T) {
	m := NewMemFS()
	if err := m.WriteFile("/a.txt", []byte("12345"), 0o600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	info, err := m.Stat("/a.txt")
	if err != nil {
		t.Fatalf("Stat() error: %v", err)
	}
	if info.Size != 5 {
		t.Errorf("Size = %d, want 5", info.Size)
	}
	if info.IsDir() {
		t.Error("IsDir() = true, want false")
	}
}

func TestIsBinary(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{"empty", nil, false},
		{"text", []byte("package main\n"), false},
		{"utf8", []byte("héllo wörld"), false},
		{"nul byte", []byte{'a', 0x00, 'b'}, true},
		{"elf header", []byte{0x7f, 'E', 'L', 'F', 0x00}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBinary(tt.content); got != tt.want {
				t.Errorf("IsBinary() = %v, want %v", got, tt.want)
			}
		})
	}
}
