package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ContextLines != 5 {
		t.Errorf("ContextLines = %d, want 5", cfg.ContextLines)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config Validate() error: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "patchwork.toml", `
context_lines = 3
workers = 8
max_file_size = 1024
watch_files = false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ContextLines != 3 || cfg.Workers != 8 || cfg.MaxFileSize != 1024 || cfg.WatchFiles {
		t.Errorf("Load() = %+v, fields not applied", cfg)
	}
	// Unset keys keep defaults.
	if cfg.QueueSize != 256 {
		t.Errorf("QueueSize = %d, want default 256", cfg.QueueSize)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "patchwork.yaml", `
context_lines: 2
queue_size: 64
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ContextLines != 2 || cfg.QueueSize != 64 {
		t.Errorf("Load() = %+v, fields not applied", cfg)
	}
}

func TestLoadUnknownExtension(t *testing.T) {
	path := writeFile(t, "patchwork.ini", "context_lines = 1")

	_, err := Load(path)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Load() error = %v, want ErrUnknownFormat", err)
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	path := writeFile(t, "bad.toml", "context_lines = = 1")

	_, err := Load(path)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Load() error = %v, want *ParseError", err)
	}
	if perr.Path != path {
		t.Errorf("ParseError.Path = %q, want %q", perr.Path, path)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PATCHWORK_CONTEXT_LINES", "9")
	t.Setenv("PATCHWORK_WATCH_FILES", "false")
	t.Setenv("PATCHWORK_WORKERS", "not-a-number") // ignored

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ContextLines != 9 {
		t.Errorf("ContextLines = %d, want 9 from env", cfg.ContextLines)
	}
	if cfg.WatchFiles {
		t.Error("WatchFiles = true, want false from env")
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want default despite bad env value", cfg.Workers)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "patchwork.toml", "context_lines = 3")
	t.Setenv("PATCHWORK_CONTEXT_LINES", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ContextLines != 7 {
		t.Errorf("ContextLines = %d, want env to win over file", cfg.ContextLines)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"negative context", func(c *Config) { c.ContextLines = -1 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }},
		{"zero max file size", func(c *Config) { c.MaxFileSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mut(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}
