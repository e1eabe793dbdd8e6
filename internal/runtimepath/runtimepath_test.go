package runtimepath

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir_UsesXDGCacheHomeWhenSet(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", td)

	got, err := CacheDir()
	if err != nil {
		t.Fatalf("CacheDir() error: %v", err)
	}
	if got != td {
		t.Fatalf("CacheDir() = %q, want %q", got, td)
	}
}

func TestCacheDir_FallsBackToHomeCache(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", home)

	got, err := CacheDir()
	if err != nil {
		t.Fatalf("CacheDir() error: %v", err)
	}
	if want := filepath.Join(home, ".cache"); got != want {
		t.Fatalf("CacheDir() = %q, want %q", got, want)
	}
}

func TestNormalizeDisplay(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{":0", ":0.0"},
		{":0.0", ":0.0"},
		{":1.2", ":1.2"},
		{"localhost:10", "localhost:10.0"},
		{"host.example.com:3", "host.example.com:3.0"},
		{"nocolon", "nocolon"},
	}
	for _, tt := range tests {
		if got := NormalizeDisplay(tt.in); got != tt.want {
			t.Errorf("NormalizeDisplay(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSocketPath(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", td)

	got, err := SocketPath("", ":0")
	if err != nil {
		t.Fatalf("SocketPath() error: %v", err)
	}
	if want := filepath.Join(td, "orion.:0.0"); got != want {
		t.Fatalf("SocketPath() = %q, want %q", got, want)
	}

	t.Setenv("DISPLAY", ":3")
	got, err = SocketPath("wm", "")
	if err != nil {
		t.Fatalf("SocketPath() error: %v", err)
	}
	if want := filepath.Join(td, "wm.:3.0"); got != want {
		t.Fatalf("SocketPath() = %q, want %q", got, want)
	}
}

func TestSocketPath_RequiresDisplay(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("DISPLAY", "")

	if _, err := SocketPath("", ""); err == nil {
		t.Fatal("expected error without DISPLAY")
	}
}

func TestEnsureDir(t *testing.T) {
	td := t.TempDir()
	sock := filepath.Join(td, "nested", "dir", "orion.:0.0")
	if err := EnsureDir(sock); err != nil {
		t.Fatalf("EnsureDir() error: %v", err)
	}
	info, err := os.Stat(filepath.Dir(sock))
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory to exist, err=%v", err)
	}
}
