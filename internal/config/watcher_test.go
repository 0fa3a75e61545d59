package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// send never blocks so a slow test cannot wedge the watcher goroutine.
func send[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func TestWatcherReloads(t *testing.T) {
	path := writeFile(t, "config.toml", "[terminal]\ncols = 80\n")

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { send(changes, c) },
		WithDebounce(50*time.Millisecond),
		WithEnviron(func() []string { return []string{"PTYTERM_ROWS=33"} }),
	)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[terminal]\ncols = 132\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	// The truncate and the write may be delivered as separate reloads.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changes:
			if cfg.Terminal.Cols != 132 {
				continue
			}
			if cfg.Terminal.Rows != 33 {
				t.Errorf("Rows = %d, want env override 33", cfg.Terminal.Rows)
			}
			return
		case <-timeout:
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	path := writeFile(t, "config.toml", "")

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { send(changes, c) }, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	other := filepath.Join(filepath.Dir(path), "other.toml")
	if err := os.WriteFile(other, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changes:
		t.Fatal("reloaded on unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherReportsErrors(t *testing.T) {
	path := writeFile(t, "config.toml", "")

	errs := make(chan error, 4)
	w, err := NewWatcher(path, nil,
		WithDebounce(50*time.Millisecond),
		WithErrorHandler(func(err error) { send(errs, err) }),
		WithEnviron(func() []string { return nil }),
	)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[terminal\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errs:
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("err = %v, want *ParseError", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestWatcherClose(t *testing.T) {
	path := writeFile(t, "config.toml", "")

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if w.Path() != path {
		t.Errorf("Path() = %q, want %q", w.Path(), path)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestNewWatcherMissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope", "config.toml"), nil)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
