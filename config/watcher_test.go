package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "face.yaml", faceYAML)

	w, err := NewWatcher(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte(faceYAML+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	want, _ := filepath.Abs(path)
	select {
	case got := <-w.Events:
		if got != want {
			t.Errorf("event\nhave %q\nwant %q", got, want)
		}
	case err := <-w.Errors:
		t.Fatalf("watcher error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no event within 5s of writing the file")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "face.yaml", faceYAML)

	w, err := NewWatcher(path, 0)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	writeFile(t, dir, "other.yaml", "asset: other.gltf\n")

	select {
	case got := <-w.Events:
		t.Errorf("unexpected event for %q", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "face.yaml", faceYAML)

	w, err := NewWatcher(path, 2*time.Second)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	for range 5 {
		if err := os.WriteFile(path, []byte(faceYAML), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-w.Events:
	case <-time.After(5 * time.Second):
		t.Fatal("no event within 5s of writing the file")
	}
	select {
	case got := <-w.Events:
		t.Errorf("second event %q inside the debounce window", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherCloseClosesChannels(t *testing.T) {
	path := writeFile(t, t.TempDir(), "face.yaml", faceYAML)
	w, err := NewWatcher(path, 0)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := <-w.Events; ok {
		t.Error("Events still open after Close")
	}
	if _, ok := <-w.Errors; ok {
		t.Error("Errors still open after Close")
	}
}
