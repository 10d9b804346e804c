package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "whimsy.yaml")
	if err := os.WriteFile(path, []byte("log_level: info\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var reloads atomic.Int32
	w := NewWatcher(WatcherConfig{Debounce: 100 * time.Millisecond, Logger: quietLogger()}, []string{path},
		func(ctx context.Context) ([]string, error) {
			reloads.Add(1)
			return nil, nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("log_level: debug\n"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for reloads.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	// Wait out another debounce window to catch a second, unwanted reload.
	time.Sleep(300 * time.Millisecond)
	if got := reloads.Load(); got != 1 {
		t.Fatalf("expected exactly one reload, got %d", got)
	}
}

func TestWatcherRunFailsWithoutDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope", "whimsy.yaml")
	w := NewWatcher(WatcherConfig{Logger: quietLogger()}, []string{missing},
		func(context.Context) ([]string, error) { return nil, nil })

	if err := w.Run(context.Background()); err == nil {
		t.Fatalf("expected error when nothing can be watched")
	}
}

func TestWatcherRelevant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "whimsy.yaml")
	w := NewWatcher(WatcherConfig{}, []string{path}, nil)

	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: path, Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: path, Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: filepath.Join(dir, "conf.d", "10-extra.toml"), Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: filepath.Join(dir, ".whimsy.yaml.swp"), Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		if got := w.relevant(tt.ev); got != tt.want {
			t.Fatalf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
		}
	}
}
