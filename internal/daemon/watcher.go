package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc re-reads the configuration. It returns the files the new
// configuration was loaded from so the watcher can follow new includes.
type ReloadFunc func(ctx context.Context) ([]string, error)

// WatcherConfig holds configuration for the config watcher.
type WatcherConfig struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher reloads the configuration when one of its files changes on disk.
// Editors save through rename and truncate sequences, so directories are
// watched rather than files and bursts of events are debounced.
type Watcher struct {
	debounce time.Duration
	reload   ReloadFunc
	logger   *slog.Logger

	files map[string]struct{}
	dirs  map[string]struct{}
}

// NewWatcher creates a watcher for files. reload runs once per burst of
// changes.
func NewWatcher(cfg WatcherConfig, files []string, reload ReloadFunc) *Watcher {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		debounce: debounce,
		reload:   reload,
		logger:   logger,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
	}
	for _, f := range files {
		w.files[filepath.Clean(f)] = struct{}{}
	}
	return w
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer fsw.Close()

	w.watchDirs(fsw)
	if len(w.dirs) == 0 {
		return fmt.Errorf("no config directory to watch")
	}

	w.logger.Info("config watcher started", "dirs", len(w.dirs))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("config watcher stopped")
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("config change", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		case <-timer.C:
			w.reloadNow(ctx, fsw)
		}
	}
}

func (w *Watcher) reloadNow(ctx context.Context, fsw *fsnotify.Watcher) {
	// Recover from panics to keep the daemon alive
	defer func() {
		if err := recover(); err != nil {
			w.logger.Error("config reload panic recovered", "error", err)
		}
	}()

	files, err := w.reload(ctx)
	if err != nil {
		w.logger.Error("config reload failed; keeping previous bindings", "error", err)
		return
	}
	for _, f := range files {
		w.files[filepath.Clean(f)] = struct{}{}
	}
	w.watchDirs(fsw)
}

func (w *Watcher) watchDirs(fsw *fsnotify.Watcher) {
	for f := range w.files {
		dir := filepath.Dir(f)
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("cannot watch config directory", "dir", dir, "error", err)
			continue
		}
		w.dirs[dir] = struct{}{}
	}
}

// relevant reports whether ev touches a config file: a known file, or any
// YAML/TOML file appearing in a watched include directory.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(ev.Name)
	if _, ok := w.files[name]; ok {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".toml":
		return true
	}
	return false
}
