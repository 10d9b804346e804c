// Package daemon wires the hotkey host, the binding registry and the
// dispatch loop into the long-running whimsy process, and keeps them in
// step with the configuration file.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/whimsy/internal/binding"
	"github.com/1broseidon/whimsy/internal/config"
	"github.com/1broseidon/whimsy/internal/dispatch"
	"github.com/1broseidon/whimsy/internal/hotkeys"
	"github.com/1broseidon/whimsy/internal/ipc"
	"github.com/1broseidon/whimsy/internal/platform"
	"github.com/google/uuid"
)

// Notifier tells the user about chords the host refused.
type Notifier interface {
	SetEnabled(enabled bool)
	RegistrationFailed(chords []string) error
}

// Options configures a Daemon.
type Options struct {
	// ConfigPath is re-read by Reload and watched for live reload.
	ConfigPath string
	Backend    platform.Backend
	Host       hotkeys.Host
	Logger     *slog.Logger
	// Level, when set, follows log_level across reloads.
	Level    *slog.LevelVar
	Notifier Notifier
	// WatchDebounce overrides the live reload debounce.
	WatchDebounce time.Duration
}

// Daemon owns one run of the hotkey service.
type Daemon struct {
	id       string
	opts     Options
	logger   *slog.Logger
	registry *hotkeys.Registry
	loop     *dispatch.Loop
	started  time.Time

	mu    sync.RWMutex
	cfg   *config.Config
	files []string

	reloadMu sync.Mutex
}

var _ ipc.Handler = (*Daemon)(nil)

// New registers the bindings of res with the host. Chords the host refuses
// are logged and reported through the notifier; they never fail New.
func New(res *config.LoadResult, opts Options) (*Daemon, error) {
	if res == nil || res.Config == nil {
		return nil, errors.New("daemon: no configuration")
	}
	if opts.Host == nil || opts.Backend == nil {
		return nil, errors.New("daemon: host and backend are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	logger = logger.With("instance", id)

	bindings, err := res.Config.CompileBindings()
	if err != nil {
		return nil, err
	}

	registry := hotkeys.NewRegistry(opts.Host)
	d := &Daemon{
		id:       id,
		opts:     opts,
		logger:   logger,
		registry: registry,
		loop:     dispatch.New(registry, opts.Host, opts.Backend, logger),
		started:  time.Now(),
	}
	d.apply(res)

	ids, err := registry.RegisterAll(bindings)
	d.reportFailures(err)
	logger.Info("bindings registered", "registered", len(ids), "configured", len(bindings))
	for _, w := range res.Warnings {
		logger.Warn("config warning", "warning", w)
	}
	return d, nil
}

// ID returns the instance id of this run.
func (d *Daemon) ID() string {
	return d.id
}

// Config returns the configuration currently in effect.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Loop returns the dispatch loop.
func (d *Daemon) Loop() *dispatch.Loop {
	return d.loop
}

// Run processes hotkeys until the host terminates, the host fails or ctx is
// done. Subscriptions are released before Run returns.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if d.opts.ConfigPath != "" {
		w := NewWatcher(WatcherConfig{
			Debounce: d.opts.WatchDebounce,
			Logger:   d.logger,
		}, d.watchFiles(), d.liveReload)
		go func() {
			if err := w.Run(ctx); err != nil {
				d.logger.Warn("live reload unavailable", "error", err)
			}
		}()
	}

	d.logger.Info("whimsy daemon started",
		"backend", d.opts.Backend.Name(),
		"bindings", d.registry.Len())

	err := d.loop.Run(ctx)
	if cerr := d.registry.Close(); cerr != nil {
		d.logger.Warn("failed to release hotkeys", "error", cerr)
	}
	return err
}

func (d *Daemon) watchFiles() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.files) > 0 {
		return append([]string(nil), d.files...)
	}
	return []string{d.opts.ConfigPath}
}

// liveReload is the watcher callback; it honours directives.live_reload.
func (d *Daemon) liveReload(ctx context.Context) ([]string, error) {
	if !d.Config().Directives.LiveReload {
		d.logger.Debug("config changed; live_reload is off")
		return nil, nil
	}
	data, err := d.Reload(ctx)
	if err != nil {
		return nil, err
	}
	d.logger.Info("config reloaded", "registered", data.Registered, "failed", len(data.Failed))
	return d.watchFiles(), nil
}

// Reload re-reads the configuration and swaps the registered bindings
// between two events. An invalid configuration leaves the current bindings
// in place.
func (d *Daemon) Reload(ctx context.Context) (ipc.ReloadData, error) {
	d.reloadMu.Lock()
	defer d.reloadMu.Unlock()

	if d.opts.ConfigPath == "" {
		return ipc.ReloadData{}, errors.New("no config path to reload from")
	}
	res, err := config.LoadFromPath(d.opts.ConfigPath)
	if err != nil {
		return ipc.ReloadData{}, err
	}
	bindings, err := res.Config.CompileBindings()
	if err != nil {
		return ipc.ReloadData{}, err
	}

	ids, err := d.loop.Replace(ctx, bindings)
	if errors.Is(err, dispatch.ErrTerminated) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ipc.ReloadData{}, fmt.Errorf("replace bindings: %w", err)
	}
	d.apply(res)
	failed := d.reportFailures(err)

	for _, w := range res.Warnings {
		d.logger.Warn("config warning", "warning", w)
	}
	return ipc.ReloadData{
		Registered: len(ids),
		Failed:     failed,
		Warnings:   res.Warnings,
	}, nil
}

func (d *Daemon) apply(res *config.LoadResult) {
	d.mu.Lock()
	d.cfg = res.Config
	d.files = append([]string(nil), res.Files...)
	d.mu.Unlock()

	if d.opts.Level != nil {
		d.opts.Level.Set(res.Config.SlogLevel())
	}
	if d.opts.Notifier != nil {
		d.opts.Notifier.SetEnabled(res.Config.Directives.NotifyFailures)
	}
}

// reportFailures logs every refused chord and returns their names.
func (d *Daemon) reportFailures(err error) []string {
	if err == nil {
		return nil
	}
	failures := hotkeys.Failures(err)
	chords := make([]string, 0, len(failures))
	for _, f := range failures {
		d.logger.Warn("hotkey registration failed",
			"chord", f.Binding.Chord().String(),
			"action", f.Binding.Action.String(),
			"error", f.Err)
		chords = append(chords, f.Binding.Chord().String())
	}
	if len(failures) == 0 {
		// Release errors only.
		d.logger.Warn("hotkey registry error", "error", err)
	}
	if d.opts.Notifier != nil && len(chords) > 0 {
		if nerr := d.opts.Notifier.RegistrationFailed(chords); nerr != nil {
			d.logger.Debug("notification failed", "error", nerr)
		}
	}
	return chords
}

// Status reports the daemon state for GET_STATUS.
func (d *Daemon) Status() ipc.StatusData {
	stats := d.loop.Stats()
	cfg := d.Config()
	return ipc.StatusData{
		InstanceID:    d.id,
		Backend:       d.opts.Backend.Name(),
		State:         d.loop.State().String(),
		ConfigPath:    d.opts.ConfigPath,
		LiveReload:    cfg.Directives.LiveReload,
		BindingCount:  d.registry.Len(),
		Activations:   stats.Activations,
		Applied:       stats.Applied,
		Dropped:       stats.Dropped,
		Failures:      stats.Failures,
		UptimeSeconds: int64(time.Since(d.started).Seconds()),
		DaemonRunning: d.loop.State() != dispatch.StateTerminated,
	}
}

// Bindings lists the live registrations in id order.
func (d *Daemon) Bindings() []ipc.BindingInfo {
	entries := d.registry.Entries()
	out := make([]ipc.BindingInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, ipc.BindingInfo{
			ID:     uint32(e.ID),
			Chord:  e.Binding.Chord().String(),
			Action: e.Binding.Action.String(),
		})
	}
	return out
}

// Activate runs the binding registered under id as if its chord was pressed.
func (d *Daemon) Activate(ctx context.Context, id hotkeys.ID) (ipc.ActionData, error) {
	res, err := d.loop.Activate(ctx, id)
	return actionData(res), err
}

// ApplyAction runs action against the focused window.
func (d *Daemon) ApplyAction(ctx context.Context, action binding.Action) (ipc.ActionData, error) {
	res, err := d.loop.ApplyAction(ctx, action)
	return actionData(res), err
}

func actionData(res dispatch.Result) ipc.ActionData {
	return ipc.ActionData{
		Applied: res.Applied,
		Reason:  res.Reason,
		Target:  res.Target,
	}
}
