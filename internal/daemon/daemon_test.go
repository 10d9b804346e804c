package daemon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/whimsy/internal/binding"
	"github.com/1broseidon/whimsy/internal/config"
	"github.com/1broseidon/whimsy/internal/geometry"
	"github.com/1broseidon/whimsy/internal/hotkeys"
	"github.com/1broseidon/whimsy/internal/platform"
)

type fakeHost struct {
	mu     sync.Mutex
	events chan hotkeys.Event
	grabs  map[binding.Chord]hotkeys.ID
	refuse map[binding.Chord]bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		events: make(chan hotkeys.Event, 16),
		grabs:  make(map[binding.Chord]hotkeys.ID),
		refuse: make(map[binding.Chord]bool),
	}
}

func (h *fakeHost) Subscribe(id hotkeys.ID, chord binding.Chord) (hotkeys.Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.refuse[chord] {
		return nil, errors.New("chord is reserved")
	}
	if _, ok := h.grabs[chord]; ok {
		return nil, errors.New("chord already grabbed")
	}
	h.grabs[chord] = id
	return &fakeSub{host: h, chord: chord}, nil
}

func (h *fakeHost) Events() <-chan hotkeys.Event { return h.events }

func (h *fakeHost) Close() error {
	h.events <- hotkeys.Terminate()
	return nil
}

func (h *fakeHost) grabCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.grabs)
}

type fakeSub struct {
	host  *fakeHost
	chord binding.Chord
}

func (s *fakeSub) Unsubscribe() error {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	delete(s.host.grabs, s.chord)
	return nil
}

type fakeMonitor struct{ area geometry.Rect }

func (m fakeMonitor) WorkArea() (geometry.Rect, error) { return m.area, nil }

type fakeWindow struct {
	mu   sync.Mutex
	rect geometry.Rect
}

func (w *fakeWindow) Rect() (geometry.Rect, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rect, nil
}

func (w *fakeWindow) SetRect(r geometry.Rect) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rect = r
	return nil
}

func (w *fakeWindow) Monitor() platform.Monitor {
	return fakeMonitor{area: geometry.Rect{Right: 1000, Bottom: 800}}
}

type fakeBackend struct {
	window *fakeWindow
}

func (b *fakeBackend) FocusedWindow() (platform.Window, bool, error) {
	return b.window, true, nil
}

func (b *fakeBackend) Name() string { return "fake" }
func (b *fakeBackend) Close() error { return nil }

type fakeNotifier struct {
	mu      sync.Mutex
	enabled bool
	sent    [][]string
}

func (n *fakeNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	n.enabled = enabled
	n.mu.Unlock()
}

func (n *fakeNotifier) RegistrationFailed(chords []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.enabled {
		n.sent = append(n.sent, chords)
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const twoBindings = `directives:
  notify_failures: true
bindings:
  - key: left
    modifiers: [super, alt]
    action: push
    direction: left
    fraction: 2
  - key: right
    modifiers: [super, alt]
    action: nudge
    direction: right
    distance: 100
`

type fixture struct {
	path     string
	host     *fakeHost
	window   *fakeWindow
	notifier *fakeNotifier
	level    *slog.LevelVar
	daemon   *Daemon
	cancel   context.CancelFunc
	done     chan error
}

func newFixture(t *testing.T, yaml string) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "whimsy.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	f := &fixture{
		path:     path,
		host:     newFakeHost(),
		window:   &fakeWindow{rect: geometry.Rect{Left: 100, Top: 100, Right: 400, Bottom: 300}},
		notifier: &fakeNotifier{},
		level:    new(slog.LevelVar),
	}
	f.daemon, err = New(res, Options{
		ConfigPath:    path,
		Backend:       &fakeBackend{window: f.window},
		Host:          f.host,
		Logger:        quietLogger(),
		Level:         f.level,
		Notifier:      f.notifier,
		WatchDebounce: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan error, 1)
	go func() { f.done <- f.daemon.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-f.done:
		case <-time.After(2 * time.Second):
			t.Errorf("daemon did not stop")
		}
	})
}

func (f *fixture) rewrite(t *testing.T, yaml string) {
	t.Helper()
	if err := os.WriteFile(f.path, []byte(yaml), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
}

func ctxTimeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNewRegistersBindings(t *testing.T) {
	f := newFixture(t, twoBindings)

	got := f.daemon.Bindings()
	if len(got) != 2 {
		t.Fatalf("expected 2 bindings, got %+v", got)
	}
	if got[0].ID != 1 || got[0].Chord != "Alt+Super+Left" || got[0].Action != "push left 1/2" {
		t.Fatalf("unexpected first binding %+v", got[0])
	}
	if got[1].ID != 2 || got[1].Action != "nudge right 100px" {
		t.Fatalf("unexpected second binding %+v", got[1])
	}
	if f.host.grabCount() != 2 {
		t.Fatalf("expected 2 grabs, got %d", f.host.grabCount())
	}

	status := f.daemon.Status()
	if status.InstanceID == "" || status.InstanceID != f.daemon.ID() {
		t.Fatalf("unexpected instance id %q", status.InstanceID)
	}
	if status.Backend != "fake" || status.BindingCount != 2 || !status.DaemonRunning {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestHotkeyActivationMovesWindow(t *testing.T) {
	f := newFixture(t, twoBindings)
	f.start(t)

	res, err := f.daemon.Activate(ctxTimeout(t), 1)
	if err != nil {
		t.Fatalf("Activate() error: %v", err)
	}
	want := geometry.Rect{Right: 500, Bottom: 800}
	if !res.Applied || res.Target != want {
		t.Fatalf("Activate() = %+v, want target %v", res, want)
	}

	res, err = f.daemon.ApplyAction(ctxTimeout(t), binding.Nudge{Direction: geometry.Down, Distance: geometry.Absolute(10)})
	if err != nil {
		t.Fatalf("ApplyAction() error: %v", err)
	}
	if res.Target != (geometry.Rect{Top: 10, Right: 500, Bottom: 810}) {
		t.Fatalf("unexpected nudge target %v", res.Target)
	}

	if stats := f.daemon.Status(); stats.Activations != 1 || stats.Applied != 2 {
		t.Fatalf("unexpected counters %+v", stats)
	}
}

func TestReloadReplacesBindings(t *testing.T) {
	f := newFixture(t, twoBindings)
	f.start(t)

	f.rewrite(t, `log_level: debug
bindings:
  - key: up
    modifiers: [ctrl]
    action: push
    direction: up
    fraction: 3
`)
	data, err := f.daemon.Reload(ctxTimeout(t))
	if err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if data.Registered != 1 || len(data.Failed) != 0 {
		t.Fatalf("unexpected reload data %+v", data)
	}

	got := f.daemon.Bindings()
	if len(got) != 1 || got[0].ID != 3 || got[0].Chord != "Ctrl+Up" {
		t.Fatalf("expected ids to continue after reload, got %+v", got)
	}
	if f.host.grabCount() != 1 {
		t.Fatalf("expected old grabs released, have %d", f.host.grabCount())
	}
	if f.level.Level() != slog.LevelDebug {
		t.Fatalf("expected log level to follow config, got %v", f.level.Level())
	}
	if f.daemon.Config().Directives.NotifyFailures {
		t.Fatalf("expected notify_failures to be reset")
	}
}

func TestReloadKeepsBindingsOnInvalidConfig(t *testing.T) {
	f := newFixture(t, twoBindings)
	f.start(t)

	f.rewrite(t, "bindings:\n  - key: left\n    action: push\n    direction: left\n    fraction: -2\n")
	_, err := f.daemon.Reload(ctxTimeout(t))
	if !config.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.daemon.Bindings()) != 2 {
		t.Fatalf("expected previous bindings to stay registered")
	}
}

func TestRegistrationFailuresAreReported(t *testing.T) {
	f := newFixture(t, twoBindings)
	f.start(t)

	chord := binding.Chord{Key: "Left", Modifiers: binding.Modifiers(binding.Super, binding.Alt)}
	f.host.mu.Lock()
	f.host.refuse[chord] = true
	f.host.mu.Unlock()

	data, err := f.daemon.Reload(ctxTimeout(t))
	if err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if data.Registered != 1 || len(data.Failed) != 1 || data.Failed[0] != "Alt+Super+Left" {
		t.Fatalf("unexpected reload data %+v", data)
	}

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	if len(f.notifier.sent) != 1 || f.notifier.sent[0][0] != "Alt+Super+Left" {
		t.Fatalf("expected one notification, got %v", f.notifier.sent)
	}
}

func TestRunReturnsWhenHostCloses(t *testing.T) {
	f := newFixture(t, twoBindings)
	done := make(chan error, 1)
	go func() { done <- f.daemon.Run(context.Background()) }()

	f.host.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run() did not return after host close")
	}
	if f.host.grabCount() != 0 {
		t.Fatalf("expected hotkeys released on exit")
	}
}

func TestLiveReloadFollowsFileChanges(t *testing.T) {
	f := newFixture(t, strings.Replace(twoBindings, "directives:\n", "directives:\n  live_reload: true\n", 1))
	f.start(t)

	// Give the watcher a moment to add its directory.
	time.Sleep(100 * time.Millisecond)

	// Save the way editors do: write aside, then rename over the original.
	tmp := f.path + ".tmp"
	data := "directives:\n  live_reload: true\nbindings:\n  - key: a\n    action: push\n    direction: right\n    fraction: 2\n"
	if err := os.WriteFile(tmp, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		t.Fatalf("rename: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		got := f.daemon.Bindings()
		if len(got) == 1 && got[0].Chord == "A" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("bindings were not reloaded: %+v", f.daemon.Bindings())
}
