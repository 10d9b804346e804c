package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/whimsy/internal/binding"
	"github.com/1broseidon/whimsy/internal/geometry"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_ValidAndCompiles(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	bindings, err := cfg.CompileBindings()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(bindings) != 8 {
		t.Fatalf("expected 8 default bindings, got %d", len(bindings))
	}
	if warnings := cfg.Warnings(); len(warnings) != 0 {
		t.Fatalf("expected no warnings for defaults, got %v", warnings)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "whimsy.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Config.Bindings) != len(DefaultConfig().Bindings) {
		t.Fatalf("expected default bindings")
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whimsy.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "info" {
		t.Fatalf("expected log_level info, got %q", res.Config.LogLevel)
	}
	if len(res.Config.Bindings) != 8 {
		t.Fatalf("expected default bindings, got %d", len(res.Config.Bindings))
	}
}

func TestLoadFromPath_BindingForms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whimsy.yaml")
	writeFile(t, path, strings.Join([]string{
		"log_level: debug",
		"directives:",
		"  live_reload: true",
		"bindings:",
		"  - key: left",
		"    modifiers: [super, alt]",
		"    action: push",
		"    direction: left",
		"    fraction: 2",
		"  - key: right",
		"    modifiers: super+alt+shift",
		"    action: nudge",
		"    direction: right",
		"    distance: 50",
		"  - key: up",
		"    action: nudge",
		"    direction: up",
		"    distance: 10%",
		"  - key: down",
		"    action: nudge",
		"    direction: down",
		"    distance: {percent: 0.25}",
		"  - key: h",
		"    modifiers: [ctrl]",
		"    action: nudge",
		"    direction: left",
		"    distance: {absolute: 12}",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "debug" || !res.Config.Directives.LiveReload || res.Config.Directives.NotifyFailures {
		t.Fatalf("unexpected scalars: %+v", res.Config)
	}

	got, err := res.Config.CompileBindings()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	want := []binding.Binding{
		{Key: "Left", Modifiers: binding.Modifiers(binding.Super, binding.Alt), Action: binding.Push{Direction: geometry.Left, Fraction: 2}},
		{Key: "Right", Modifiers: binding.Modifiers(binding.Super, binding.Alt, binding.Shift), Action: binding.Nudge{Direction: geometry.Right, Distance: geometry.Absolute(50)}},
		{Key: "Up", Action: binding.Nudge{Direction: geometry.Up, Distance: geometry.Percent(0.1)}},
		{Key: "Down", Action: binding.Nudge{Direction: geometry.Down, Distance: geometry.Percent(0.25)}},
		{Key: "H", Modifiers: binding.Modifiers(binding.Control), Action: binding.Nudge{Direction: geometry.Left, Distance: geometry.Absolute(12)}},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d bindings, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("binding %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLoadFromPath_EmptyBindingListDisablesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whimsy.yaml")
	writeFile(t, path, "bindings: []\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Config.Bindings) != 0 {
		t.Fatalf("expected no bindings, got %d", len(res.Config.Bindings))
	}
}

func TestLoadFromPath_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whimsy.yaml")
	writeFile(t, path, "directives:\n  live_relaod: true\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown field")
	}
	if !strings.Contains(err.Error(), "live_relaod") {
		t.Fatalf("expected error to name the field, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whimsy.yaml")
	writeFile(t, path, strings.Join([]string{
		"bindings:",
		"  - key: left",
		"    action: push",
		"    direction: left",
		"    fraction: 0",
		"",
	}, "\n"))

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Path != "bindings.0.fraction" {
		t.Fatalf("expected path bindings.0.fraction, got %q", verr.Path)
	}
	if verr.Source.Line != 5 {
		t.Fatalf("expected source line 5, got %+v", verr.Source)
	}
	if !strings.Contains(err.Error(), ":5:") {
		t.Fatalf("expected file:line in error, got %v", err)
	}
}

func TestLoadFromPath_MissingDistancePointsAtBinding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whimsy.yaml")
	writeFile(t, path, strings.Join([]string{
		"bindings:",
		"  - key: left",
		"    action: nudge",
		"    direction: left",
		"",
	}, "\n"))

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Path != "bindings.0.distance" {
		t.Fatalf("unexpected path %q", verr.Path)
	}
	if verr.Source.Line != 2 {
		t.Fatalf("expected source to fall back to the binding on line 2, got %+v", verr.Source)
	}
}

func TestBindingSpecValidation(t *testing.T) {
	abs := &Distance{Metric: geometry.Absolute(5)}
	tests := []struct {
		name  string
		spec  BindingSpec
		field string
	}{
		{"unknown key", BindingSpec{Key: "hyper", Action: "push", Direction: "left", Fraction: 2}, "key"},
		{"unknown modifier", BindingSpec{Key: "a", Modifiers: ModifierList{"hyper"}, Action: "push", Direction: "left", Fraction: 2}, "modifiers"},
		{"bad direction", BindingSpec{Key: "a", Action: "push", Direction: "north", Fraction: 2}, "direction"},
		{"bad action", BindingSpec{Key: "a", Action: "throw", Direction: "left"}, "action"},
		{"negative fraction", BindingSpec{Key: "a", Action: "push", Direction: "left", Fraction: -1}, "fraction"},
		{"push with distance", BindingSpec{Key: "a", Action: "push", Direction: "left", Fraction: 2, Distance: abs}, "distance"},
		{"nudge with fraction", BindingSpec{Key: "a", Action: "nudge", Direction: "left", Fraction: 2, Distance: abs}, "fraction"},
		{"zero percent", BindingSpec{Key: "a", Action: "nudge", Direction: "left", Distance: &Distance{Metric: geometry.Percent(0)}}, "distance"},
		{"negative absolute", BindingSpec{Key: "a", Action: "nudge", Direction: "left", Distance: &Distance{Metric: geometry.Absolute(-3)}}, "distance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, field, err := tt.spec.compile()
			if err == nil {
				t.Fatalf("expected error")
			}
			if field != tt.field {
				t.Fatalf("expected field %q, got %q (%v)", tt.field, field, err)
			}
		})
	}
}

func TestLoadFromPath_IncludesConcatenateBindings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "conf.d", "10-push.yaml"), strings.Join([]string{
		"log_level: warning",
		"bindings:",
		"  - key: a",
		"    action: push",
		"    direction: left",
		"    fraction: 2",
		"",
	}, "\n"))
	writeFile(t, filepath.Join(dir, "conf.d", "20-nudge.yaml"), strings.Join([]string{
		"bindings:",
		"  - key: b",
		"    action: nudge",
		"    direction: right",
		"    distance: 5px",
		"",
	}, "\n"))
	mainPath := filepath.Join(dir, "whimsy.yaml")
	writeFile(t, mainPath, strings.Join([]string{
		"include: conf.d",
		"log_level: error",
		"bindings:",
		"  - key: c",
		"    action: push",
		"    direction: up",
		"    fraction: 0",
		"",
	}, "\n"))

	_, err := LoadFromPath(mainPath)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	// The main file's first binding lands after the two included ones.
	if verr.Path != "bindings.2.fraction" {
		t.Fatalf("unexpected path %q", verr.Path)
	}
	if filepath.Base(verr.Source.File) != "whimsy.yaml" || verr.Source.Line != 7 {
		t.Fatalf("unexpected source %+v", verr.Source)
	}

	writeFile(t, mainPath, strings.Join([]string{
		"include: conf.d",
		"log_level: error",
		"bindings:",
		"  - key: c",
		"    action: push",
		"    direction: up",
		"    fraction: 3",
		"",
	}, "\n"))

	res, err := LoadFromPath(mainPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "error" {
		t.Fatalf("expected main file to win log_level, got %q", res.Config.LogLevel)
	}
	keys := make([]string, 0, len(res.Config.Bindings))
	for _, spec := range res.Config.Bindings {
		keys = append(keys, spec.Key)
	}
	if strings.Join(keys, ",") != "a,b,c" {
		t.Fatalf("expected include bindings first, got %v", keys)
	}
	if len(res.Files) != 3 || filepath.Base(res.Files[2]) != "whimsy.yaml" {
		t.Fatalf("unexpected load order %v", res.Files)
	}
	if src := res.Sources["bindings.1.distance"]; filepath.Base(src.File) != "20-nudge.yaml" {
		t.Fatalf("expected bindings.1 to come from 20-nudge.yaml, got %+v", src)
	}
}

func TestLoadFromPath_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, b, "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestLoadFromPath_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whimsy.toml")
	writeFile(t, path, strings.Join([]string{
		`log_level = "warning"`,
		``,
		`[directives]`,
		`live_reload = true`,
		`notify_failures = true`,
		``,
		`[[bindings]]`,
		`key = "Left"`,
		`modifiers = ["super", "alt"]`,
		`action = "push"`,
		`direction = "left"`,
		`fraction = 3.0`,
		``,
		`[[bindings]]`,
		`key = "Up"`,
		`modifiers = "ctrl+shift"`,
		`action = "nudge"`,
		`direction = "up"`,
		`distance = "20%"`,
		``,
		`[[bindings]]`,
		`key = "Down"`,
		`action = "nudge"`,
		`direction = "down"`,
		`distance = 40`,
		``,
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.LogLevel != "warning" || !cfg.Directives.LiveReload || !cfg.Directives.NotifyFailures {
		t.Fatalf("unexpected scalars %+v", cfg)
	}
	got, err := cfg.CompileBindings()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	want := []binding.Binding{
		{Key: "Left", Modifiers: binding.Modifiers(binding.Super, binding.Alt), Action: binding.Push{Direction: geometry.Left, Fraction: 3}},
		{Key: "Up", Modifiers: binding.Modifiers(binding.Control, binding.Shift), Action: binding.Nudge{Direction: geometry.Up, Distance: geometry.Percent(0.2)}},
		{Key: "Down", Action: binding.Nudge{Direction: geometry.Down, Distance: geometry.Absolute(40)}},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d bindings, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("binding %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLoadFromPath_TOMLRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whimsy.toml")
	writeFile(t, path, "[directives]\nlive_reload_configuration = true\n")

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "live_reload_configuration") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"whimsy.yaml", "whimsy.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := DefaultConfig()
			cfg.Directives.NotifyFailures = true
			cfg.Bindings = append(cfg.Bindings, BindingSpec{
				Key:       "F5",
				Action:    "nudge",
				Direction: "left",
				Distance:  &Distance{Metric: geometry.Percent(0.5)},
			})
			if err := cfg.Save(path); err != nil {
				t.Fatalf("save: %v", err)
			}

			res, err := LoadFromPath(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			want, _ := cfg.CompileBindings()
			got, err := res.Config.CompileBindings()
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("expected %d bindings, got %d", len(want), len(got))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("binding %d = %v, want %v", i, got[i], want[i])
				}
			}
			if !res.Config.Directives.NotifyFailures {
				t.Fatalf("expected notify_failures to survive save")
			}
		})
	}
}

func TestEnsureExistsWritesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whimsy", "whimsy.yaml")
	created, err := EnsureExists(path)
	if err != nil || !created {
		t.Fatalf("EnsureExists = %v, %v", created, err)
	}
	writeFile(t, path, "log_level: debug\n")
	created, err = EnsureExists(path)
	if err != nil || created {
		t.Fatalf("second EnsureExists = %v, %v", created, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "log_level: debug\n" {
		t.Fatalf("existing file was overwritten: %q", data)
	}
}

func TestWarningsFlagDuplicateChords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bindings = append(cfg.Bindings, BindingSpec{
		Key:       "left",
		Modifiers: ModifierList{"alt", "super"},
		Action:    "push",
		Direction: "right",
		Fraction:  3,
	})
	if err := cfg.Validate(); err != nil {
		t.Fatalf("duplicates must not fail validation: %v", err)
	}
	warnings := cfg.Warnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "bindings.8") {
		t.Fatalf("expected one duplicate warning, got %v", warnings)
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/from-env.yaml")
	if got, err := ResolvePath("/tmp/explicit.yaml"); err != nil || got != "/tmp/explicit.yaml" {
		t.Fatalf("explicit path = %q, %v", got, err)
	}
	if got, err := ResolvePath(""); err != nil || got != "/tmp/from-env.yaml" {
		t.Fatalf("env path = %q, %v", got, err)
	}

	home := t.TempDir()
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	got, err := ResolvePath("")
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if filepath.Base(got) != "whimsy.yaml" || filepath.Base(filepath.Dir(got)) != "whimsy" {
		t.Fatalf("unexpected default path %q", got)
	}
}

func TestExplain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whimsy.yaml")
	writeFile(t, path, strings.Join([]string{
		"directives:",
		"  live_reload: true",
		"bindings:",
		"  - key: left",
		"    action: push",
		"    direction: left",
		"    fraction: 2",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	value, src, err := Explain(res, "directives.live_reload")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != true || src.Kind != SourceFile || src.Line != 2 {
		t.Fatalf("unexpected explain result %v %+v", value, src)
	}

	value, src, err = Explain(res, "log_level")
	if err != nil || value != "info" || src.Kind != SourceDefault {
		t.Fatalf("unexpected default explain %v %+v %v", value, src, err)
	}

	value, src, err = Explain(res, "bindings.0.modifiers")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if mods, ok := value.([]string); !ok || len(mods) != 0 {
		t.Fatalf("expected empty modifiers, got %#v", value)
	}
	if src.Line != 4 {
		t.Fatalf("expected binding source line 4, got %+v", src)
	}

	if _, _, err := Explain(res, "bindings.7"); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"WARNING": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLogLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
