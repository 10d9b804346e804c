package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/1broseidon/whimsy/internal/binding"
	"github.com/1broseidon/whimsy/internal/geometry"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Directives toggle daemon behaviour that is not tied to a single binding.
type Directives struct {
	// LiveReload re-reads the config file when it changes on disk.
	LiveReload bool `yaml:"live_reload" toml:"live_reload"`
	// NotifyFailures shows a desktop notification when chords fail to register.
	NotifyFailures bool `yaml:"notify_failures" toml:"notify_failures"`
}

// Distance is a nudge distance as written in a config file: a pixel count
// (50 or "50px"), a percent string ("10%"), or a mapping with exactly one of
// percent or absolute.
type Distance struct {
	geometry.Metric
}

func (d *Distance) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		m, err := geometry.ParseMetric(value.Value)
		if err != nil {
			return err
		}
		d.Metric = m
		return nil
	case yaml.MappingNode:
		var form struct {
			Percent  *float64 `yaml:"percent"`
			Absolute *int     `yaml:"absolute"`
		}
		if err := value.Decode(&form); err != nil {
			return err
		}
		return d.fromForm(form.Percent, form.Absolute)
	default:
		return fmt.Errorf("distance must be a number, a string like 50px or 10%%, or a mapping")
	}
}

func (d *Distance) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case int64:
		d.Metric = geometry.Absolute(int(v))
		return nil
	case string:
		m, err := geometry.ParseMetric(v)
		if err != nil {
			return err
		}
		d.Metric = m
		return nil
	case map[string]any:
		var percent *float64
		var absolute *int
		for key, raw := range v {
			switch key {
			case "percent":
				f, ok := toFloat(raw)
				if !ok {
					return fmt.Errorf("distance.percent must be a number")
				}
				percent = &f
			case "absolute":
				n, ok := raw.(int64)
				if !ok {
					return fmt.Errorf("distance.absolute must be an integer")
				}
				i := int(n)
				absolute = &i
			default:
				return fmt.Errorf("unknown distance field %q", key)
			}
		}
		return d.fromForm(percent, absolute)
	default:
		return fmt.Errorf("distance must be a number, a string like 50px or 10%%, or a table")
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func (d *Distance) fromForm(percent *float64, absolute *int) error {
	switch {
	case percent != nil && absolute != nil:
		return fmt.Errorf("distance must set only one of percent or absolute")
	case percent != nil:
		d.Metric = geometry.Percent(*percent)
	case absolute != nil:
		d.Metric = geometry.Absolute(*absolute)
	default:
		return fmt.Errorf("distance must set percent or absolute")
	}
	return nil
}

// MarshalYAML writes absolute distances as plain integers.
func (d Distance) MarshalYAML() (any, error) {
	if v, ok := d.AbsoluteValue(); ok {
		return v, nil
	}
	return d.String(), nil
}

// BindingSpec is the serialized form of one binding.
type BindingSpec struct {
	Key       string       `yaml:"key" toml:"key"`
	Modifiers ModifierList `yaml:"modifiers,omitempty" toml:"modifiers,omitempty"`
	Action    string       `yaml:"action" toml:"action"`
	Direction string       `yaml:"direction" toml:"direction"`
	Fraction  float64      `yaml:"fraction,omitempty" toml:"fraction,omitempty"`
	Distance  *Distance    `yaml:"distance,omitempty" toml:"distance,omitempty"`
}

// SpecFromBinding converts a binding back to its serialized form.
func SpecFromBinding(b binding.Binding) BindingSpec {
	spec := BindingSpec{
		Key:       b.Key.String(),
		Modifiers: ModifierList(b.Modifiers.Names()),
	}
	switch a := b.Action.(type) {
	case binding.Push:
		spec.Action = string(binding.KindPush)
		spec.Direction = a.Direction.String()
		spec.Fraction = a.Fraction
	case binding.Nudge:
		spec.Action = string(binding.KindNudge)
		spec.Direction = a.Direction.String()
		spec.Distance = &Distance{Metric: a.Distance}
	}
	return spec
}

// compile turns the spec into a binding. On failure the returned field names
// the offending key.
func (s BindingSpec) compile() (binding.Binding, string, error) {
	key, err := binding.ParseKey(s.Key)
	if err != nil {
		return binding.Binding{}, "key", err
	}
	mods, err := binding.ParseModifiers(s.Modifiers)
	if err != nil {
		return binding.Binding{}, "modifiers", err
	}
	dir, err := geometry.ParseDirection(s.Direction)
	if err != nil {
		return binding.Binding{}, "direction", err
	}

	var action binding.Action
	switch binding.ActionKind(strings.ToLower(strings.TrimSpace(s.Action))) {
	case binding.KindPush:
		if s.Distance != nil {
			return binding.Binding{}, "distance", fmt.Errorf("distance is only valid for nudge actions")
		}
		if s.Fraction <= 0 || math.IsNaN(s.Fraction) || math.IsInf(s.Fraction, 0) {
			return binding.Binding{}, "fraction", fmt.Errorf("fraction must be a finite value > 0")
		}
		action = binding.Push{Direction: dir, Fraction: s.Fraction}
	case binding.KindNudge:
		if s.Fraction != 0 {
			return binding.Binding{}, "fraction", fmt.Errorf("fraction is only valid for push actions")
		}
		if s.Distance == nil {
			return binding.Binding{}, "distance", fmt.Errorf("distance is required for nudge actions")
		}
		if err := s.Distance.Validate(); err != nil {
			return binding.Binding{}, "distance", err
		}
		action = binding.Nudge{Direction: dir, Distance: s.Distance.Metric}
	default:
		return binding.Binding{}, "action", fmt.Errorf("action must be one of: push, nudge")
	}

	return binding.Binding{Key: key, Modifiers: mods, Action: action}, "", nil
}

// Config is the effective configuration.
type Config struct {
	LogLevel   string        `yaml:"log_level" toml:"log_level"`
	Directives Directives    `yaml:"directives" toml:"directives"`
	Bindings   []BindingSpec `yaml:"bindings" toml:"bindings"`
}

// EnvConfigPath overrides the default config location.
const EnvConfigPath = "WHIMSY_CFG"

const (
	configDirName  = "whimsy"
	configFileYAML = "whimsy.yaml"
	configFileTOML = "whimsy.toml"
)

// DefaultConfigPath returns whimsy.yaml under the user config directory,
// or whimsy.toml when only that one exists.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	yamlPath := filepath.Join(dir, configDirName, configFileYAML)
	tomlPath := filepath.Join(dir, configDirName, configFileTOML)
	if ok, _ := pathExists(yamlPath); !ok {
		if ok, _ := pathExists(tomlPath); ok {
			return tomlPath, nil
		}
	}
	return yamlPath, nil
}

// ResolvePath picks the config file: an explicit path, then $WHIMSY_CFG,
// then DefaultConfigPath.
func ResolvePath(explicit string) (string, error) {
	if p := strings.TrimSpace(explicit); p != "" {
		return p, nil
	}
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	return DefaultConfigPath()
}

// DefaultConfig returns the built-in configuration: Super+Alt+arrow pushes
// the window to that half of the screen, adding Shift nudges it by 50px.
func DefaultConfig() *Config {
	cfg := &Config{
		LogLevel: "info",
	}
	for _, dir := range geometry.Directions {
		cfg.Bindings = append(cfg.Bindings, BindingSpec{
			Key:       directionKey(dir),
			Modifiers: ModifierList{"super", "alt"},
			Action:    string(binding.KindPush),
			Direction: dir.String(),
			Fraction:  2,
		})
	}
	for _, dir := range geometry.Directions {
		cfg.Bindings = append(cfg.Bindings, BindingSpec{
			Key:       directionKey(dir),
			Modifiers: ModifierList{"super", "alt", "shift"},
			Action:    string(binding.KindNudge),
			Direction: dir.String(),
			Distance:  &Distance{Metric: geometry.Absolute(50)},
		})
	}
	return cfg
}

func directionKey(dir geometry.Direction) string {
	switch dir {
	case geometry.Up:
		return "Up"
	case geometry.Down:
		return "Down"
	case geometry.Left:
		return "Left"
	default:
		return "Right"
	}
}

// Validate checks the log level and every binding.
func (c *Config) Validate() error {
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	_, err := c.CompileBindings()
	return err
}

// ParseLogLevel maps a log_level value to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (expected debug, info, warning or error)", s)
	}
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := ParseLogLevel(c.LogLevel)
	return level
}

// CompileBindings converts every binding spec, in order.
func (c *Config) CompileBindings() ([]binding.Binding, error) {
	out := make([]binding.Binding, 0, len(c.Bindings))
	for i, spec := range c.Bindings {
		b, field, err := spec.compile()
		if err != nil {
			path := fmt.Sprintf("bindings.%d", i)
			if field != "" {
				path += "." + field
			}
			return nil, &ValidationError{Path: path, Err: err}
		}
		out = append(out, b)
	}
	return out, nil
}

// Warnings reports suspicious but legal settings. Duplicate chords are
// allowed here; the hotkey host refuses the second registration.
func (c *Config) Warnings() []string {
	if c == nil {
		return nil
	}

	var warnings []string
	first := make(map[binding.Chord]int)
	for i, spec := range c.Bindings {
		b, _, err := spec.compile()
		if err != nil {
			continue
		}
		if prev, ok := first[b.Chord()]; ok {
			warnings = append(warnings, fmt.Sprintf("bindings.%d reuses chord %s from bindings.%d; only the first registration will succeed", i, b.Chord(), prev))
			continue
		}
		first[b.Chord()] = i
		if p, ok := b.Action.(binding.Push); ok && p.Fraction < 1 {
			warnings = append(warnings, fmt.Sprintf("bindings.%d pushes with fraction %v, which is larger than the work area", i, p.Fraction))
		}
	}
	return warnings
}

// Save writes the configuration to path as YAML, or TOML for .toml paths.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original file.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal(formatForPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders the configuration in the given format.
func (c *Config) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c.tomlDocument()); err != nil {
			return nil, fmt.Errorf("failed to marshal config: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := yaml.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config: %w", err)
		}
		return data, nil
	}
}

// tomlDocument mirrors Config with distances flattened to strings, which
// the TOML encoder can write directly.
func (c *Config) tomlDocument() any {
	type tomlBinding struct {
		Key       string   `toml:"key"`
		Modifiers []string `toml:"modifiers,omitempty"`
		Action    string   `toml:"action"`
		Direction string   `toml:"direction"`
		Fraction  float64  `toml:"fraction,omitempty"`
		Distance  string   `toml:"distance,omitempty"`
	}
	type tomlConfig struct {
		LogLevel   string        `toml:"log_level"`
		Directives Directives    `toml:"directives"`
		Bindings   []tomlBinding `toml:"bindings"`
	}

	doc := tomlConfig{LogLevel: c.LogLevel, Directives: c.Directives}
	for _, spec := range c.Bindings {
		tb := tomlBinding{
			Key:       spec.Key,
			Modifiers: spec.Modifiers,
			Action:    spec.Action,
			Direction: spec.Direction,
			Fraction:  spec.Fraction,
		}
		if spec.Distance != nil {
			tb.Distance = spec.Distance.String()
		}
		doc.Bindings = append(doc.Bindings, tb)
	}
	return doc
}

// WriteDefault writes DefaultConfig to path, creating parent directories.
func WriteDefault(path string) error {
	return DefaultConfig().Save(path)
}

// EnsureExists writes the default config when path does not exist yet.
// created reports whether a file was written.
func EnsureExists(path string) (created bool, err error) {
	exists, err := pathExists(path)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := WriteDefault(path); err != nil {
		return false, err
	}
	return true, nil
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
