package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

func (l *IncludeList) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		*l = []string{v}
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, s)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// ModifierList accepts a list of modifier names or a single "super+alt" string.
type ModifierList []string

func (l *ModifierList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = splitModifiers(value.Value)
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("modifiers must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("modifiers must be a string or list of strings")
	}
}

func (l *ModifierList) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		*l = splitModifiers(v)
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("modifiers must be strings")
			}
			out = append(out, s)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("modifiers must be a string or list of strings")
	}
}

func splitModifiers(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "+") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type RawDirectives struct {
	LiveReload     *bool `yaml:"live_reload" toml:"live_reload"`
	NotifyFailures *bool `yaml:"notify_failures" toml:"notify_failures"`
}

// RawConfig is one file as written. Pointer fields distinguish "unset" from
// the zero value so files can be layered.
type RawConfig struct {
	Include    IncludeList    `yaml:"include" toml:"include"`
	LogLevel   *string        `yaml:"log_level" toml:"log_level"`
	Directives *RawDirectives `yaml:"directives" toml:"directives"`
	Bindings   []BindingSpec  `yaml:"bindings" toml:"bindings"`
}

// merge layers overlay on top of r. Scalars are replaced; bindings append.
func (r RawConfig) merge(overlay RawConfig) RawConfig {
	out := r
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.Directives != nil {
		if out.Directives == nil {
			out.Directives = &RawDirectives{}
		} else {
			d := *out.Directives
			out.Directives = &d
		}
		if overlay.Directives.LiveReload != nil {
			out.Directives.LiveReload = overlay.Directives.LiveReload
		}
		if overlay.Directives.NotifyFailures != nil {
			out.Directives.NotifyFailures = overlay.Directives.NotifyFailures
		}
	}
	if overlay.Bindings != nil {
		bindings := make([]BindingSpec, 0, len(out.Bindings)+len(overlay.Bindings))
		bindings = append(bindings, out.Bindings...)
		bindings = append(bindings, overlay.Bindings...)
		out.Bindings = bindings
	}
	return out
}
