package config

import "fmt"

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig layers raw on top of DefaultConfig. Bindings are
// all-or-nothing: a file that declares any bindings replaces the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.Directives != nil {
		if raw.Directives.LiveReload != nil {
			cfg.Directives.LiveReload = *raw.Directives.LiveReload
		}
		if raw.Directives.NotifyFailures != nil {
			cfg.Directives.NotifyFailures = *raw.Directives.NotifyFailures
		}
	}
	if raw.Bindings != nil {
		cfg.Bindings = append([]BindingSpec(nil), raw.Bindings...)
	}

	return cfg
}
