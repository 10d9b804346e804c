package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	log_level
//	directives.live_reload
//	directives.notify_failures
//	bindings
//	bindings.<n>
//	bindings.<n>.key
//	bindings.<n>.modifiers
//	bindings.<n>.action
//	bindings.<n>.direction
//	bindings.<n>.fraction
//	bindings.<n>.distance
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	// A binding field not written explicitly still comes from the file
	// that declared the binding.
	if strings.HasPrefix(path, "bindings.") {
		if parent, _, ok := cutLast(path); ok {
			if src, ok := res.Sources[parent]; ok {
				return value, src, nil
			}
		}
	}

	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	switch parts[0] {
	case "log_level":
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path %q", path)
		}
		return cfg.LogLevel, nil
	case "directives":
		if len(parts) == 1 {
			return cfg.Directives, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path %q", path)
		}
		switch parts[1] {
		case "live_reload":
			return cfg.Directives.LiveReload, nil
		case "notify_failures":
			return cfg.Directives.NotifyFailures, nil
		}
		return nil, fmt.Errorf("unknown path %q", path)
	case "bindings":
		return lookupBinding(cfg, path, parts[1:])
	default:
		return nil, fmt.Errorf("unknown path %q", path)
	}
}

func lookupBinding(cfg *Config, path string, parts []string) (any, error) {
	if len(parts) == 0 {
		return cfg.Bindings, nil
	}
	index, err := strconv.Atoi(parts[0])
	if err != nil || index < 0 || index >= len(cfg.Bindings) {
		return nil, fmt.Errorf("binding index %q out of range (have %d bindings)", parts[0], len(cfg.Bindings))
	}
	spec := cfg.Bindings[index]
	if len(parts) == 1 {
		return spec, nil
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("unknown path %q", path)
	}

	switch parts[1] {
	case "key":
		return spec.Key, nil
	case "modifiers":
		return []string(spec.Modifiers), nil
	case "action":
		return spec.Action, nil
	case "direction":
		return spec.Direction, nil
	case "fraction":
		return spec.Fraction, nil
	case "distance":
		if spec.Distance == nil {
			return nil, nil
		}
		return spec.Distance.String(), nil
	default:
		return nil, fmt.Errorf("unknown path %q", path)
	}
}
