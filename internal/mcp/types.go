package mcp

import "github.com/1broseidon/whimsy/internal/ipc"

// ListBindingsInput is the input for the list_bindings tool.
type ListBindingsInput struct{}

// ListBindingsOutput is the output for the list_bindings tool.
type ListBindingsOutput struct {
	Bindings []ipc.BindingInfo `json:"bindings"`
}

// TriggerBindingInput is the input for the trigger_binding tool.
type TriggerBindingInput struct {
	ID int `json:"id" jsonschema:"Binding id as reported by list_bindings"`
}

// PushWindowInput is the input for the push_window tool.
type PushWindowInput struct {
	Direction string  `json:"direction" jsonschema:"Screen edge to push the focused window against: up, down, left or right"`
	Fraction  float64 `json:"fraction,omitempty" jsonschema:"The window occupies 1/fraction of the work area along the push axis (default: 2, i.e. half)"`
}

// NudgeWindowInput is the input for the nudge_window tool.
type NudgeWindowInput struct {
	Direction string `json:"direction" jsonschema:"Direction to move the focused window: up, down, left or right"`
	Distance  string `json:"distance" jsonschema:"How far to move: pixels like 50 or 50px, or a percent of the window size like 10%"`
}

// WindowActionOutput is the output for tools that move the focused window.
type WindowActionOutput struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
	Left    int    `json:"left"`
	Top     int    `json:"top"`
	Right   int    `json:"right"`
	Bottom  int    `json:"bottom"`
}

// StatusInput is the input for the daemon_status tool.
type StatusInput struct{}

// ReloadInput is the input for the reload_config tool.
type ReloadInput struct{}

func windowActionOutput(data *ipc.ActionData) WindowActionOutput {
	if data == nil {
		return WindowActionOutput{}
	}
	return WindowActionOutput{
		Applied: data.Applied,
		Reason:  data.Reason,
		Left:    data.Target.Left,
		Top:     data.Target.Top,
		Right:   data.Target.Right,
		Bottom:  data.Target.Bottom,
	}
}
