package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/whimsy/internal/geometry"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload       CommandType = "RELOAD"
	CommandGetStatus    CommandType = "GET_STATUS"
	CommandListBindings CommandType = "LIST_BINDINGS"
	CommandActivate     CommandType = "ACTIVATE"
	CommandApplyAction  CommandType = "APPLY_ACTION"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	InstanceID    string `json:"instance_id"`
	Backend       string `json:"backend"`
	State         string `json:"state"`
	ConfigPath    string `json:"config_path"`
	LiveReload    bool   `json:"live_reload"`
	BindingCount  int    `json:"binding_count"`
	Activations   uint64 `json:"activations"`
	Applied       uint64 `json:"applied"`
	Dropped       uint64 `json:"dropped"`
	Failures      uint64 `json:"failures"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
}

// BindingInfo describes one registered binding.
type BindingInfo struct {
	ID     uint32 `json:"id"`
	Chord  string `json:"chord"`
	Action string `json:"action"`
}

// BindingsData represents the data returned by LIST_BINDINGS
type BindingsData struct {
	Bindings []BindingInfo `json:"bindings"`
}

// ReloadData represents the data returned by RELOAD
type ReloadData struct {
	Registered int      `json:"registered"`
	Failed     []string `json:"failed,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

type ActivatePayload struct {
	ID uint32 `json:"id"`
}

// ApplyActionPayload describes an ad-hoc action. Fraction is used by push,
// Distance ("50px", "10%") by nudge.
type ApplyActionPayload struct {
	Action    string  `json:"action"`
	Direction string  `json:"direction"`
	Fraction  float64 `json:"fraction,omitempty"`
	Distance  string  `json:"distance,omitempty"`
}

// ActionData represents the data returned by ACTIVATE and APPLY_ACTION
type ActionData struct {
	Applied bool          `json:"applied"`
	Reason  string        `json:"reason,omitempty"`
	Target  geometry.Rect `json:"target"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
