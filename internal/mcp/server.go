// Package mcp exposes the running whimsy daemon to MCP clients over stdio.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/whimsy/internal/ipc"
)

const (
	ServerName    = "whimsy"
	ServerVersion = "0.1.0"
)

// DaemonClient is the subset of the IPC client the tools need.
type DaemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	ListBindings() ([]ipc.BindingInfo, error)
	Activate(id uint32) (*ipc.ActionData, error)
	ApplyAction(payload ipc.ApplyActionPayload) (*ipc.ActionData, error)
	Reload() (*ipc.ReloadData, error)
}

// Server is the MCP server for window pushes and nudges.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    DaemonClient
}

// NewServer creates a new MCP server that forwards to the daemon.
func NewServer(daemon DaemonClient) *Server {
	s := &Server{daemon: daemon}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_bindings",
		Description: "List the hotkey bindings registered by the whimsy daemon with their ids, chords and actions.",
	}, s.handleListBindings)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "trigger_binding",
		Description: "Run a registered binding by id, exactly as if its chord had been pressed. Acts on the currently focused window.",
	}, s.handleTriggerBinding)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "push_window",
		Description: "Push the focused window against one edge of its monitor's work area, filling 1/fraction of it.",
	}, s.handlePushWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "nudge_window",
		Description: "Move the focused window by a distance without resizing it. The window may move past the screen edge.",
	}, s.handleNudgeWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "daemon_status",
		Description: "Report whether the whimsy daemon is running, its backend, binding count and event counters.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload_config",
		Description: "Re-read the whimsy configuration file and re-register its bindings. Invalid configuration keeps the current bindings.",
	}, s.handleReload)
}
