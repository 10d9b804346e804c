package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/whimsy/internal/ipc"
)

func (s *Server) handleListBindings(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListBindingsInput) (*mcpsdk.CallToolResult, ListBindingsOutput, error) {
	bindings, err := s.daemon.ListBindings()
	if err != nil {
		return nil, ListBindingsOutput{}, err
	}
	if bindings == nil {
		bindings = []ipc.BindingInfo{}
	}
	return nil, ListBindingsOutput{Bindings: bindings}, nil
}

func (s *Server) handleTriggerBinding(_ context.Context, _ *mcpsdk.CallToolRequest, args TriggerBindingInput) (*mcpsdk.CallToolResult, WindowActionOutput, error) {
	if args.ID <= 0 {
		return nil, WindowActionOutput{}, fmt.Errorf("id must be a positive binding id, got %d", args.ID)
	}
	data, err := s.daemon.Activate(uint32(args.ID))
	if err != nil {
		return nil, WindowActionOutput{}, err
	}
	return nil, windowActionOutput(data), nil
}

func (s *Server) handlePushWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args PushWindowInput) (*mcpsdk.CallToolResult, WindowActionOutput, error) {
	payload := ipc.ApplyActionPayload{
		Action:    "push",
		Direction: args.Direction,
		Fraction:  args.Fraction,
	}
	return s.apply(payload)
}

func (s *Server) handleNudgeWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args NudgeWindowInput) (*mcpsdk.CallToolResult, WindowActionOutput, error) {
	payload := ipc.ApplyActionPayload{
		Action:    "nudge",
		Direction: args.Direction,
		Distance:  args.Distance,
	}
	return s.apply(payload)
}

// apply validates locally so malformed arguments fail without a daemon
// round trip.
func (s *Server) apply(payload ipc.ApplyActionPayload) (*mcpsdk.CallToolResult, WindowActionOutput, error) {
	if _, err := payload.ToAction(); err != nil {
		return nil, WindowActionOutput{}, err
	}
	data, err := s.daemon.ApplyAction(payload)
	if err != nil {
		return nil, WindowActionOutput{}, err
	}
	return nil, windowActionOutput(data), nil
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, ipc.StatusData, error) {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, ipc.StatusData{}, err
	}
	return nil, *status, nil
}

func (s *Server) handleReload(_ context.Context, _ *mcpsdk.CallToolRequest, _ ReloadInput) (*mcpsdk.CallToolResult, ipc.ReloadData, error) {
	data, err := s.daemon.Reload()
	if err != nil {
		return nil, ipc.ReloadData{}, err
	}
	return nil, *data, nil
}
