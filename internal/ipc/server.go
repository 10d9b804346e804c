package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/whimsy/internal/binding"
	"github.com/1broseidon/whimsy/internal/geometry"
	"github.com/1broseidon/whimsy/internal/hotkeys"
	"github.com/1broseidon/whimsy/internal/runtimepath"
)

// ErrAlreadyRunning is returned by Start when another daemon answers on the
// socket.
var ErrAlreadyRunning = errors.New("another whimsy daemon is already running")

// requestTimeout bounds how long a command may wait on the dispatch loop.
const requestTimeout = 4 * time.Second

// Handler executes IPC commands on behalf of the daemon.
type Handler interface {
	Status() StatusData
	Bindings() []BindingInfo
	Reload(ctx context.Context) (ReloadData, error)
	Activate(ctx context.Context, id hotkeys.ID) (ActionData, error)
	ApplyAction(ctx context.Context, action binding.Action) (ActionData, error)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	handler      Handler
	logger       *slog.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server on the default socket path.
func NewServer(handler Handler, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, handler, logger), nil
}

// NewServerAt creates a server listening on socketPath.
func NewServerAt(socketPath string, handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	if conn, err := net.DialTimeout("unix", s.socketPath, 500*time.Millisecond); err == nil {
		conn.Close()
		return ErrAlreadyRunning
	}

	// Nobody answered; whatever is left at the path is stale.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if runtime.GOOS != "windows" {
		if err := os.Chmod(s.socketPath, 0600); err != nil {
			listener.Close()
			return fmt.Errorf("failed to set socket permissions: %w", err)
		}
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
	defer cancel()

	s.logger.Debug("IPC command", "command", req.Command)

	switch req.Command {
	case CommandReload:
		return s.handleReload(ctx)
	case CommandGetStatus:
		return okResponse(s.handler.Status())
	case CommandListBindings:
		return okResponse(BindingsData{Bindings: s.handler.Bindings()})
	case CommandActivate:
		return s.handleActivate(ctx, req.Payload)
	case CommandApplyAction:
		return s.handleApplyAction(ctx, req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload(ctx context.Context) *Response {
	data, err := s.handler.Reload(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	return okResponse(data)
}

func (s *Server) handleActivate(ctx context.Context, payload json.RawMessage) *Response {
	var req ActivatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid activate payload: %v", err))
	}
	if req.ID == 0 {
		return NewErrorResponse("id is required")
	}

	data, err := s.handler.Activate(ctx, hotkeys.ID(req.ID))
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to activate binding %d: %v", req.ID, err))
	}
	return okResponse(data)
}

func (s *Server) handleApplyAction(ctx context.Context, payload json.RawMessage) *Response {
	var req ApplyActionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid action payload: %v", err))
	}
	action, err := req.ToAction()
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	data, err := s.handler.ApplyAction(ctx, action)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to apply %s: %v", action, err))
	}
	return okResponse(data)
}

// ToAction converts the payload into a validated action.
func (p ApplyActionPayload) ToAction() (binding.Action, error) {
	dir, err := geometry.ParseDirection(p.Direction)
	if err != nil {
		return nil, err
	}

	var action binding.Action
	switch binding.ActionKind(strings.ToLower(strings.TrimSpace(p.Action))) {
	case binding.KindPush:
		fraction := p.Fraction
		if fraction == 0 {
			fraction = 2
		}
		action = binding.Push{Direction: dir, Fraction: fraction}
	case binding.KindNudge:
		if p.Distance == "" {
			return nil, fmt.Errorf("distance is required for nudge actions")
		}
		m, err := geometry.ParseMetric(p.Distance)
		if err != nil {
			return nil, err
		}
		action = binding.Nudge{Direction: dir, Distance: m}
	default:
		return nil, fmt.Errorf("action must be one of: push, nudge")
	}

	if err := action.Validate(); err != nil {
		return nil, err
	}
	return action, nil
}

func okResponse(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server and waits for in-flight
// connections.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	s.cancel()
	if s.listener != nil {
		s.listener.Close()
		os.Remove(s.socketPath)
	}
	s.wg.Wait()
}
