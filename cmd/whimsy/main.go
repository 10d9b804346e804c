package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/whimsy/internal/config"
	"github.com/1broseidon/whimsy/internal/daemon"
	"github.com/1broseidon/whimsy/internal/dispatch"
	"github.com/1broseidon/whimsy/internal/hotkeys"
	"github.com/1broseidon/whimsy/internal/ipc"
	"github.com/1broseidon/whimsy/internal/notify"
	"github.com/1broseidon/whimsy/internal/platform"
	"github.com/1broseidon/whimsy/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		os.Exit(runDaemon(nil))
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "open-cfg":
		os.Exit(runOpenConfig(os.Args[2:]))
	case "regenerate-cfg":
		os.Exit(runRegenerateConfig(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "bindings":
		os.Exit(runBindings(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "trigger":
		os.Exit(runTrigger(os.Args[2:]))
	case "push":
		os.Exit(runPush(os.Args[2:]))
	case "nudge":
		os.Exit(runNudge(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		if len(os.Args[1]) > 0 && os.Args[1][0] == '-' {
			os.Exit(runDaemon(os.Args[1:]))
		}
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: whimsy [command] [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Run the hotkey daemon (default, foreground)")
	fmt.Fprintln(w, "  open-cfg            Open the config file in an editor")
	fmt.Fprintln(w, "  regenerate-cfg      Restore the default config file")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  bindings            List registered bindings")
	fmt.Fprintln(w, "  reload              Reload the daemon configuration")
	fmt.Fprintln(w, "  trigger <id>        Run a binding as if its chord was pressed")
	fmt.Fprintln(w, "  push <dir> [n]      Push the focused window to 1/n of its monitor")
	fmt.Fprintln(w, "  nudge <dir> <dist>  Nudge the focused window (e.g. 50 or 10%)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open interactive TUI")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'whimsy <command> --help' for command-specific options.")
}

// newLogger builds the daemon logger. WHIMSY_LOG pins the level; otherwise
// the returned LevelVar follows log_level across reloads and follow is true.
func newLogger(cfg *config.Config) (logger *slog.Logger, level *slog.LevelVar, follow bool) {
	level = new(slog.LevelVar)
	follow = true
	level.Set(cfg.SlogLevel())
	if env := os.Getenv("WHIMSY_LOG"); env != "" {
		if l, err := config.ParseLogLevel(env); err == nil {
			level.Set(l)
			follow = false
		} else {
			fmt.Fprintf(os.Stderr, "ignoring WHIMSY_LOG: %v\n", err)
		}
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	return logger, level, follow
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: $WHIMSY_CFG or ~/.config/whimsy/whimsy.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: whimsy daemon [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Register the configured hotkeys and move windows until interrupted.")
		fmt.Fprintln(os.Stderr, "SIGHUP reloads the configuration.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	configPath, err := config.ResolvePath(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	res, err := config.LoadFromPath(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger, level, follow := newLogger(res.Config)
	slog.SetDefault(logger)
	if !follow {
		level = nil
	}
	logger.Info("configuration loaded", "path", configPath, "bindings", len(res.Config.Bindings))

	backend, err := platform.NewBackend()
	if err != nil {
		logger.Error("failed to open window backend", "error", err)
		return 1
	}
	defer backend.Close()

	host, err := hotkeys.NewHost(backend, logger)
	if err != nil {
		logger.Error("failed to create hotkey host", "error", err)
		return 1
	}
	defer host.Close()

	notifier := notify.New(res.Config.Directives.NotifyFailures)
	d, err := daemon.New(res, daemon.Options{
		ConfigPath: configPath,
		Backend:    backend,
		Host:       host,
		Logger:     logger,
		Level:      level,
		Notifier:   notifier,
	})
	if err != nil {
		logger.Error("failed to start daemon", "error", err)
		return 1
	}

	ipcServer, err := ipc.NewServer(d, logger)
	if err != nil {
		logger.Error("failed to create IPC server", "error", err)
		return 1
	}
	if err := ipcServer.Start(); err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(os.Stderr, "whimsy daemon is already running")
		} else {
			logger.Error("failed to start IPC server", "error", err)
		}
		return 1
	}
	defer ipcServer.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					logger.Info("received SIGHUP, reloading config")
					data, err := d.Reload(ctx)
					if err != nil {
						logger.Error("config reload failed", "error", err)
						continue
					}
					logger.Info("config reloaded", "registered", data.Registered, "failed", len(data.Failed))
					continue
				}
				logger.Info("shutting down whimsy daemon", "signal", sig.String())
				cancel()
				return
			}
		}
	}()

	return daemonExitCode(d.Run(ctx), logger, notifier)
}

// errorNotifier tells the user about a fatal failure.
type errorNotifier interface {
	Error(msg string) error
}

// daemonExitCode maps the result of Daemon.Run to the process exit code.
// A failed hotkey host is also reported through the notifier.
func daemonExitCode(err error, logger *slog.Logger, notifier errorNotifier) int {
	var hostErr *dispatch.HostError
	if errors.As(err, &hostErr) {
		logger.Error("hotkey host failed", "error", hostErr.Err)
		if nerr := notifier.Error("hotkeys stopped: " + hostErr.Err.Error()); nerr != nil {
			logger.Debug("notification failed", "error", nerr)
		}
		return 1
	}
	if err != nil {
		logger.Error("daemon stopped", "error", err)
		return 1
	}
	return 0
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: $WHIMSY_CFG or ~/.config/whimsy/whimsy.yaml)")

	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: whimsy tui [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive TUI for browsing and triggering bindings.")
		fmt.Fprintln(os.Stderr, "Shows the config file's bindings when the daemon is not running.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  j/k, ↑/↓  Navigate bindings")
		fmt.Fprintln(os.Stderr, "  Enter     Trigger selected binding (daemon)")
		fmt.Fprintln(os.Stderr, "  e         Edit config in $EDITOR")
		fmt.Fprintln(os.Stderr, "  r         Reload config (and daemon when running)")
		fmt.Fprintln(os.Stderr, "  q, Esc    Quit")
		fmt.Fprintln(os.Stderr, "  Ctrl+C    Quit")
		return 0
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	t := tui.New(*path)
	if err := t.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
