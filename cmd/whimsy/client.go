package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/1broseidon/whimsy/internal/binding"
	"github.com/1broseidon/whimsy/internal/ipc"
)

// daemonClient is the IPC surface the client subcommands use.
type daemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	ListBindings() ([]ipc.BindingInfo, error)
	Reload() (*ipc.ReloadData, error)
	Activate(id uint32) (*ipc.ActionData, error)
	ApplyAction(payload ipc.ApplyActionPayload) (*ipc.ActionData, error)
}

var newDaemonClient = func() daemonClient { return ipc.NewClient() }

// parseNoArgs parses a flagless subcommand.
func parseNoArgs(name, usage string, args []string) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: whimsy %s\n\n%s\n", name, usage)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}
	return -1
}

func runStatus(args []string) int {
	if code := parseNoArgs("status", "Show daemon status via IPC.", args); code >= 0 {
		return code
	}

	status, err := newDaemonClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printStatus(os.Stdout, status)
	return 0
}

func printStatus(w io.Writer, status *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running: %v\n", status.DaemonRunning)
	fmt.Fprintf(w, "instance_id:    %s\n", status.InstanceID)
	fmt.Fprintf(w, "backend:        %s\n", status.Backend)
	fmt.Fprintf(w, "state:          %s\n", status.State)
	fmt.Fprintf(w, "config_path:    %s\n", status.ConfigPath)
	fmt.Fprintf(w, "live_reload:    %v\n", status.LiveReload)
	fmt.Fprintf(w, "bindings:       %d\n", status.BindingCount)
	fmt.Fprintf(w, "activations:    %d\n", status.Activations)
	fmt.Fprintf(w, "applied:        %d\n", status.Applied)
	fmt.Fprintf(w, "dropped:        %d\n", status.Dropped)
	fmt.Fprintf(w, "failures:       %d\n", status.Failures)
	fmt.Fprintf(w, "uptime_seconds: %d\n", status.UptimeSeconds)
}

func runBindings(args []string) int {
	fs := flag.NewFlagSet("bindings", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Print bindings as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: whimsy bindings [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List the bindings the daemon has registered.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	bindings, err := newDaemonClient().ListBindings()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(bindings); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	printBindings(os.Stdout, bindings)
	return 0
}

func printBindings(w io.Writer, bindings []ipc.BindingInfo) {
	if len(bindings) == 0 {
		fmt.Fprintln(w, "no bindings registered")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCHORD\tACTION")
	for _, b := range bindings {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", b.ID, b.Chord, b.Action)
	}
	tw.Flush()
}

func runReload(args []string) int {
	if code := parseNoArgs("reload", "Reload the daemon configuration and re-register hotkeys.", args); code >= 0 {
		return code
	}

	data, err := newDaemonClient().Reload()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, w := range data.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Printf("registered: %d\n", data.Registered)
	if len(data.Failed) > 0 {
		for _, chord := range data.Failed {
			fmt.Fprintf(os.Stderr, "failed: %s\n", chord)
		}
		return 1
	}
	return 0
}

func runTrigger(args []string) int {
	fs := flag.NewFlagSet("trigger", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: whimsy trigger <id>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run a binding as if its chord was pressed. See 'whimsy bindings' for ids.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	id, err := strconv.ParseUint(fs.Arg(0), 10, 32)
	if err != nil || id == 0 {
		fmt.Fprintf(os.Stderr, "invalid binding id %q\n", fs.Arg(0))
		return 2
	}

	res, err := newDaemonClient().Activate(uint32(id))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return printActionResult(os.Stdout, res)
}

func runPush(args []string) int {
	fs := flag.NewFlagSet("push", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: whimsy push <left|right|up|down> [fraction]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Move the focused window against a monitor edge, sized to 1/fraction")
		fmt.Fprintln(os.Stderr, "of the work area (default 2).")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	payload, err := pushPayload(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}
	return applyAction(payload)
}

func runNudge(args []string) int {
	fs := flag.NewFlagSet("nudge", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: whimsy nudge <left|right|up|down> <distance>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Move the focused window by distance pixels (50) or a share of the")
		fmt.Fprintln(os.Stderr, "monitor along the axis (10%).")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	payload, err := nudgePayload(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}
	return applyAction(payload)
}

func pushPayload(args []string) (ipc.ApplyActionPayload, error) {
	if len(args) < 1 || len(args) > 2 {
		return ipc.ApplyActionPayload{}, fmt.Errorf("push takes a direction and an optional fraction")
	}
	p := ipc.ApplyActionPayload{Action: string(binding.KindPush), Direction: args[0]}
	if len(args) == 2 {
		f, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return ipc.ApplyActionPayload{}, fmt.Errorf("invalid fraction %q", args[1])
		}
		p.Fraction = f
	}
	if _, err := p.ToAction(); err != nil {
		return ipc.ApplyActionPayload{}, err
	}
	return p, nil
}

func nudgePayload(args []string) (ipc.ApplyActionPayload, error) {
	if len(args) != 2 {
		return ipc.ApplyActionPayload{}, fmt.Errorf("nudge takes a direction and a distance")
	}
	p := ipc.ApplyActionPayload{Action: string(binding.KindNudge), Direction: args[0], Distance: args[1]}
	if _, err := p.ToAction(); err != nil {
		return ipc.ApplyActionPayload{}, err
	}
	return p, nil
}

func applyAction(payload ipc.ApplyActionPayload) int {
	res, err := newDaemonClient().ApplyAction(payload)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return printActionResult(os.Stdout, res)
}

// printActionResult reports the outcome. Nothing to move is not an error.
func printActionResult(w io.Writer, res *ipc.ActionData) int {
	if !res.Applied {
		fmt.Fprintf(w, "not applied: %s\n", res.Reason)
		return 0
	}
	x, y, width, height := res.Target.XYWH()
	fmt.Fprintf(w, "moved to %s (%dx%d at %d,%d)\n", res.Target, width, height, x, y)
	return 0
}
