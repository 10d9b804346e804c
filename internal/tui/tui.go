// Package tui is an interactive browser for the configured hotkey bindings.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/whimsy/internal/config"
	"github.com/1broseidon/whimsy/internal/ipc"
)

// TUI runs the binding browser.
type TUI struct {
	configPath string
}

// New creates a new TUI instance. An empty configPath uses the resolved
// default location.
func New(configPath string) *TUI {
	return &TUI{configPath: configPath}
}

// Run starts the TUI and blocks until the user quits.
func (t *TUI) Run() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	path, err := config.ResolvePath(t.configPath)
	if err != nil {
		return err
	}

	client := ipc.NewClient()
	m := newModel(path, client)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
