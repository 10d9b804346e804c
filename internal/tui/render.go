package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/whimsy/internal/ipc"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	barStyle  = lipgloss.NewStyle().Background(lipgloss.Color("235")).Foreground(lipgloss.Color("250")).Padding(0, 1)
	lineStyle = lipgloss.NewStyle().Padding(0, 1)
)

// renderStatusBar renders the daemon connection status bar.
func renderStatusBar(connected bool, status *ipc.StatusData, width int) string {
	var text string
	if connected {
		parts := []string{okStyle.Render("●") + " daemon connected"}
		if status != nil {
			parts = append(parts,
				"backend:"+status.Backend,
				fmt.Sprintf("bindings:%d", status.BindingCount),
				fmt.Sprintf("activations:%d", status.Activations))
			if status.Dropped > 0 || status.Failures > 0 {
				parts = append(parts, fmt.Sprintf("dropped:%d failures:%d", status.Dropped, status.Failures))
			}
		}
		text = strings.Join(parts, "  ")
	} else {
		text = dimStyle.Render("●") + " daemon not running (showing config file)"
	}
	return barStyle.Width(width).Render(text)
}

func renderMessage(text string, isErr bool, width int) string {
	if text == "" {
		return lineStyle.Width(width).Render("")
	}
	if isErr {
		return lineStyle.Width(width).Render(errStyle.Render(text))
	}
	return lineStyle.Width(width).Render(okStyle.Render(text))
}

// renderHelpBar renders the bottom help/keybinding bar.
func renderHelpBar(connected bool, width int) string {
	help := "j/k: navigate  r: reload  e: edit config  q: quit"
	if connected {
		help = "j/k: navigate  enter: trigger  r: reload  e: edit config  q: quit"
	}
	return dimStyle.Padding(0, 1).Width(width).Render(help)
}
