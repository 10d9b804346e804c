package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/whimsy/internal/config"
	"github.com/1broseidon/whimsy/internal/editor"
	"github.com/1broseidon/whimsy/internal/ipc"
)

// daemonClient is the part of the IPC client the TUI uses.
type daemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	ListBindings() ([]ipc.BindingInfo, error)
	Activate(id uint32) (*ipc.ActionData, error)
	Reload() (*ipc.ReloadData, error)
}

// bindingItem implements list.Item for one binding.
type bindingItem struct {
	id     uint32 // 0 when read from the config file
	chord  string
	action string
}

func (i bindingItem) Title() string {
	if i.id == 0 {
		return "    " + i.chord
	}
	return fmt.Sprintf("%3d %s", i.id, i.chord)
}

func (i bindingItem) Description() string { return i.action }
func (i bindingItem) FilterValue() string { return i.chord + " " + i.action }

// statusMsg is shown in the status line until cleared.
type statusMsg struct {
	text string
	err  bool
}

// clearStatusMsg clears the status message after a delay.
type clearStatusMsg struct{}

// editorFinishedMsg is sent when the config editor exits.
type editorFinishedMsg struct {
	err error
}

// model is the root bubbletea model for the TUI.
type model struct {
	configPath string
	client     daemonClient

	list list.Model

	daemonConnected bool
	status          *ipc.StatusData
	loadErr         string

	statusText string
	statusErr  bool

	width  int
	height int
}

func newModel(configPath string, client daemonClient) model {
	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Bindings"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	m := model{
		configPath: configPath,
		client:     client,
		list:       l,
	}
	m.refresh()
	return m
}

// refresh lists the daemon's live bindings, or the config file's bindings
// when the daemon is not running.
func (m *model) refresh() {
	m.loadErr = ""
	if m.client != nil {
		if bindings, err := m.client.ListBindings(); err == nil {
			m.daemonConnected = true
			m.status, _ = m.client.GetStatus()
			items := make([]list.Item, 0, len(bindings))
			for _, b := range bindings {
				items = append(items, bindingItem{id: b.ID, chord: b.Chord, action: b.Action})
			}
			m.list.SetItems(items)
			return
		}
	}

	m.daemonConnected = false
	m.status = nil
	res, err := config.LoadFromPath(m.configPath)
	if err != nil {
		m.loadErr = err.Error()
		m.list.SetItems(nil)
		return
	}
	bindings, err := res.Config.CompileBindings()
	if err != nil {
		m.loadErr = err.Error()
		m.list.SetItems(nil)
		return
	}
	items := make([]list.Item, 0, len(bindings))
	for _, b := range bindings {
		items = append(items, bindingItem{chord: b.Chord().String(), action: b.Action.String()})
	}
	m.list.SetItems(items)
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, m.listHeight())
		return m, nil

	case statusMsg:
		m.statusText = msg.text
		m.statusErr = msg.err
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusText = ""
		m.statusErr = false
		return m, nil

	case editorFinishedMsg:
		if msg.err != nil {
			return m, showStatus(fmt.Sprintf("editor failed: %v", msg.err), true)
		}
		return m.reload()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "enter":
			return m.triggerSelected()
		case "r":
			return m.reload()
		case "e":
			return m.editConfig()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func showStatus(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, err: isErr} }
}

func (m model) triggerSelected() (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(bindingItem)
	if !ok {
		return m, nil
	}
	if !m.daemonConnected || item.id == 0 {
		return m, showStatus("daemon not running", true)
	}

	res, err := m.client.Activate(item.id)
	if err != nil {
		return m, showStatus(fmt.Sprintf("error: %v", err), true)
	}
	if !res.Applied {
		return m, showStatus(fmt.Sprintf("%s: %s", item.chord, res.Reason), false)
	}
	return m, showStatus(fmt.Sprintf("%s: moved to %s", item.chord, res.Target), false)
}

func (m model) reload() (tea.Model, tea.Cmd) {
	var text string
	isErr := false
	if m.daemonConnected {
		data, err := m.client.Reload()
		switch {
		case err != nil:
			text, isErr = fmt.Sprintf("reload failed: %v", err), true
		case len(data.Failed) > 0:
			text, isErr = fmt.Sprintf("reloaded: %d registered, %d failed", data.Registered, len(data.Failed)), true
		default:
			text = fmt.Sprintf("reloaded: %d registered", data.Registered)
		}
	} else {
		text = "config reloaded"
	}

	m.refresh()
	if m.loadErr != "" {
		text, isErr = m.loadErr, true
	}
	return m, showStatus(text, isErr)
}

func (m model) editConfig() (tea.Model, tea.Cmd) {
	if _, err := config.EnsureExists(m.configPath); err != nil {
		return m, showStatus(fmt.Sprintf("error: %v", err), true)
	}
	cmd := editor.Terminal(m.configPath, editor.DefaultTerminalEditor())
	return m, tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

func (m model) listHeight() int {
	// status bar (1) + message line (1) + help bar (1)
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	return h
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.daemonConnected, m.status, m.width)

	body := m.list.View()
	if m.loadErr != "" && len(m.list.Items()) == 0 {
		body = lipgloss.NewStyle().
			Width(m.width).
			Height(m.listHeight()).
			Padding(1, 2).
			Foreground(lipgloss.Color("196")).
			Render(m.loadErr)
	}

	message := renderMessage(m.statusText, m.statusErr, m.width)
	helpBar := renderHelpBar(m.daemonConnected, m.width)

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		body,
		message,
		helpBar,
	)
}
