// Package notify sends desktop notifications.
package notify

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gen2brain/beeep"
)

const appName = "whimsy"

// maxListed caps how many chords a failure notification names.
const maxListed = 5

// Notifier sends desktop notifications when enabled.
type Notifier struct {
	mu      sync.Mutex
	enabled bool
	send    func(title, message string) error
}

// New creates a Notifier backed by the system notification service.
func New(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// SetEnabled turns notifications on or off.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	n.enabled = enabled
	n.mu.Unlock()
}

// Enabled reports whether notifications are sent.
func (n *Notifier) Enabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled
}

// RegistrationFailed reports chords the hotkey host refused.
func (n *Notifier) RegistrationFailed(chords []string) error {
	if len(chords) == 0 {
		return nil
	}
	listed := chords
	if len(listed) > maxListed {
		listed = listed[:maxListed]
	}
	message := strings.Join(listed, ", ")
	if extra := len(chords) - len(listed); extra > 0 {
		message += fmt.Sprintf(" and %d more", extra)
	}

	title := "hotkey unavailable"
	if len(chords) > 1 {
		title = fmt.Sprintf("%d hotkeys unavailable", len(chords))
	}
	return n.notify(title, message)
}

// Error reports a failure that needs the user's attention.
func (n *Notifier) Error(msg string) error {
	return n.notify("error", msg)
}

func (n *Notifier) notify(title, message string) error {
	if !n.Enabled() {
		return nil
	}
	if title != "" {
		title = appName + ": " + title
	} else {
		title = appName
	}
	return n.send(title, message)
}
