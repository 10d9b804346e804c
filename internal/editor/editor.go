// Package editor finds a program to open the config file with.
package editor

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Terminal returns a command running the user's terminal editor on path:
// $VISUAL, then $EDITOR, then fallback. An empty fallback with neither
// variable set returns nil.
func Terminal(path, fallback string) *exec.Cmd {
	editor := strings.TrimSpace(os.Getenv("VISUAL"))
	if editor == "" {
		editor = strings.TrimSpace(os.Getenv("EDITOR"))
	}
	if editor == "" {
		editor = fallback
	}

	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return nil
	}
	return exec.Command(parts[0], append(parts[1:], path)...)
}

// DefaultTerminalEditor is used when neither $VISUAL nor $EDITOR is set.
func DefaultTerminalEditor() string {
	if runtime.GOOS == "windows" {
		return "notepad"
	}
	return "vi"
}

// Opener returns the desktop's "open this file" command for path.
func Opener(path string) *exec.Cmd {
	return openerFor(runtime.GOOS, path)
}

func openerFor(goos, path string) *exec.Cmd {
	switch goos {
	case "windows":
		// The empty argument is the window title start expects first.
		return exec.Command("cmd", "/c", "start", "", path)
	case "darwin":
		return exec.Command("open", path)
	default:
		return exec.Command("xdg-open", path)
	}
}
