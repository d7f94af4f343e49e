package tui

import (
	"os"

	"golang.org/x/term"
)

// OutputMode describes what the terminal supports.
type OutputMode int

const (
	// OutputModePlain is a pipe or a dumb terminal: no styling, no TUI.
	OutputModePlain OutputMode = iota
	// OutputModeStyled is a terminal on stdout without an interactive stdin.
	OutputModeStyled
	// OutputModeInteractive is a full TTY on both stdin and stdout.
	OutputModeInteractive
)

// String returns the mode name.
func (m OutputMode) String() string {
	switch m {
	case OutputModeInteractive:
		return "interactive"
	case OutputModeStyled:
		return "styled"
	default:
		return "plain"
	}
}

// fdFile is satisfied by *os.File.
type fdFile interface {
	Fd() uintptr
}

// DetectOutputMode inspects in and out. NO_COLOR or TERM=dumb force plain output.
func DetectOutputMode(in, out fdFile) OutputMode {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return OutputModePlain
	}
	if out == nil || !term.IsTerminal(int(out.Fd())) { //nolint:gosec // Fd fits in int on supported platforms.
		return OutputModePlain
	}
	if in == nil || !term.IsTerminal(int(in.Fd())) { //nolint:gosec // Fd fits in int on supported platforms.
		return OutputModeStyled
	}
	return OutputModeInteractive
}

// TerminalWidth returns the width of out, or defaultWidth when it is not a terminal.
func TerminalWidth(out fdFile) int {
	if out == nil {
		return defaultWidth
	}
	w, _, err := term.GetSize(int(out.Fd())) //nolint:gosec // Fd fits in int on supported platforms.
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}
