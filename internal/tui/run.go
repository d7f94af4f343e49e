package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrNotInteractive is returned by Run when stdin or stdout is not a terminal.
var ErrNotInteractive = errors.New("interactive mode requires a terminal")

// Run starts the application on the terminal and blocks until it exits.
func Run(ctx context.Context, m *AppModel) error {
	if mode := DetectOutputMode(os.Stdin, os.Stdout); mode != OutputModeInteractive {
		return fmt.Errorf("%w (detected %s output)", ErrNotInteractive, mode)
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running interface: %w", err)
	}
	if app, ok := final.(*AppModel); ok && app.cancel != nil {
		app.cancel()
	}
	return nil
}
