package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the progress view while job runs and returns the job's error.
func Run(ctx context.Context, title string, job Job) error {
	m := NewModel(ctx, title, job)
	defer m.cancel()
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if fm, ok := final.(Model); ok && fm.state.done {
		return fm.err
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}
