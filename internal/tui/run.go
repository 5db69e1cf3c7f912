package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"soundpills/internal/session"
)

// Run starts s and hosts it in the terminal until the user quits or ctx is
// done. s must have been built with session.WithCanvas(opts.Canvas).
func Run(ctx context.Context, s *session.Session, opts Options) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Stop()

	mouse := tea.WithMouseCellMotion()
	if opts.PointerSpawn {
		mouse = tea.WithMouseAllMotion()
	}
	program := tea.NewProgram(New(s, opts), tea.WithAltScreen(), mouse, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
