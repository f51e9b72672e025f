package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"canopy/internal/ui"
)

// WatchCmd shows the live workspace status dashboard
type WatchCmd struct{}

// Run executes the watch command
func (w *WatchCmd) Run(cli *CLI) error {
	container, err := NewContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	program := tea.NewProgram(ui.NewWatchModel(container.Monitor), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
