package cmd

import (
	"context"
	"fmt"
)

// SessionAddCmd adds a workspace window to the session
type SessionAddCmd struct {
	Base  string `help:"Base branch when the workspace has to be created (defaults to the current branch)" default:""`
	Name  string `arg:"" help:"Workspace to add"`
	Panes int    `help:"Pane count for the window (2 or 3)" default:"0"`
	Watch bool   `help:"Also start the status dashboard in the session's status window"`
}

// Run executes the session add command
func (s *SessionAddCmd) Run(cli *CLI) error {
	container, err := NewContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	base := s.Base
	if base == "" {
		if base, err = container.Git.CurrentBranch(container.Workspaces.RepoPath()); err != nil {
			return err
		}
	}

	entry, err := container.Sessions.Add(context.Background(), s.Name, base, s.Panes)
	if err != nil {
		return err
	}

	if s.Watch || container.Settings.Watch.AutoWindow {
		if err := container.Sessions.StartWatch(); err != nil {
			fmt.Printf("Warning: could not start the status dashboard: %v\n", err)
		}
	}

	if container.Tmux.InsideTmux() {
		if err := container.Tmux.SelectWindow(container.Sessions.SessionName(), entry.WindowIndex); err == nil {
			fmt.Printf("Workspace '%s' added as window %d (%d panes)\n", s.Name, entry.WindowIndex, entry.PaneCount)
			return nil
		}
	}

	fmt.Printf("Workspace '%s' added as window %d (%d panes); attach with 'canopy attach'\n",
		s.Name, entry.WindowIndex, entry.PaneCount)
	return nil
}
