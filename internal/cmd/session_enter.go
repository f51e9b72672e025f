package cmd

import (
	"context"
)

// SessionEnterCmd focuses a workspace's window
type SessionEnterCmd struct {
	Name string `arg:"" help:"Workspace whose window to focus"`
}

// Run executes the session enter command
func (s *SessionEnterCmd) Run(cli *CLI) error {
	container, err := NewContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	return container.Sessions.Enter(context.Background(), s.Name)
}
