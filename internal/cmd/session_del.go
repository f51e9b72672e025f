package cmd

import (
	"context"
	"fmt"
)

// SessionDelCmd removes a workspace window from the session
type SessionDelCmd struct {
	Name string `arg:"" help:"Workspace whose window to remove"`
}

// Run executes the session del command
func (s *SessionDelCmd) Run(cli *CLI) error {
	container, err := NewContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	if err := container.Sessions.Remove(context.Background(), s.Name); err != nil {
		return err
	}

	fmt.Printf("Window for '%s' removed; the workspace is untouched\n", s.Name)
	return nil
}
