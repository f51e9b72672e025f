package cmd

import (
	"fmt"
)

// SessionWatchCmd starts the dashboard in the session's status window
type SessionWatchCmd struct{}

// Run executes the session watch command
func (s *SessionWatchCmd) Run(cli *CLI) error {
	container, err := NewContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	if err := container.Sessions.StartWatch(); err != nil {
		return err
	}
	fmt.Printf("Status dashboard running in window 0 of session '%s'\n", container.Sessions.SessionName())
	return nil
}
