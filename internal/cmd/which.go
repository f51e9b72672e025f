package cmd

import (
	"fmt"
	"os"
)

// WhichCmd prints the workspace containing the current directory
type WhichCmd struct{}

// Run executes the which command
func (w *WhichCmd) Run(cli *CLI) error {
	container, err := NewContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	name, ok := container.Workspaces.Which(cwd)
	if !ok {
		return fmt.Errorf("not inside a workspace")
	}
	fmt.Println(name)
	return nil
}
