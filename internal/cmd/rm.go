package cmd

import (
	"fmt"
)

// RmCmd removes a workspace
type RmCmd struct {
	Name string `arg:"" help:"Workspace to remove"`
}

// Run executes the rm command
func (r *RmCmd) Run(cli *CLI) error {
	container, err := NewContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	result, err := container.Workspaces.Remove(r.Name)
	if err != nil {
		return err
	}

	if result.LostChanges != "" {
		fmt.Println("Discarded uncommitted changes:")
		fmt.Println(result.LostChanges)
	}
	fmt.Printf("Workspace '%s' removed; branch '%s' kept\n", r.Name, result.Branch)
	return nil
}
