package cmd

import (
	"fmt"
)

// NewCmd creates a workspace
type NewCmd struct {
	Base        string `help:"Base branch to fork from (defaults to the branch checked out in the origin checkout)" default:""`
	FromCurrent bool   `help:"Promote the currently checked out branch into a workspace instead of forking a new one"`
	Name        string `arg:"" optional:"" help:"Workspace name (doubles as the branch name)"`
}

// Run executes the new command
func (n *NewCmd) Run(cli *CLI) error {
	container, err := NewContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	if n.FromCurrent {
		return n.promote(container)
	}

	if n.Name == "" {
		return fmt.Errorf("workspace name required (or pass --from-current to promote the current branch)")
	}

	base := n.Base
	if base == "" {
		if base, err = container.Git.CurrentBranch(container.Workspaces.RepoPath()); err != nil {
			return err
		}
	}

	workspace, err := container.Workspaces.Create(n.Name, base)
	if err != nil {
		return err
	}

	fmt.Printf("Workspace '%s' created at %s (branch %s, base %s)\n",
		workspace.Name, workspace.Path, workspace.Branch, workspace.BaseBranch)
	return nil
}

func (n *NewCmd) promote(container *Container) error {
	if n.Base == "" {
		return fmt.Errorf("--base is required with --from-current (the origin checkout switches to it)")
	}

	migration, err := container.Workspaces.CreateFromCurrentBranch(n.Base)
	if err != nil {
		return err
	}

	if migration.StashSaved {
		fmt.Println("Uncommitted changes carried into the new workspace")
	}
	fmt.Printf("Branch '%s' promoted to workspace at %s; origin checkout is now on '%s'\n",
		migration.Branch, migration.Workspace.Path, n.Base)
	return nil
}
