package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"canopy/internal/domain"
	"canopy/internal/services"
)

// EnterCmd opens a subshell inside a workspace
type EnterCmd struct {
	Name string `arg:"" help:"Workspace to enter"`
}

// Run executes the enter command
func (e *EnterCmd) Run(cli *CLI) error {
	if os.Getenv("CANOPY_ACTIVE") == "1" {
		return fmt.Errorf("already inside workspace '%s'; exit this shell first", os.Getenv("CANOPY_WORKSPACE"))
	}

	container, err := NewContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	var workspace *domain.Workspace
	for ws, err := range container.Workspaces.All() {
		if err != nil {
			return err
		}
		if ws.Name == e.Name {
			workspace = &ws
			break
		}
	}
	if workspace == nil {
		return fmt.Errorf("%w: %q (see 'canopy ls')", domain.ErrWorkspaceNotFound, e.Name)
	}

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	fmt.Printf("Entering workspace '%s' (%s); exit the shell to leave\n", workspace.Name, workspace.Path)

	command := exec.Command(shell)
	command.Dir = workspace.Path
	command.Env = os.Environ()
	for key, value := range services.Env(workspace) {
		command.Env = append(command.Env, key+"="+value)
	}
	command.Stdin = os.Stdin
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr

	err = command.Run()
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		fmt.Printf("Left workspace '%s' (shell exited with status %d)\n", workspace.Name, exitErr.ExitCode())
	case err != nil:
		return err
	default:
		fmt.Printf("Left workspace '%s'\n", workspace.Name)
	}

	if summary, err := container.Git.DirtySummary(workspace.Path); err == nil && summary != "" {
		fmt.Println("Uncommitted changes in the workspace:")
		fmt.Println(summary)
	}
	return nil
}
