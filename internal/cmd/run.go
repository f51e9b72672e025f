package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	adapteragent "canopy/internal/adapters/agent"
	"canopy/internal/config"
	"canopy/internal/domain"
	"canopy/internal/services"
)

// RunCmd runs a batch of agent tasks
type RunCmd struct {
	Config      string `arg:"" help:"Batch config file (YAML)" type:"existingfile"`
	DryRun      bool   `help:"Print the planned operations without executing anything"`
	MaxParallel int    `help:"Maximum number of agents running at once (0 = unlimited)" default:"0"`
}

// Run executes the run command
func (r *RunCmd) Run(cli *CLI) error {
	container, err := NewContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	run, err := config.LoadBatch(r.Config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator := container.Batch
	if run.WorktreeDir != "" {
		workspaces := services.NewWorkspaceManager(container.Git, container.Workspaces.RepoPath(), run.WorktreeDir)
		orchestrator = services.NewBatchOrchestrator(workspaces, container.Git, adapteragent.NewRunner())
	}
	orchestrator.MaxParallel = r.MaxParallel
	report, err := orchestrator.Run(ctx, run, r.DryRun)
	if err != nil {
		return err
	}

	printReport(report)
	if report.Failed() {
		return fmt.Errorf("batch run finished with failures")
	}
	return nil
}

func printReport(report *domain.RunReport) {
	if report.DryRun {
		fmt.Printf("Dry run %s (base %s):\n", report.RunID, report.BaseBranch)
	} else {
		fmt.Printf("Run %s (base %s):\n", report.RunID, report.BaseBranch)
	}

	for _, task := range report.Tasks {
		fmt.Printf("\n[%s] %s", task.ID, task.Status)
		if task.Merge != domain.MergeNone {
			fmt.Printf(", merge: %s", task.Merge)
		}
		fmt.Println()
		for _, action := range task.Actions {
			fmt.Printf("  - %s\n", action)
		}
		if task.Err != "" {
			fmt.Printf("  error: %s\n", task.Err)
		}
		if task.WorkspaceKept && task.WorkspacePath != "" {
			fmt.Printf("  workspace kept at %s\n", task.WorkspacePath)
		}
	}

	fmt.Printf("\n%s\n", report.Summary())
}
