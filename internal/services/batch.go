package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"canopy/internal/domain"
	"canopy/internal/logging"
	"canopy/internal/ports"
)

// BatchOrchestrator runs a declarative batch of agent tasks: one isolated
// workspace per task, agents executed in parallel, then a serialized
// merge phase and policy-driven cleanup.
type BatchOrchestrator struct {
	agent      ports.AgentRunner
	git        ports.Git
	workspaces *WorkspaceManager

	// MaxParallel caps concurrent agent runs; zero means unbounded.
	MaxParallel int
}

// NewBatchOrchestrator creates a BatchOrchestrator using the given
// workspace manager for isolation and agent runner for task execution.
func NewBatchOrchestrator(workspaces *WorkspaceManager, git ports.Git, agent ports.AgentRunner) *BatchOrchestrator {
	return &BatchOrchestrator{
		agent:      agent,
		git:        git,
		workspaces: workspaces,
	}
}

// taskState tracks one task across the execution and merge phases.
type taskState struct {
	report    *domain.TaskReport
	task      domain.Task
	workspace *domain.Workspace
}

// Run executes the batch. The returned report covers every task even
// when some fail; the error is reserved for configuration problems and
// orchestration failures, never an individual task's exit status.
func (o *BatchOrchestrator) Run(ctx context.Context, run *domain.BatchRun, dryRun bool) (*domain.RunReport, error) {
	if !o.git.BranchExists(o.workspaces.RepoPath(), run.BaseBranch) {
		return nil, fmt.Errorf("%w: base branch %q does not exist", domain.ErrInvalidConfig, run.BaseBranch)
	}

	report := &domain.RunReport{
		BaseBranch: run.BaseBranch,
		DryRun:     dryRun,
		RunID:      run.ID,
	}

	states := make([]*taskState, len(run.Tasks))
	for i, task := range run.Tasks {
		task.Status = domain.TaskPending
		states[i] = &taskState{
			report: &domain.TaskReport{ID: task.ID, Merge: domain.MergeNone, Status: domain.TaskPending},
			task:   task,
		}
	}

	logging.Logger.Info("Batch run starting",
		"run_id", run.ID, "tasks", len(run.Tasks), "base", run.BaseBranch, "dry_run", dryRun)

	o.executePhase(ctx, states, run, dryRun)
	o.mergePhase(states, run, dryRun)
	o.cleanupPhase(states, run, dryRun)

	for _, st := range states {
		report.Tasks = append(report.Tasks, *st.report)
	}
	logging.Logger.Info("Batch run finished", "run_id", run.ID, "failed", report.Failed())
	return report, nil
}

// executePhase creates workspaces and runs agents in parallel. Failures
// are recorded per task; one task's failure never cancels its siblings.
func (o *BatchOrchestrator) executePhase(ctx context.Context, states []*taskState, run *domain.BatchRun, dryRun bool) {
	var mu sync.Mutex
	var g errgroup.Group
	if o.MaxParallel > 0 {
		g.SetLimit(o.MaxParallel)
	}

	for _, st := range states {
		g.Go(func() error {
			o.executeTask(ctx, st, run, dryRun, &mu)
			return nil
		})
	}
	g.Wait()
}

// executeTask runs one task. The task ID is the workspace name and the
// branch name; re-running an interrupted batch therefore fails fast with
// ErrWorkspaceExists instead of piling up duplicate branches.
func (o *BatchOrchestrator) executeTask(ctx context.Context, st *taskState, run *domain.BatchRun, dryRun bool, mu *sync.Mutex) {
	record := func(format string, args ...any) {
		mu.Lock()
		st.report.Actions = append(st.report.Actions, fmt.Sprintf(format, args...))
		mu.Unlock()
	}
	fail := func(err error) {
		st.report.Status = domain.TaskFailed
		st.report.Err = err.Error()
		logging.Logger.Error("Batch task failed", "task", st.task.ID, "error", err)
	}

	st.report.Status = domain.TaskRunning
	record("create workspace %s from %s", st.task.ID, run.BaseBranch)
	record("run agent %q", st.task.Agent)

	if dryRun {
		st.report.Status = domain.TaskSucceeded
		st.report.WorkspacePath = o.workspaces.Path(st.task.ID)
		return
	}

	workspace, err := o.workspaces.Create(st.task.ID, run.BaseBranch)
	if err != nil {
		fail(fmt.Errorf("workspace creation failed: %w", err))
		return
	}
	st.workspace = workspace
	st.report.WorkspacePath = workspace.Path

	spec := ports.AgentSpec{
		Command: st.task.Agent,
		Dir:     workspace.Path,
		Env:     Env(workspace),
		Prompt:  st.task.Prompt,
	}
	if err := o.agent.Run(ctx, spec); err != nil {
		fail(fmt.Errorf("agent failed: %w", err))
		return
	}

	st.report.Status = domain.TaskSucceeded
	logging.Logger.Info("Batch task succeeded", "task", st.task.ID, "workspace", workspace.Path)
}

// mergePhase integrates successful task branches into the base branch,
// one at a time in task order. Merges touch the shared origin checkout
// and must never run concurrently.
func (o *BatchOrchestrator) mergePhase(states []*taskState, run *domain.BatchRun, dryRun bool) {
	if run.MergeStrategy == domain.MergeManual {
		return
	}

	// Declared order, strictly serialized: merges mutate the shared
	// origin checkout.
	for _, st := range states {
		if st.report.Status != domain.TaskSucceeded {
			continue
		}

		st.report.Actions = append(st.report.Actions,
			fmt.Sprintf("merge %s into %s (%s)", st.task.ID, run.BaseBranch, run.MergeStrategy))
		if dryRun {
			st.report.Merge = domain.MergeDone
			continue
		}

		err := o.git.Merge(o.workspaces.RepoPath(), st.task.ID, run.BaseBranch, run.MergeStrategy)
		switch {
		case err == nil:
			st.report.Merge = domain.MergeDone
			logging.Logger.Info("Task branch merged", "task", st.task.ID, "into", run.BaseBranch)
		case errors.Is(err, domain.ErrMergeConflict):
			st.report.Merge = domain.MergeConflicted
			st.report.Err = err.Error()
			logging.Logger.Warn("Task branch left unmerged", "task", st.task.ID, "error", err)
		default:
			st.report.Status = domain.TaskFailed
			st.report.Err = err.Error()
			logging.Logger.Error("Merge failed", "task", st.task.ID, "error", err)
		}
	}
}

// cleanupPhase removes workspaces according to the cleanup policy.
// Task branches always survive; only the working directories go.
func (o *BatchOrchestrator) cleanupPhase(states []*taskState, run *domain.BatchRun, dryRun bool) {
	for _, st := range states {
		keep, reason := o.shouldKeep(st, run)
		if keep {
			st.report.WorkspaceKept = true
			st.report.Actions = append(st.report.Actions, "keep workspace ("+reason+")")
			continue
		}

		st.report.Actions = append(st.report.Actions, "remove workspace "+st.task.ID)
		if dryRun {
			continue
		}
		if _, err := o.workspaces.Remove(st.task.ID); err != nil {
			st.report.WorkspaceKept = true
			logging.Logger.Warn("Failed to remove batch workspace", "task", st.task.ID, "error", err)
		}
	}
}

// shouldKeep applies the cleanup policy for one task. A conflicted merge
// always retains the workspace regardless of policy: the branch holds
// work someone has to integrate by hand.
func (o *BatchOrchestrator) shouldKeep(st *taskState, run *domain.BatchRun) (bool, string) {
	if st.report.Merge == domain.MergeConflicted {
		return true, "merge conflict"
	}
	switch run.Cleanup {
	case domain.CleanupManual:
		return true, "cleanup=manual"
	case domain.CleanupKeepOnError:
		if st.report.Status == domain.TaskFailed {
			return true, "task failed"
		}
		return false, ""
	default:
		return false, ""
	}
}
