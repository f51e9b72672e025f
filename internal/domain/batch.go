package domain

import "fmt"

// TaskStatus is the lifecycle state of a batch task.
// Transitions are Pending -> Running -> {Succeeded, Failed}; a task whose
// workspace cannot be created goes straight to Failed without ever Running.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// Terminal reports whether the status is final.
func (s TaskStatus) Terminal() bool {
	return s == TaskSucceeded || s == TaskFailed
}

// Task is one unit of orchestrated work. The ID doubles as the workspace
// name and the branch name the agent's changes land on.
type Task struct {
	Agent  string
	ID     string
	Prompt string
	Status TaskStatus
}

// MergeStrategy is the policy for integrating a finished task's branch
// back into the base branch.
type MergeStrategy string

const (
	MergeSquash MergeStrategy = "squash"
	MergeRebase MergeStrategy = "rebase"
	MergeManual MergeStrategy = "manual"
)

// ParseMergeStrategy validates a merge strategy string from config.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch MergeStrategy(s) {
	case MergeSquash, MergeRebase, MergeManual:
		return MergeStrategy(s), nil
	}
	return "", fmt.Errorf("%w: merge_strategy %q (must be squash, rebase or manual)", ErrInvalidConfig, s)
}

// CleanupPolicy decides whether a task's workspace survives the run.
type CleanupPolicy string

const (
	CleanupAuto        CleanupPolicy = "auto"
	CleanupManual      CleanupPolicy = "manual"
	CleanupKeepOnError CleanupPolicy = "keep-on-error"
)

// ParseCleanupPolicy validates a cleanup policy string from config.
func ParseCleanupPolicy(s string) (CleanupPolicy, error) {
	switch CleanupPolicy(s) {
	case CleanupAuto, CleanupManual, CleanupKeepOnError:
		return CleanupPolicy(s), nil
	}
	return "", fmt.Errorf("%w: cleanup %q (must be auto, manual or keep-on-error)", ErrInvalidConfig, s)
}

// BatchRun is one invocation of batch mode: an ordered task set executed
// against independently created workspaces sharing a base branch.
type BatchRun struct {
	BaseBranch    string
	Cleanup       CleanupPolicy
	ID            string
	MergeStrategy MergeStrategy
	Tasks         []Task
	WorktreeDir   string
}

// MergeOutcome is the per-task result of the merge phase.
type MergeOutcome string

const (
	// MergeNone means no merge was attempted (manual strategy, or the
	// task failed before the merge phase).
	MergeNone MergeOutcome = "none"
	// MergeDone means the task branch was merged into the base branch.
	MergeDone MergeOutcome = "merged"
	// MergeConflicted means the merge was attempted and hit a conflict;
	// the task is failed-at-merge and its workspace is retained.
	MergeConflicted MergeOutcome = "conflict"
)

// TaskReport is the final per-task record in a RunReport. Actions lists
// the mutating operations in order; in dry-run mode they are the operations
// that would have been performed, so both modes share one reporting path.
type TaskReport struct {
	Actions          []string
	Err              string
	ID               string
	Merge            MergeOutcome
	Status           TaskStatus
	WorkspaceKept    bool
	WorkspacePath    string
}

// RunReport is the outcome of a whole batch run.
type RunReport struct {
	BaseBranch string
	DryRun     bool
	RunID      string
	Tasks      []TaskReport
}

// Failed reports whether any task ended in a non-succeeded state or
// failed at merge.
func (r *RunReport) Failed() bool {
	for _, t := range r.Tasks {
		if t.Status != TaskSucceeded || t.Merge == MergeConflicted {
			return true
		}
	}
	return false
}

// Summary returns a one-line count of terminal task states.
func (r *RunReport) Summary() string {
	var succeeded, failed, conflicted int
	for _, t := range r.Tasks {
		switch {
		case t.Merge == MergeConflicted:
			conflicted++
		case t.Status == TaskSucceeded:
			succeeded++
		default:
			failed++
		}
	}
	return fmt.Sprintf("succeeded: %d | failed: %d | merge conflicts: %d", succeeded, failed, conflicted)
}
