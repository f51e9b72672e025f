package ports

import "canopy/internal/domain"

// WorktreeInfo is one entry from the version-control worktree list.
type WorktreeInfo struct {
	Branch string
	Path   string
}

// RepoInspector answers read-only questions about a repository.
type RepoInspector interface {
	RepoRoot(path string) (string, error)
	// MainRepoRoot resolves the origin checkout even when path is
	// inside a linked worktree.
	MainRepoRoot(path string) (string, error)
	CurrentBranch(path string) (string, error)
	BranchExists(repoPath, branch string) bool
	IsDirty(path string) (bool, error)
	DirtySummary(path string) (string, error)
}

// WorktreeManager handles linked worktree lifecycle.
type WorktreeManager interface {
	CreateWorktree(repoPath, worktreePath, branch, baseBranch string) error
	RemoveWorktree(repoPath, worktreePath string) error
	PruneWorktrees(repoPath string) error
	ListWorktrees(repoPath string) ([]WorktreeInfo, error)
	SetUpstream(worktreePath string) error
	// RecordBase and BaseOf persist which branch a workspace branch was
	// forked from, in the repository's own config.
	RecordBase(repoPath, branch, base string) error
	BaseOf(repoPath, branch string) string
}

// Stasher covers the stash operations used by the branch promotion flow.
// Stash state is shared across all worktrees of a repository, so a stash
// made in the origin checkout can be applied inside a new worktree.
type Stasher interface {
	Stash(path string) error
	StashApply(path string) error
	StashDrop(path string) error
	Checkout(path, branch string) error
}

// Merger integrates a task branch into the base branch. A conflicted
// merge returns an error wrapping domain.ErrMergeConflict and leaves the
// base branch aborted back to its pre-merge state.
type Merger interface {
	Merge(repoPath, branch, into string, strategy domain.MergeStrategy) error
}

// FilePropagator carries selected untracked files into a new worktree
// and keeps the worktree directory ignored in the origin checkout.
type FilePropagator interface {
	PropagateCopyList(repoPath, worktreePath string) error
	EnsureIgnored(repoPath, pattern string) error
}

// Git is the composite version-control port.
type Git interface {
	FilePropagator
	Merger
	RepoInspector
	Stasher
	WorktreeManager
}
