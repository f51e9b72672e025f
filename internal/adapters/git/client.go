package git

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"canopy/internal/domain"
	"canopy/internal/logging"
	"canopy/internal/ports"
)

// Client drives the git CLI. Every method is a thin wrapper over one or
// two git invocations run in the relevant directory.
type Client struct {
	// ignoreMu serializes EnsureIgnored's read-then-append on the
	// shared .gitignore, which parallel batch tasks hit concurrently.
	ignoreMu sync.Mutex
}

// Compile-time interface verification
var _ ports.Git = (*Client)(nil)

// NewClient creates a new git CLI adapter.
func NewClient() *Client {
	return &Client{}
}

// run executes git with the given arguments in dir and returns combined
// output. A missing git binary maps to domain.ErrPortUnavailable.
func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: git is not installed or not on PATH", domain.ErrPortUnavailable)
		}
		return string(output), fmt.Errorf("git %s: %w\nOutput: %s", args[0], err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// RepoRoot returns the top-level directory of the repository containing
// path. For a worktree this is the worktree root, not the origin checkout.
func (c *Client) RepoRoot(path string) (string, error) {
	output, err := run(path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %s", path)
	}
	return strings.TrimSpace(output), nil
}

// MainRepoRoot returns the origin checkout's root directory, resolving
// through linked worktrees via the shared git common directory.
func (c *Client) MainRepoRoot(path string) (string, error) {
	output, err := run(path, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %s", path)
	}

	gitCommonDir := strings.TrimSpace(output)
	if !filepath.IsAbs(gitCommonDir) {
		gitCommonDir = filepath.Join(path, gitCommonDir)
	}
	return filepath.Clean(filepath.Dir(gitCommonDir)), nil
}

// CurrentBranch returns the checked-out branch name for path.
func (c *Client) CurrentBranch(path string) (string, error) {
	output, err := run(path, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// BranchExists checks whether branch resolves locally or on origin.
func (c *Client) BranchExists(repoPath, branch string) bool {
	if _, err := run(repoPath, "show-ref", "--verify", "--quiet", "refs/heads/"+branch); err == nil {
		return true
	}
	output, err := run(repoPath, "ls-remote", "--heads", "origin", branch)
	return err == nil && strings.TrimSpace(output) != ""
}

// IsDirty reports whether the working tree at path has uncommitted
// changes, including untracked files.
func (c *Client) IsDirty(path string) (bool, error) {
	output, err := run(path, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) != "", nil
}

// DirtySummary returns the short status of the working tree at path.
func (c *Client) DirtySummary(path string) (string, error) {
	output, err := run(path, "status", "--short")
	if err != nil {
		return "", err
	}
	return strings.TrimRight(output, "\n"), nil
}

// CreateWorktree adds a linked worktree at worktreePath. When the branch
// already exists it is checked out; otherwise a new branch is forked from
// baseBranch.
func (c *Client) CreateWorktree(repoPath, worktreePath, branch, baseBranch string) error {
	logging.Logger.Info("Creating worktree",
		"repo_path", repoPath, "worktree_path", worktreePath, "branch", branch, "base", baseBranch)

	if err := os.MkdirAll(filepath.Dir(worktreePath), 0755); err != nil {
		return fmt.Errorf("failed to create worktree base directory: %w", err)
	}

	var err error
	if c.branchExistsLocally(repoPath, branch) {
		_, err = run(repoPath, "worktree", "add", worktreePath, branch)
	} else {
		_, err = run(repoPath, "worktree", "add", "-b", branch, worktreePath, baseBranch)
	}
	if err != nil {
		logging.Logger.Error("Git worktree add failed", "error", err)
		return fmt.Errorf("failed to create worktree: %w", err)
	}

	logging.Logger.Info("Git worktree created", "path", worktreePath, "branch", branch)
	return nil
}

func (c *Client) branchExistsLocally(repoPath, branch string) bool {
	_, err := run(repoPath, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// RemoveWorktree removes the linked worktree at worktreePath. Removal is
// forced: workspaces are expendable scratch space and uncommitted changes
// never block it.
func (c *Client) RemoveWorktree(repoPath, worktreePath string) error {
	logging.Logger.Info("Removing worktree", "repo_path", repoPath, "worktree_path", worktreePath)

	if _, err := run(repoPath, "worktree", "remove", worktreePath); err == nil {
		return nil
	}
	if _, err := run(repoPath, "worktree", "remove", "--force", worktreePath); err != nil {
		return fmt.Errorf("failed to remove worktree: %w", err)
	}
	return nil
}

// PruneWorktrees drops stale worktree registrations whose directories
// are already gone from disk.
func (c *Client) PruneWorktrees(repoPath string) error {
	_, err := run(repoPath, "worktree", "prune")
	return err
}

// ListWorktrees returns all worktrees of the repository, origin checkout
// included, in registration order.
func (c *Client) ListWorktrees(repoPath string) ([]ports.WorktreeInfo, error) {
	output, err := run(repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to list worktrees: %w", err)
	}
	return parseWorktreeList(output), nil
}

// parseWorktreeList parses git worktree list --porcelain output.
func parseWorktreeList(output string) []ports.WorktreeInfo {
	var worktrees []ports.WorktreeInfo
	var current ports.WorktreeInfo

	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			if current.Path != "" {
				worktrees = append(worktrees, current)
			}
			current = ports.WorktreeInfo{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "branch "):
			current.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		}
	}
	if current.Path != "" {
		worktrees = append(worktrees, current)
	}

	return worktrees
}

// SetUpstream configures the worktree so the first push creates the
// matching remote branch without -u origin HEAD.
func (c *Client) SetUpstream(worktreePath string) error {
	_, err := run(worktreePath, "config", "push.autoSetupRemote", "true")
	return err
}

// RecordBase stores the branch a workspace was forked from in the
// repository config, so listings can report it later.
func (c *Client) RecordBase(repoPath, branch, base string) error {
	_, err := run(repoPath, "config", fmt.Sprintf("branch.%s.canopy-base", branch), base)
	return err
}

// BaseOf returns the recorded fork base of branch, or empty when none
// was recorded.
func (c *Client) BaseOf(repoPath, branch string) string {
	output, err := run(repoPath, "config", "--get", fmt.Sprintf("branch.%s.canopy-base", branch))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(output)
}

// Stash saves uncommitted changes, untracked files included. Stash state
// is shared across all worktrees of the repository.
func (c *Client) Stash(path string) error {
	_, err := run(path, "stash", "push", "-u", "-m", "canopy: branch promotion")
	return err
}

// StashApply applies the most recent stash entry in the tree at path
// without dropping it.
func (c *Client) StashApply(path string) error {
	_, err := run(path, "stash", "apply")
	return err
}

// StashDrop drops the most recent stash entry.
func (c *Client) StashDrop(path string) error {
	_, err := run(path, "stash", "drop")
	return err
}

// Checkout switches the tree at path to branch.
func (c *Client) Checkout(path, branch string) error {
	_, err := run(path, "checkout", branch)
	return err
}

// Merge integrates branch into the target branch of the origin checkout.
// Squash produces a single squashed commit; rebase replays the branch's
// commits linearly onto the target. A conflicted merge is aborted so the
// base branch is left clean, and the error wraps domain.ErrMergeConflict.
func (c *Client) Merge(repoPath, branch, into string, strategy domain.MergeStrategy) error {
	logging.Logger.Info("Merging task branch", "branch", branch, "into", into, "strategy", strategy)

	if err := c.Checkout(repoPath, into); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", into, err)
	}

	switch strategy {
	case domain.MergeSquash:
		if _, err := run(repoPath, "merge", "--squash", branch); err != nil {
			run(repoPath, "reset", "--merge")
			return fmt.Errorf("%w: squash merge of %s into %s: %v", domain.ErrMergeConflict, branch, into, err)
		}
		// A branch with nothing beyond the base stages no changes, and
		// git commit would refuse with "nothing to commit".
		if _, err := run(repoPath, "diff", "--cached", "--quiet"); err == nil {
			return nil
		}
		if _, err := run(repoPath, "commit", "-m", fmt.Sprintf("Merge %s (squashed)", branch)); err != nil {
			return fmt.Errorf("failed to commit squash merge of %s: %w", branch, err)
		}
	case domain.MergeRebase:
		// Cherry-pick the range instead of rewriting the task branch:
		// the branch may still be checked out in its worktree, which
		// git refuses to rebase in place.
		if _, err := run(repoPath, "cherry-pick", fmt.Sprintf("%s..%s", into, branch)); err != nil {
			run(repoPath, "cherry-pick", "--abort")
			return fmt.Errorf("%w: linear replay of %s onto %s: %v", domain.ErrMergeConflict, branch, into, err)
		}
	case domain.MergeManual:
		// Never reached; the orchestrator skips the merge phase entirely.
	}

	return nil
}
