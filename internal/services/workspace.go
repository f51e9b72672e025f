package services

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"canopy/internal/domain"
	"canopy/internal/logging"
	"canopy/internal/ports"
)

// WorkspaceManager owns workspace lifecycle: creation, removal, listing
// and the current-branch-to-workspace promotion. It drives version
// control through the git port only; no git state is cached in process.
type WorkspaceManager struct {
	git         ports.Git
	repoPath    string
	worktreeDir string
}

// NewWorkspaceManager creates a WorkspaceManager for the origin checkout
// at repoPath. A relative worktreeDir is resolved against repoPath.
func NewWorkspaceManager(git ports.Git, repoPath, worktreeDir string) *WorkspaceManager {
	if !filepath.IsAbs(worktreeDir) {
		worktreeDir = filepath.Clean(filepath.Join(repoPath, worktreeDir))
	}
	return &WorkspaceManager{
		git:         git,
		repoPath:    repoPath,
		worktreeDir: worktreeDir,
	}
}

// RepoPath returns the origin checkout root.
func (m *WorkspaceManager) RepoPath() string { return m.repoPath }

// WorktreeDir returns the absolute directory workspaces are created in.
func (m *WorkspaceManager) WorktreeDir() string { return m.worktreeDir }

// Path returns the directory a workspace with the given name would use.
func (m *WorkspaceManager) Path(name string) string {
	return filepath.Join(m.worktreeDir, domain.SanitizeName(name))
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: workspace name is empty", domain.ErrInvalidConfig)
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, "-") {
		return fmt.Errorf("%w: workspace name %q", domain.ErrInvalidConfig, name)
	}
	// "--" encodes "/" in workspace directory names, so a literal "--"
	// would collide with a slashed name and list back incorrectly.
	if strings.Contains(name, "--") {
		return fmt.Errorf("%w: workspace name %q may not contain %q", domain.ErrInvalidConfig, name, "--")
	}
	return nil
}

// Create makes a new workspace: a linked worktree on a branch named
// after the workspace, forked from baseBranch. The branch may already
// exist (it is then checked out instead of forked), the workspace may
// not.
func (m *WorkspaceManager) Create(name, baseBranch string) (*domain.Workspace, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if cwd, err := os.Getwd(); err == nil {
		if inside, ok := m.Which(cwd); ok {
			return nil, fmt.Errorf("%w: cannot create a workspace from inside workspace %q (cd to the origin checkout first)",
				domain.ErrInvalidConfig, inside)
		}
	}

	path := m.Path(name)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %q at %s (remove it with 'canopy rm %s' first)",
			domain.ErrWorkspaceExists, name, path, name)
	}
	if worktrees, err := m.git.ListWorktrees(m.repoPath); err == nil {
		for _, wt := range worktrees {
			if wt.Path == path {
				return nil, fmt.Errorf("%w: %q is still registered (run 'canopy rm %s' to clear it)",
					domain.ErrWorkspaceExists, name, name)
			}
		}
	}

	if !m.git.BranchExists(m.repoPath, baseBranch) {
		return nil, fmt.Errorf("%w: %q (check 'git branch' for available branches)",
			domain.ErrUnknownBase, baseBranch)
	}

	// Keep the worktree dir out of version control when it lives
	// inside the repository.
	if rel, err := filepath.Rel(m.repoPath, m.worktreeDir); err == nil && !strings.HasPrefix(rel, "..") {
		if err := m.git.EnsureIgnored(m.repoPath, rel+"/"); err != nil {
			logging.Logger.Warn("Failed to update .gitignore", "error", err)
		}
	}

	if err := m.git.CreateWorktree(m.repoPath, path, name, baseBranch); err != nil {
		return nil, err
	}

	if err := m.git.RecordBase(m.repoPath, name, baseBranch); err != nil {
		logging.Logger.Warn("Failed to record base branch", "workspace", name, "error", err)
	}
	if err := m.git.SetUpstream(path); err != nil {
		logging.Logger.Warn("Failed to configure upstream tracking", "workspace", name, "error", err)
	}
	if err := m.git.PropagateCopyList(m.repoPath, path); err != nil {
		logging.Logger.Warn("Failed to propagate copy-list files", "workspace", name, "error", err)
	}

	logging.Logger.Info("Workspace created", "name", name, "path", path, "base", baseBranch)
	return &domain.Workspace{
		BaseBranch: baseBranch,
		Branch:     name,
		CreatedAt:  time.Now(),
		Name:       name,
		Path:       path,
	}, nil
}

// MigrationStep identifies one step of the branch promotion saga.
type MigrationStep string

const (
	StepStash           MigrationStep = "stash"
	StepCheckoutBase    MigrationStep = "checkout-base"
	StepCreateWorkspace MigrationStep = "create-workspace"
	StepRestoreStash    MigrationStep = "restore-stash"
)

// Migration records the outcome of a branch promotion, including which
// step failed so callers can report exactly what state was left behind.
// A saved but unrestored stash always survives in the stash list.
type Migration struct {
	Branch        string
	FailedStep    MigrationStep
	StashRestored bool
	StashSaved    bool
	Workspace     *domain.Workspace
}

// CreateFromCurrentBranch promotes the branch checked out in the origin
// checkout into a workspace: stash if dirty, switch the origin to
// baseBranch, create the workspace for the old branch, then re-apply the
// stash inside it. The stash is never dropped unless it was applied.
func (m *WorkspaceManager) CreateFromCurrentBranch(baseBranch string) (*Migration, error) {
	branch, err := m.git.CurrentBranch(m.repoPath)
	if err != nil {
		return nil, err
	}

	migration := &Migration{Branch: branch}

	if branch == baseBranch {
		return migration, fmt.Errorf("%w: %q (pass a workspace name to fork a new branch instead)",
			domain.ErrOnBaseBranch, baseBranch)
	}

	dirty, err := m.git.IsDirty(m.repoPath)
	if err != nil {
		return migration, err
	}
	if dirty {
		if err := m.git.Stash(m.repoPath); err != nil {
			migration.FailedStep = StepStash
			return migration, fmt.Errorf("failed to stash uncommitted changes: %w", err)
		}
		migration.StashSaved = true
		logging.Logger.Info("Stashed uncommitted changes for promotion", "branch", branch)
	}

	// The origin must leave the branch before the worktree can check it
	// out: git refuses to have one branch checked out twice.
	if err := m.git.Checkout(m.repoPath, baseBranch); err != nil {
		migration.FailedStep = StepCheckoutBase
		return migration, m.stashPreservedErr(migration,
			fmt.Errorf("failed to switch origin checkout to %q: %w", baseBranch, err))
	}

	workspace, err := m.Create(branch, baseBranch)
	if err != nil {
		migration.FailedStep = StepCreateWorkspace
		return migration, m.stashPreservedErr(migration, err)
	}
	migration.Workspace = workspace

	if migration.StashSaved {
		if err := m.git.StashApply(workspace.Path); err != nil {
			migration.FailedStep = StepRestoreStash
			return migration, m.stashPreservedErr(migration,
				fmt.Errorf("failed to apply stash in new workspace: %w", err))
		}
		if err := m.git.StashDrop(workspace.Path); err != nil {
			// Applied but not dropped: changes are safe in the
			// workspace, the duplicate stash entry just lingers.
			logging.Logger.Warn("Failed to drop stash after apply", "error", err)
		}
		migration.StashRestored = true
	}

	logging.Logger.Info("Branch promoted to workspace", "branch", branch, "path", workspace.Path)
	return migration, nil
}

// stashPreservedErr annotates a saga failure with where the stashed
// changes ended up.
func (m *WorkspaceManager) stashPreservedErr(migration *Migration, err error) error {
	if migration.StashSaved && !migration.StashRestored {
		return fmt.Errorf("%w (your uncommitted changes are preserved: run 'git stash pop' to recover them)", err)
	}
	return err
}

// RemoveResult reports what a removal destroyed.
type RemoveResult struct {
	Branch      string
	LostChanges string
	Path        string
}

// Remove deletes a workspace directory. The branch and its history are
// always retained for merging. Uncommitted changes never block removal;
// they are reported back so the caller can warn about what was lost.
func (m *WorkspaceManager) Remove(name string) (*RemoveResult, error) {
	info, err := m.find(name)
	if err != nil {
		return nil, err
	}

	result := &RemoveResult{Branch: info.Branch, Path: info.Path}

	if _, err := os.Stat(info.Path); os.IsNotExist(err) {
		// Directory already gone; drop the stale registration.
		if err := m.git.PruneWorktrees(m.repoPath); err != nil {
			return nil, err
		}
		return result, nil
	}

	if summary, err := m.git.DirtySummary(info.Path); err == nil {
		result.LostChanges = summary
	}

	if err := m.git.RemoveWorktree(m.repoPath, info.Path); err != nil {
		return nil, err
	}

	logging.Logger.Info("Workspace removed", "name", name, "branch_kept", info.Branch)
	return result, nil
}

// find locates the worktree registration for a workspace name.
func (m *WorkspaceManager) find(name string) (*ports.WorktreeInfo, error) {
	worktrees, err := m.git.ListWorktrees(m.repoPath)
	if err != nil {
		return nil, err
	}

	want := m.Path(name)
	for _, wt := range worktrees {
		if wt.Path == want {
			return &wt, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (see 'canopy ls' for existing workspaces)", domain.ErrWorkspaceNotFound, name)
}

// List returns all workspaces ordered by creation time, flagging the one
// containing the current working directory.
func (m *WorkspaceManager) List() ([]domain.Workspace, error) {
	worktrees, err := m.git.ListWorktrees(m.repoPath)
	if err != nil {
		return nil, err
	}

	cwd, _ := os.Getwd()
	current, _ := m.Which(cwd)

	var workspaces []domain.Workspace
	for _, wt := range worktrees {
		if wt.Path == m.repoPath || !m.inWorktreeDir(wt.Path) {
			continue
		}

		name := domain.UnsanitizeName(filepath.Base(wt.Path))
		ws := domain.Workspace{
			BaseBranch: m.git.BaseOf(m.repoPath, wt.Branch),
			Branch:     wt.Branch,
			Current:    name == current,
			Name:       name,
			Path:       wt.Path,
		}
		if info, err := os.Stat(wt.Path); err == nil {
			ws.CreatedAt = info.ModTime()
		}
		workspaces = append(workspaces, ws)
	}

	sort.Slice(workspaces, func(i, j int) bool {
		return workspaces[i].CreatedAt.Before(workspaces[j].CreatedAt)
	})
	return workspaces, nil
}

// All returns a restartable iterator over the workspaces; each range
// restarts the listing from version control.
func (m *WorkspaceManager) All() iter.Seq2[domain.Workspace, error] {
	return func(yield func(domain.Workspace, error) bool) {
		workspaces, err := m.List()
		if err != nil {
			yield(domain.Workspace{}, err)
			return
		}
		for _, ws := range workspaces {
			if !yield(ws, nil) {
				return
			}
		}
	}
}

// Which returns the name of the workspace containing path. The boolean
// is false when path is not inside any workspace.
func (m *WorkspaceManager) Which(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}

	rel, err := filepath.Rel(m.worktreeDir, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}

	segments := strings.Split(filepath.ToSlash(rel), "/")
	return domain.UnsanitizeName(segments[0]), true
}

func (m *WorkspaceManager) inWorktreeDir(path string) bool {
	rel, err := filepath.Rel(m.worktreeDir, path)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

// Env returns the workspace environment exposed to every process spawned
// inside a workspace, pane shells and batch agents alike.
func Env(ws *domain.Workspace) map[string]string {
	return map[string]string{
		"CANOPY_ACTIVE":    "1",
		"CANOPY_BRANCH":    ws.Branch,
		"CANOPY_PATH":      ws.Path,
		"CANOPY_WORKSPACE": ws.Name,
	}
}
