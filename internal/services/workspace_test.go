package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canopy/internal/domain"
)

func newTestWorkspaceManager(t *testing.T, git *fakeGit) *WorkspaceManager {
	t.Helper()
	root := t.TempDir()
	return NewWorkspaceManager(git, filepath.Join(root, "repo"), filepath.Join(root, "trees"))
}

func TestWorkspaceCreate(t *testing.T) {
	git := newFakeGit("main")
	manager := newTestWorkspaceManager(t, git)

	ws, err := manager.Create("feature-auth", "main")

	require.NoError(t, err)
	assert.Equal(t, "feature-auth", ws.Name)
	assert.Equal(t, "feature-auth", ws.Branch)
	assert.Equal(t, "main", ws.BaseBranch)
	assert.Equal(t, manager.Path("feature-auth"), ws.Path)
	assert.Equal(t, "main", git.BaseOf("", "feature-auth"))
	assert.Contains(t, git.propagated, ws.Path)
}

func TestWorkspaceCreateSanitizesSlashes(t *testing.T) {
	git := newFakeGit("main")
	manager := newTestWorkspaceManager(t, git)

	ws, err := manager.Create("feat/login", "main")

	require.NoError(t, err)
	assert.Equal(t, "feat--login", filepath.Base(ws.Path))
	assert.Equal(t, "feat/login", ws.Name)
}

func TestWorkspaceCreateTwiceFails(t *testing.T) {
	git := newFakeGit("main")
	manager := newTestWorkspaceManager(t, git)

	_, err := manager.Create("feature-auth", "main")
	require.NoError(t, err)

	_, err = manager.Create("feature-auth", "main")
	assert.ErrorIs(t, err, domain.ErrWorkspaceExists)
}

func TestWorkspaceCreateUnknownBase(t *testing.T) {
	git := newFakeGit("main")
	manager := newTestWorkspaceManager(t, git)

	_, err := manager.Create("feature-auth", "nope")

	assert.ErrorIs(t, err, domain.ErrUnknownBase)
}

func TestWorkspaceCreateRejectsBadNames(t *testing.T) {
	git := newFakeGit("main")
	manager := newTestWorkspaceManager(t, git)

	// "a--b" would occupy the same directory as a workspace named "a/b"
	// and list back under the wrong name.
	for _, name := range []string{"", "../escape", "-flag", "a--b"} {
		_, err := manager.Create(name, "main")
		assert.ErrorIs(t, err, domain.ErrInvalidConfig, "name %q", name)
	}
}

func TestWorkspaceRemoveKeepsBranch(t *testing.T) {
	git := newFakeGit("main")
	manager := newTestWorkspaceManager(t, git)

	_, err := manager.Create("feature-auth", "main")
	require.NoError(t, err)

	result, err := manager.Remove("feature-auth")
	require.NoError(t, err)
	assert.Equal(t, "feature-auth", result.Branch)
	assert.True(t, git.BranchExists("", "feature-auth"), "branch must survive removal")

	workspaces, err := manager.List()
	require.NoError(t, err)
	assert.Empty(t, workspaces)
}

func TestWorkspaceRemoveReportsLostChanges(t *testing.T) {
	git := newFakeGit("main")
	git.dirtySummary = " M internal/server.go"
	manager := newTestWorkspaceManager(t, git)

	_, err := manager.Create("feature-auth", "main")
	require.NoError(t, err)

	result, err := manager.Remove("feature-auth")
	require.NoError(t, err)
	assert.Equal(t, " M internal/server.go", result.LostChanges)
}

func TestWorkspaceRemoveNotFound(t *testing.T) {
	git := newFakeGit("main")
	manager := newTestWorkspaceManager(t, git)

	_, err := manager.Remove("ghost")

	assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
}

func TestWorkspaceListOrderedAndCurrent(t *testing.T) {
	git := newFakeGit("main")
	manager := newTestWorkspaceManager(t, git)

	_, err := manager.Create("one", "main")
	require.NoError(t, err)
	_, err = manager.Create("two", "main")
	require.NoError(t, err)

	workspaces, err := manager.List()
	require.NoError(t, err)
	require.Len(t, workspaces, 2)
	names := []string{workspaces[0].Name, workspaces[1].Name}
	assert.ElementsMatch(t, []string{"one", "two"}, names)
	for _, ws := range workspaces {
		assert.Equal(t, "main", ws.BaseBranch)
		assert.False(t, ws.Current)
	}
}

func TestWorkspaceWhich(t *testing.T) {
	git := newFakeGit("main")
	manager := newTestWorkspaceManager(t, git)

	name, ok := manager.Which(filepath.Join(manager.WorktreeDir(), "feat--login", "src"))
	assert.True(t, ok)
	assert.Equal(t, "feat/login", name)

	_, ok = manager.Which(manager.RepoPath())
	assert.False(t, ok)

	_, ok = manager.Which(manager.WorktreeDir())
	assert.False(t, ok)
}

func TestPromoteCleanBranch(t *testing.T) {
	git := newFakeGit("main", "wip-parser")
	git.current = "wip-parser"
	manager := newTestWorkspaceManager(t, git)

	migration, err := manager.CreateFromCurrentBranch("main")

	require.NoError(t, err)
	assert.Equal(t, "wip-parser", migration.Branch)
	assert.False(t, migration.StashSaved)
	assert.Equal(t, "main", git.current, "origin checkout must end on the base branch")
	require.NotNil(t, migration.Workspace)
	assert.Equal(t, "wip-parser", migration.Workspace.Branch)
}

func TestPromoteDirtyBranchRestoresStash(t *testing.T) {
	git := newFakeGit("main", "wip-parser")
	git.current = "wip-parser"
	git.dirty = true
	manager := newTestWorkspaceManager(t, git)

	migration, err := manager.CreateFromCurrentBranch("main")

	require.NoError(t, err)
	assert.True(t, migration.StashSaved)
	assert.True(t, migration.StashRestored)
	assert.True(t, git.stashDropped, "stash is dropped only after a successful apply")
}

func TestPromoteFromBaseBranchFails(t *testing.T) {
	git := newFakeGit("main")
	git.current = "main"
	manager := newTestWorkspaceManager(t, git)

	_, err := manager.CreateFromCurrentBranch("main")

	assert.ErrorIs(t, err, domain.ErrOnBaseBranch)
}

func TestPromoteStashSurvivesApplyFailure(t *testing.T) {
	git := newFakeGit("main", "wip-parser")
	git.current = "wip-parser"
	git.dirty = true
	git.applyErr = assert.AnError
	manager := newTestWorkspaceManager(t, git)

	migration, err := manager.CreateFromCurrentBranch("main")

	require.Error(t, err)
	assert.Equal(t, StepRestoreStash, migration.FailedStep)
	assert.True(t, migration.StashSaved)
	assert.False(t, migration.StashRestored)
	assert.False(t, git.stashDropped, "a stash that was never applied must never be dropped")
	assert.Contains(t, err.Error(), "git stash pop")
}

func TestPromoteStashSurvivesCheckoutFailure(t *testing.T) {
	git := newFakeGit("main", "wip-parser")
	git.current = "wip-parser"
	git.dirty = true
	git.checkoutErr = assert.AnError
	manager := newTestWorkspaceManager(t, git)

	migration, err := manager.CreateFromCurrentBranch("main")

	require.Error(t, err)
	assert.Equal(t, StepCheckoutBase, migration.FailedStep)
	assert.False(t, git.stashDropped)
}

func TestWorkspaceEnv(t *testing.T) {
	ws := &domain.Workspace{Branch: "feat/login", Name: "feat/login", Path: "/trees/feat--login"}

	env := Env(ws)

	assert.Equal(t, "1", env["CANOPY_ACTIVE"])
	assert.Equal(t, "feat/login", env["CANOPY_WORKSPACE"])
	assert.Equal(t, "feat/login", env["CANOPY_BRANCH"])
	assert.Equal(t, "/trees/feat--login", env["CANOPY_PATH"])
}

func TestWorkspaceAllStopsEarly(t *testing.T) {
	git := newFakeGit("main")
	manager := newTestWorkspaceManager(t, git)

	_, err := manager.Create("one", "main")
	require.NoError(t, err)
	_, err = manager.Create("two", "main")
	require.NoError(t, err)

	var seen int
	for _, err := range manager.All() {
		require.NoError(t, err)
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}
