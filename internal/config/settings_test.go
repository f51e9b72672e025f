package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	settings := Defaults()

	assert.Equal(t, "canopy", settings.SessionName)
	assert.Equal(t, "../canopy-trees", settings.WorktreeDir)
	assert.Equal(t, "claude", settings.Session.AgentCmd)
	assert.Equal(t, 2, settings.Session.Panes)
	assert.Equal(t, 2, settings.Watch.IntervalSeconds)
}

func TestLoadMergesRepoConfig(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, ".canopy.toml"), []byte(`
worktree_dir = "/tmp/trees"

[session]
agent_cmd = "aider"
panes = 3
`), 0644))

	settings := Load(repo)

	assert.Equal(t, "/tmp/trees", settings.WorktreeDir)
	assert.Equal(t, "aider", settings.Session.AgentCmd)
	assert.Equal(t, 3, settings.Session.Panes)
	// Untouched keys keep their defaults.
	assert.Equal(t, "canopy", settings.SessionName)
	assert.Equal(t, "nvim", settings.Session.EditorCmd)
}

func TestLoadIgnoresUnparseableConfig(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, ".canopy.toml"), []byte("not [valid toml"), 0644))

	settings := Load(repo)

	assert.Equal(t, Defaults().WorktreeDir, settings.WorktreeDir)
}

func TestEffectivePanes(t *testing.T) {
	settings := Defaults()

	assert.Equal(t, 2, settings.EffectivePanes(0), "zero override keeps the configured count")
	assert.Equal(t, 3, settings.EffectivePanes(3))
	assert.Equal(t, 2, settings.EffectivePanes(1), "counts below two clamp up")
	assert.Equal(t, 3, settings.EffectivePanes(7), "counts above three clamp down")

	settings.Session.Panes = 3
	assert.Equal(t, 3, settings.EffectivePanes(0))
}
