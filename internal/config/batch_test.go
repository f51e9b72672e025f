package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canopy/internal/domain"
)

func writeBatchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadBatch(t *testing.T) {
	path := writeBatchFile(t, `
base_branch: main
merge_strategy: rebase
cleanup: keep-on-error
tasks:
  - id: fix-auth
    agent: claude -p
    prompt: Fix the authentication bug
  - id: add-tests
    agent: claude -p
    prompt: Add tests for the parser
`)

	run, err := LoadBatch(path)

	require.NoError(t, err)
	assert.Equal(t, "main", run.BaseBranch)
	assert.Equal(t, domain.MergeRebase, run.MergeStrategy)
	assert.Equal(t, domain.CleanupKeepOnError, run.Cleanup)
	assert.NotEmpty(t, run.ID)
	require.Len(t, run.Tasks, 2)
	assert.Equal(t, "fix-auth", run.Tasks[0].ID)
	assert.Equal(t, "Fix the authentication bug", run.Tasks[0].Prompt)
	assert.Equal(t, domain.TaskPending, run.Tasks[0].Status)
}

func TestLoadBatchDefaults(t *testing.T) {
	path := writeBatchFile(t, `
base_branch: main
tasks:
  - id: a
    agent: claude
    prompt: do it
`)

	run, err := LoadBatch(path)

	require.NoError(t, err)
	assert.Equal(t, domain.MergeSquash, run.MergeStrategy)
	assert.Equal(t, domain.CleanupAuto, run.Cleanup)
}

func TestLoadBatchValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing base branch", "tasks:\n  - {id: a, agent: claude, prompt: p}\n"},
		{"no tasks", "base_branch: main\n"},
		{"missing id", "base_branch: main\ntasks:\n  - {agent: claude, prompt: p}\n"},
		{"missing prompt", "base_branch: main\ntasks:\n  - {id: a, agent: claude}\n"},
		{"missing agent", "base_branch: main\ntasks:\n  - {id: a, prompt: p}\n"},
		{"duplicate ids", "base_branch: main\ntasks:\n  - {id: a, agent: claude, prompt: p}\n  - {id: a, agent: claude, prompt: q}\n"},
		{"bad merge strategy", "base_branch: main\nmerge_strategy: yolo\ntasks:\n  - {id: a, agent: claude, prompt: p}\n"},
		{"bad cleanup", "base_branch: main\ncleanup: sometimes\ntasks:\n  - {id: a, agent: claude, prompt: p}\n"},
		{"unparseable yaml", "base_branch: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBatch(writeBatchFile(t, tt.content))
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestLoadBatchMissingFile(t *testing.T) {
	_, err := LoadBatch(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoadBatchUniqueRunIDs(t *testing.T) {
	path := writeBatchFile(t, "base_branch: main\ntasks:\n  - {id: a, agent: claude, prompt: p}\n")

	first, err := LoadBatch(path)
	require.NoError(t, err)
	second, err := LoadBatch(path)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}
