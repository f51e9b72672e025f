package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"canopy/internal/domain"
)

// batchFile is the on-disk YAML schema for a batch run.
type batchFile struct {
	BaseBranch    string          `yaml:"base_branch"`
	Cleanup       string          `yaml:"cleanup"`
	MergeStrategy string          `yaml:"merge_strategy"`
	Tasks         []batchFileTask `yaml:"tasks"`
	WorktreeDir   string          `yaml:"worktree_dir"`
}

type batchFileTask struct {
	Agent  string `yaml:"agent"`
	ID     string `yaml:"id"`
	Prompt string `yaml:"prompt"`
}

// LoadBatch parses and validates a batch task file into a BatchRun.
// All validation failures map to domain.ErrInvalidConfig so the
// orchestrator can refuse the run before touching any workspace.
func LoadBatch(path string) (*domain.BatchRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %v", domain.ErrInvalidConfig, path, err)
	}

	var file batchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: cannot parse %s: %v", domain.ErrInvalidConfig, path, err)
	}

	if file.BaseBranch == "" {
		return nil, fmt.Errorf("%w: base_branch is required", domain.ErrInvalidConfig)
	}
	if len(file.Tasks) == 0 {
		return nil, fmt.Errorf("%w: no tasks defined", domain.ErrInvalidConfig)
	}

	if file.MergeStrategy == "" {
		file.MergeStrategy = string(domain.MergeSquash)
	}
	strategy, err := domain.ParseMergeStrategy(file.MergeStrategy)
	if err != nil {
		return nil, err
	}

	if file.Cleanup == "" {
		file.Cleanup = string(domain.CleanupAuto)
	}
	cleanup, err := domain.ParseCleanupPolicy(file.Cleanup)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(file.Tasks))
	tasks := make([]domain.Task, 0, len(file.Tasks))
	for _, t := range file.Tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: task missing required field: id", domain.ErrInvalidConfig)
		}
		if t.Prompt == "" {
			return nil, fmt.Errorf("%w: task %q missing required field: prompt", domain.ErrInvalidConfig, t.ID)
		}
		if t.Agent == "" {
			return nil, fmt.Errorf("%w: task %q missing required field: agent", domain.ErrInvalidConfig, t.ID)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("%w: duplicate task id %q", domain.ErrInvalidConfig, t.ID)
		}
		seen[t.ID] = true
		tasks = append(tasks, domain.Task{
			Agent:  t.Agent,
			ID:     t.ID,
			Prompt: t.Prompt,
			Status: domain.TaskPending,
		})
	}

	return &domain.BatchRun{
		BaseBranch:    file.BaseBranch,
		Cleanup:       cleanup,
		ID:            uuid.New().String(),
		MergeStrategy: strategy,
		Tasks:         tasks,
		WorktreeDir:   file.WorktreeDir,
	}, nil
}
