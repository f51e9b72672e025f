package cmd

import (
	"fmt"
	"os"

	adapteragent "canopy/internal/adapters/agent"
	adaptergit "canopy/internal/adapters/git"
	adapterstorage "canopy/internal/adapters/storage"
	adaptertmux "canopy/internal/adapters/tmux"
	"canopy/internal/config"
	"canopy/internal/ports"
	"canopy/internal/services"
)

// Container holds all dependencies for the application
type Container struct {
	Batch      *services.BatchOrchestrator
	Monitor    *services.StatusMonitor
	Sessions   *services.SessionManager
	Settings   config.Settings
	Workspaces *services.WorkspaceManager

	Git  ports.Git
	Tmux ports.Tmux

	// Internal - for cleanup only
	store ports.EntryStore
}

// NewContainer creates a Container with all dependencies wired. The repo
// is discovered from the working directory; commands that do not need a
// repository should not build a container.
func NewContainer() (*Container, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	git := adaptergit.NewClient()
	repoPath, err := git.MainRepoRoot(cwd)
	if err != nil {
		return nil, fmt.Errorf("not inside a git repository: %w", err)
	}

	settings := config.Load(repoPath)
	workspaces := services.NewWorkspaceManager(git, repoPath, settings.WorktreeDir)

	store, err := adapterstorage.NewSQLiteStore(config.DBPath())
	if err != nil {
		return nil, err
	}

	tmux := adaptertmux.NewClient()

	return &Container{
		Batch:      services.NewBatchOrchestrator(workspaces, git, adapteragent.NewRunner()),
		Git:        git,
		Monitor:    services.NewStatusMonitor(tmux, store, settings),
		Sessions:   services.NewSessionManager(workspaces, tmux, store, settings),
		Settings:   settings,
		Tmux:       tmux,
		Workspaces: workspaces,
		store:      store,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
