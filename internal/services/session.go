package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"canopy/internal/config"
	"canopy/internal/domain"
	"canopy/internal/logging"
	"canopy/internal/ports"
)

// SessionManager binds workspaces to windows of a shared tmux session.
// tmux owns the windows; the entry store owns which workspace each
// window belongs to, so bindings survive across CLI invocations.
type SessionManager struct {
	settings   config.Settings
	store      ports.EntryStore
	tmux       ports.Tmux
	workspaces *WorkspaceManager
}

// NewSessionManager creates a SessionManager for the configured session.
func NewSessionManager(workspaces *WorkspaceManager, tmux ports.Tmux, store ports.EntryStore, settings config.Settings) *SessionManager {
	return &SessionManager{
		settings:   settings,
		store:      store,
		tmux:       tmux,
		workspaces: workspaces,
	}
}

// SessionName returns the tmux session all workspace windows live in.
func (s *SessionManager) SessionName() string { return s.settings.SessionName }

func (s *SessionManager) requireTmux() error {
	if !s.tmux.Available() {
		return fmt.Errorf("%w: tmux not found in PATH (install tmux to use session mode)", domain.ErrPortUnavailable)
	}
	return nil
}

// Add binds a workspace to a new window: the workspace is created from
// baseBranch when it does not exist yet, the window is split into the
// configured pane layout, and the agent and editor commands are started
// in their panes. paneOverride of zero means use the configured count.
func (s *SessionManager) Add(ctx context.Context, name, baseBranch string, paneOverride int) (*domain.SessionEntry, error) {
	if err := s.requireTmux(); err != nil {
		return nil, err
	}

	if existing, err := s.store.Get(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: workspace %q already has window %d (use 'canopy session enter %s')",
			domain.ErrEntryExists, name, existing.WindowIndex, name)
	} else if !errors.Is(err, domain.ErrEntryNotFound) {
		return nil, err
	}

	workspace, err := s.ensureWorkspace(name, baseBranch)
	if err != nil {
		return nil, err
	}

	if err := s.tmux.EnsureSession(s.settings.SessionName, s.workspaces.RepoPath()); err != nil {
		return nil, err
	}

	panes := s.settings.EffectivePanes(paneOverride)
	window, err := s.tmux.NewWindow(s.settings.SessionName, name, workspace.Path)
	if err != nil {
		return nil, err
	}
	if err := s.tmux.SplitPanes(s.settings.SessionName, window, panes, workspace.Path); err != nil {
		// A half-split window is worse than no window.
		s.tmux.KillWindow(s.settings.SessionName, window)
		return nil, err
	}

	env := Env(workspace)
	for pane, role := range domain.PaneRoles(panes) {
		var command string
		switch role {
		case domain.RoleAgent:
			command = s.settings.Session.AgentCmd
		case domain.RoleEditor:
			command = s.settings.Session.EditorCmd
		case domain.RoleTerminal:
			// The pane shell already sits in the workspace dir.
			continue
		}
		if command == "" {
			continue
		}
		if err := s.tmux.RunInPane(s.settings.SessionName, window, pane, command, env); err != nil {
			logging.Logger.Warn("Failed to start pane command",
				"workspace", name, "pane", pane, "role", role, "error", err)
		}
	}
	s.tmux.SelectPane(s.settings.SessionName, window, 0)

	entry := domain.SessionEntry{
		CreatedAt:     time.Now(),
		PaneCount:     panes,
		WindowIndex:   window,
		WorkspaceName: name,
	}
	if err := s.store.Add(ctx, entry); err != nil {
		s.tmux.KillWindow(s.settings.SessionName, window)
		return nil, err
	}

	logging.Logger.Info("Session entry added", "workspace", name, "window", window, "panes", panes)
	return &entry, nil
}

// ensureWorkspace returns the named workspace, creating it when missing.
func (s *SessionManager) ensureWorkspace(name, baseBranch string) (*domain.Workspace, error) {
	for ws, err := range s.workspaces.All() {
		if err != nil {
			return nil, err
		}
		if ws.Name == name {
			return &ws, nil
		}
	}

	workspace, err := s.workspaces.Create(name, baseBranch)
	if err != nil {
		return nil, err
	}
	return workspace, nil
}

// StartWatch launches the liveness dashboard in the status window that
// EnsureSession reserves at index zero.
func (s *SessionManager) StartWatch() error {
	if err := s.requireTmux(); err != nil {
		return err
	}
	if err := s.tmux.EnsureSession(s.settings.SessionName, s.workspaces.RepoPath()); err != nil {
		return err
	}
	return s.tmux.RunInPane(s.settings.SessionName, 0, 0, "canopy watch", nil)
}

// Remove destroys a workspace's window and its store entry. The
// workspace directory and branch are untouched.
func (s *SessionManager) Remove(ctx context.Context, name string) error {
	entry, err := s.store.Get(ctx, name)
	if err != nil {
		return err
	}

	if s.tmux.SessionExists(s.settings.SessionName) {
		if err := s.tmux.KillWindow(s.settings.SessionName, entry.WindowIndex); err != nil {
			logging.Logger.Warn("Failed to kill window", "workspace", name, "window", entry.WindowIndex, "error", err)
		}
	}

	if err := s.store.Remove(ctx, name); err != nil {
		return err
	}
	logging.Logger.Info("Session entry removed", "workspace", name, "window", entry.WindowIndex)
	return nil
}

// SessionRow is one line of the session listing: the stored entry plus
// its live pane status, nil when the window is gone or unreadable.
type SessionRow struct {
	Entry  domain.SessionEntry
	Status *domain.PaneStatus
}

// List returns all session entries joined with their current liveness,
// flagging the entry whose window is currently focused.
func (s *SessionManager) List(ctx context.Context, monitor *StatusMonitor) ([]SessionRow, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	current, inSession := s.tmux.CurrentWindow()
	rows := make([]SessionRow, 0, len(entries))
	for _, entry := range entries {
		entry.Current = inSession && entry.WindowIndex == current
		row := SessionRow{Entry: entry}
		if monitor != nil {
			if status, err := monitor.Observe(entry); err == nil {
				row.Status = status
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Enter focuses a workspace's window: inside the session it selects the
// window, outside it attaches to the session with the window selected.
func (s *SessionManager) Enter(ctx context.Context, name string) error {
	if err := s.requireTmux(); err != nil {
		return err
	}

	entry, err := s.store.Get(ctx, name)
	if err != nil {
		return err
	}
	if !s.tmux.SessionExists(s.settings.SessionName) {
		return fmt.Errorf("%w: session %q is gone (re-add the workspace with 'canopy session add %s')",
			domain.ErrEntryNotFound, s.settings.SessionName, name)
	}

	if err := s.tmux.SelectWindow(s.settings.SessionName, entry.WindowIndex); err != nil {
		return err
	}
	if s.tmux.InsideTmux() {
		return nil
	}
	return s.tmux.Attach(s.settings.SessionName)
}

// Attach attaches to the canopy session without changing the focused
// window.
func (s *SessionManager) Attach() error {
	if err := s.requireTmux(); err != nil {
		return err
	}
	if !s.tmux.SessionExists(s.settings.SessionName) {
		return fmt.Errorf("%w: session %q has no windows yet (run 'canopy session add' first)",
			domain.ErrEntryNotFound, s.settings.SessionName)
	}
	if s.tmux.InsideTmux() {
		return fmt.Errorf("already inside tmux; use 'canopy session enter <workspace>' to switch windows")
	}
	return s.tmux.Attach(s.settings.SessionName)
}
