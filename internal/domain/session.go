package domain

import "time"

// PaneRole identifies what runs in each pane of a workspace window.
// Pane 0 always runs the agent, the next pane is an interactive shell,
// and a third pane (when configured) runs the editor.
type PaneRole string

const (
	RoleAgent    PaneRole = "agent"
	RoleTerminal PaneRole = "terminal"
	RoleEditor   PaneRole = "editor"
)

// PaneRoles returns the ordered roles for a pane count of 2 or 3.
func PaneRoles(count int) []PaneRole {
	if count >= 3 {
		return []PaneRole{RoleAgent, RoleTerminal, RoleEditor}
	}
	return []PaneRole{RoleAgent, RoleTerminal}
}

// SessionEntry binds one workspace to one multiplexer window. The window
// index is stable for the entry's lifetime; removing the entry destroys
// only the window, never the workspace or its branch.
type SessionEntry struct {
	CreatedAt     time.Time
	Current       bool
	PaneCount     int
	WindowIndex   int
	WorkspaceName string
}

// PaneState is the liveness classification of a workspace's agent pane.
type PaneState string

const (
	PaneActive PaneState = "active"
	PaneIdle   PaneState = "idle"
)

// PaneStatus is a point-in-time liveness observation for one workspace.
// It is recomputed on every poll tick and never persisted.
type PaneStatus struct {
	Command       string
	ObservedAt    time.Time
	State         PaneState
	WorkspaceName string
}
