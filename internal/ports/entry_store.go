package ports

import (
	"context"

	"canopy/internal/domain"
)

// EntryStore persists the workspace-to-window bindings of the canopy
// session. tmux owns the windows themselves; the store owns which
// workspace each window belongs to, across CLI invocations.
type EntryStore interface {
	Add(ctx context.Context, entry domain.SessionEntry) error
	Get(ctx context.Context, workspaceName string) (*domain.SessionEntry, error)
	List(ctx context.Context) ([]domain.SessionEntry, error)
	Remove(ctx context.Context, workspaceName string) error
	Close() error
}
