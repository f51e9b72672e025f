package services

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"canopy/internal/config"
	"canopy/internal/domain"
	"canopy/internal/ports"
)

// shellCommands are foreground process names treated as "nothing is
// running": the agent exited and left the pane at its shell prompt.
var shellCommands = map[string]bool{
	"ash":  true,
	"bash": true,
	"dash": true,
	"fish": true,
	"ksh":  true,
	"sh":   true,
	"tcsh": true,
	"zsh":  true,
}

// StatusMonitor computes point-in-time liveness for session workspaces
// by sampling the foreground process of each agent pane. Nothing is
// persisted; every observation is recomputed from tmux.
type StatusMonitor struct {
	settings config.Settings
	store    ports.EntryStore
	tmux     ports.Tmux
}

// NewStatusMonitor creates a StatusMonitor over the given session state.
func NewStatusMonitor(tmux ports.Tmux, store ports.EntryStore, settings config.Settings) *StatusMonitor {
	return &StatusMonitor{
		settings: settings,
		store:    store,
		tmux:     tmux,
	}
}

// Classify maps a pane's foreground process name to a liveness state.
// A shell means idle; the configured agent command, or anything else the
// agent may have spawned, means active. Unknown processes lean active so
// a busy agent is never reported idle.
func (m *StatusMonitor) Classify(command string) domain.PaneState {
	name := filepath.Base(strings.TrimSpace(command))
	if name == "" || shellCommands[name] {
		return domain.PaneIdle
	}
	return domain.PaneActive
}

// Observe samples the agent pane of one session entry.
func (m *StatusMonitor) Observe(entry domain.SessionEntry) (*domain.PaneStatus, error) {
	command, err := m.tmux.ForegroundProcess(m.settings.SessionName, entry.WindowIndex, 0)
	if err != nil {
		return nil, err
	}
	return &domain.PaneStatus{
		Command:       command,
		ObservedAt:    time.Now(),
		State:         m.Classify(command),
		WorkspaceName: entry.WorkspaceName,
	}, nil
}

// Snapshot samples every session entry. Entries whose window is gone are
// skipped rather than failing the whole snapshot.
func (m *StatusMonitor) Snapshot(ctx context.Context) ([]domain.PaneStatus, error) {
	entries, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]domain.PaneStatus, 0, len(entries))
	for _, entry := range entries {
		status, err := m.Observe(entry)
		if err != nil {
			continue
		}
		statuses = append(statuses, *status)
	}
	return statuses, nil
}

// Interval returns the configured polling interval.
func (m *StatusMonitor) Interval() time.Duration {
	seconds := m.settings.Watch.IntervalSeconds
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds) * time.Second
}

// Run polls until ctx is cancelled, delivering each snapshot to the
// callback. The first snapshot is taken immediately.
func (m *StatusMonitor) Run(ctx context.Context, deliver func([]domain.PaneStatus)) error {
	ticker := time.NewTicker(m.Interval())
	defer ticker.Stop()

	for {
		if statuses, err := m.Snapshot(ctx); err == nil {
			deliver(statuses)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
