package services

import (
	"context"
	"fmt"
	"os"
	"sync"

	"canopy/internal/domain"
	"canopy/internal/ports"
)

// fakeGit is an in-memory ports.Git. Branch and worktree state mutate
// the way the real adapter would, so the services can be exercised
// without a repository on disk.
type fakeGit struct {
	mu sync.Mutex

	branches      map[string]bool
	bases         map[string]string
	current       string
	dirty         bool
	dirtySummary  string
	worktrees     []ports.WorktreeInfo
	stashed       bool
	stashDropped  bool
	ignored       []string
	propagated    []string
	merged        []string
	mergeConflict map[string]bool

	createErr   error
	checkoutErr error
	stashErr    error
	applyErr    error
	mergeErr    error
}

func newFakeGit(branches ...string) *fakeGit {
	g := &fakeGit{
		bases:         map[string]string{},
		branches:      map[string]bool{},
		mergeConflict: map[string]bool{},
	}
	for _, b := range branches {
		g.branches[b] = true
	}
	return g
}

func (g *fakeGit) RepoRoot(path string) (string, error)     { return path, nil }
func (g *fakeGit) MainRepoRoot(path string) (string, error) { return path, nil }
func (g *fakeGit) CurrentBranch(string) (string, error)     { return g.current, nil }
func (g *fakeGit) BranchExists(_, branch string) bool       { return g.branches[branch] }
func (g *fakeGit) IsDirty(string) (bool, error)             { return g.dirty, nil }
func (g *fakeGit) DirtySummary(string) (string, error)      { return g.dirtySummary, nil }

func (g *fakeGit) CreateWorktree(_, worktreePath, branch, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return g.createErr
	}
	if err := os.MkdirAll(worktreePath, 0755); err != nil {
		return err
	}
	g.branches[branch] = true
	g.worktrees = append(g.worktrees, ports.WorktreeInfo{Branch: branch, Path: worktreePath})
	return nil
}

func (g *fakeGit) RemoveWorktree(_, worktreePath string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, wt := range g.worktrees {
		if wt.Path == worktreePath {
			g.worktrees = append(g.worktrees[:i], g.worktrees[i+1:]...)
			return os.RemoveAll(worktreePath)
		}
	}
	return fmt.Errorf("no worktree at %s", worktreePath)
}

func (g *fakeGit) PruneWorktrees(string) error { return nil }

func (g *fakeGit) ListWorktrees(string) ([]ports.WorktreeInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ports.WorktreeInfo, len(g.worktrees))
	copy(out, g.worktrees)
	return out, nil
}

func (g *fakeGit) SetUpstream(string) error { return nil }

func (g *fakeGit) RecordBase(_, branch, base string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bases[branch] = base
	return nil
}

func (g *fakeGit) BaseOf(_, branch string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bases[branch]
}

func (g *fakeGit) Stash(string) error {
	if g.stashErr != nil {
		return g.stashErr
	}
	g.stashed = true
	g.dirty = false
	return nil
}

func (g *fakeGit) StashApply(string) error { return g.applyErr }

func (g *fakeGit) StashDrop(string) error {
	g.stashDropped = true
	g.stashed = false
	return nil
}

func (g *fakeGit) Checkout(_, branch string) error {
	if g.checkoutErr != nil {
		return g.checkoutErr
	}
	g.current = branch
	return nil
}

func (g *fakeGit) Merge(_, branch, into string, _ domain.MergeStrategy) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mergeConflict[branch] {
		return fmt.Errorf("%w: merging %s into %s", domain.ErrMergeConflict, branch, into)
	}
	if g.mergeErr != nil {
		return g.mergeErr
	}
	g.merged = append(g.merged, branch)
	return nil
}

func (g *fakeGit) PropagateCopyList(_, worktreePath string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.propagated = append(g.propagated, worktreePath)
	return nil
}

func (g *fakeGit) EnsureIgnored(_, pattern string) error {
	g.ignored = append(g.ignored, pattern)
	return nil
}

// fakeAgent records every run and fails runs whose prompt is in failFor.
type fakeAgent struct {
	mu      sync.Mutex
	runs    []ports.AgentSpec
	failFor map[string]bool
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{failFor: map[string]bool{}}
}

func (a *fakeAgent) Run(_ context.Context, spec ports.AgentSpec) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runs = append(a.runs, spec)
	if a.failFor[spec.Prompt] {
		return fmt.Errorf("agent exited with status 1")
	}
	return nil
}

// fakeTmux is an in-memory ports.Tmux tracking windows and pane
// commands per window index.
type fakeTmux struct {
	available  bool
	inside     bool
	sessions   map[string]bool
	nextWindow int
	windows    map[int]*fakeWindow
	attached   int
	selected   int
	current    int
	hasCurrent bool
}

type fakeWindow struct {
	name     string
	panes    int
	commands map[int]string
}

func newFakeTmux() *fakeTmux {
	return &fakeTmux{
		available:  true,
		nextWindow: 1,
		sessions:   map[string]bool{},
		windows:    map[int]*fakeWindow{},
	}
}

func (t *fakeTmux) Available() bool  { return t.available }
func (t *fakeTmux) InsideTmux() bool { return t.inside }

func (t *fakeTmux) EnsureSession(session, _ string) error {
	t.sessions[session] = true
	return nil
}

func (t *fakeTmux) SessionExists(session string) bool { return t.sessions[session] }

func (t *fakeTmux) Attach(string) error {
	t.attached++
	return nil
}

func (t *fakeTmux) NewWindow(_, name, _ string) (int, error) {
	idx := t.nextWindow
	t.nextWindow++
	t.windows[idx] = &fakeWindow{commands: map[int]string{}, name: name, panes: 1}
	return idx, nil
}

func (t *fakeTmux) KillWindow(_ string, index int) error {
	delete(t.windows, index)
	return nil
}

func (t *fakeTmux) SelectWindow(_ string, index int) error {
	t.selected = index
	return nil
}

func (t *fakeTmux) CurrentWindow() (int, bool) { return t.current, t.hasCurrent }

func (t *fakeTmux) ListWindows(string) ([]ports.Window, error) {
	var out []ports.Window
	for idx, w := range t.windows {
		out = append(out, ports.Window{Index: idx, Name: w.name, Panes: w.panes})
	}
	return out, nil
}

func (t *fakeTmux) SplitPanes(_ string, window, count int, _ string) error {
	if w, ok := t.windows[window]; ok {
		w.panes = count
	}
	return nil
}

func (t *fakeTmux) SelectPane(string, int, int) error { return nil }

func (t *fakeTmux) RunInPane(_ string, window, pane int, command string, _ map[string]string) error {
	if w, ok := t.windows[window]; ok {
		w.commands[pane] = command
	}
	return nil
}

func (t *fakeTmux) ListPanes(_ string, window int) ([]ports.Pane, error) {
	w, ok := t.windows[window]
	if !ok {
		return nil, fmt.Errorf("window %d not found", window)
	}
	var out []ports.Pane
	for i := 0; i < w.panes; i++ {
		out = append(out, ports.Pane{Command: w.commands[i], Index: i})
	}
	return out, nil
}

func (t *fakeTmux) ForegroundProcess(_ string, window, pane int) (string, error) {
	w, ok := t.windows[window]
	if !ok {
		return "", fmt.Errorf("window %d not found", window)
	}
	if cmd, ok := w.commands[pane]; ok && cmd != "" {
		return cmd, nil
	}
	return "zsh", nil
}

// fakeStore is an in-memory ports.EntryStore.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]domain.SessionEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string]domain.SessionEntry{}}
}

func (s *fakeStore) Add(_ context.Context, entry domain.SessionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.WorkspaceName]; ok {
		return fmt.Errorf("%w: %s", domain.ErrEntryExists, entry.WorkspaceName)
	}
	s.entries[entry.WorkspaceName] = entry
	return nil
}

func (s *fakeStore) Get(_ context.Context, workspaceName string) (*domain.SessionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[workspaceName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrEntryNotFound, workspaceName)
	}
	return &entry, nil
}

func (s *fakeStore) List(context.Context) ([]domain.SessionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SessionEntry
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	return out, nil
}

func (s *fakeStore) Remove(_ context.Context, workspaceName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[workspaceName]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, workspaceName)
	}
	delete(s.entries, workspaceName)
	return nil
}

func (s *fakeStore) Close() error { return nil }
