package ports

// Window is one window of the canopy tmux session.
type Window struct {
	Active bool
	Index  int
	Name   string
	Panes  int
}

// Pane is one pane of a window. Command is the pane's current foreground
// process name as reported by the multiplexer.
type Pane struct {
	Command string
	Index   int
	PID     int
}

// Tmux is the multiplexer port. Every method maps to a single tmux
// command invocation, so each call is atomic at the port boundary and a
// failed call leaves no partial window or pane behind.
type Tmux interface {
	Available() bool
	InsideTmux() bool

	EnsureSession(session, startDir string) error
	SessionExists(session string) bool
	Attach(session string) error

	NewWindow(session, name, startDir string) (int, error)
	KillWindow(session string, index int) error
	SelectWindow(session string, index int) error
	CurrentWindow() (int, bool)
	ListWindows(session string) ([]Window, error)

	SplitPanes(session string, window, count int, startDir string) error
	SelectPane(session string, window, pane int) error
	RunInPane(session string, window, pane int, command string, env map[string]string) error
	ListPanes(session string, window int) ([]Pane, error)
	ForegroundProcess(session string, window, pane int) (string, error)
}
