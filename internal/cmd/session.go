package cmd

// SessionCmd manages session windows
type SessionCmd struct {
	Add   SessionAddCmd   `cmd:"add" help:"Create a window (and workspace if needed) for a workspace"`
	Del   SessionDelCmd   `cmd:"del" aliases:"rm" help:"Remove a workspace's window, keeping the workspace"`
	Enter SessionEnterCmd `cmd:"enter" help:"Focus a workspace's window"`
	List  SessionListCmd  `cmd:"list" aliases:"ls" help:"List session windows with liveness" default:"1"`
	Watch SessionWatchCmd `cmd:"watch" help:"Start the status dashboard in the session's status window"`
}
