package cmd

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"canopy/internal/logging"
)

// CLI represents the command-line interface structure
type CLI struct {
	Version     kong.VersionFlag `help:"Show version information"`
	Debug       bool             `help:"Enable debug logging to file" short:"d"`
	DebugFile   string           `help:"Custom path for debug log file (disables automatic cleanup)"`
	MaxLogFiles int              `help:"Maximum number of log files to keep (0 = unlimited)" default:"1000"`

	New     NewCmd     `cmd:"new" help:"Create a workspace (or promote the current branch into one)"`
	Rm      RmCmd      `cmd:"rm" help:"Remove a workspace, keeping its branch"`
	Ls      LsCmd      `cmd:"ls" help:"List workspaces"`
	Which   WhichCmd   `cmd:"which" help:"Print the workspace containing the current directory"`
	Enter   EnterCmd   `cmd:"enter" help:"Open a subshell inside a workspace"`
	Run     RunCmd     `cmd:"run" help:"Run a batch of agent tasks from a config file"`
	Session SessionCmd `cmd:"session" help:"Manage tmux session windows for workspaces"`
	Attach  AttachCmd  `cmd:"attach" help:"Attach to the canopy tmux session"`
	Watch   WatchCmd   `cmd:"watch" help:"Show the live workspace status dashboard"`
}

// AfterApply initializes logging after CLI parsing
func (c *CLI) AfterApply() error {
	logFilePath, err := logging.Initialize(c.Debug, c.DebugFile, c.MaxLogFiles)
	if err != nil {
		return err
	}

	// Export debug settings so child processes (agents, pane shells)
	// append to the same log file.
	if c.Debug || c.DebugFile != "" {
		os.Setenv("CANOPY_DEBUG", "1")
		if logFilePath != "" {
			os.Setenv("CANOPY_DEBUG_FILE", logFilePath)
		}
	}
	if c.MaxLogFiles != 1000 {
		os.Setenv("CANOPY_MAX_LOG_FILES", fmt.Sprintf("%d", c.MaxLogFiles))
	}

	return nil
}
