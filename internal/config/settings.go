package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"canopy/internal/logging"
)

// Settings is the merged canopy configuration. Resolution precedence is
// explicit flag > per-repo .canopy.toml > global ~/.canopy/config.toml >
// built-in default; flags are applied by the command layer, this package
// only merges the two files over the defaults.
type Settings struct {
	Session     SessionSettings `toml:"session"`
	SessionName string          `toml:"session_name"`
	Watch       WatchSettings   `toml:"watch"`
	WorktreeDir string          `toml:"worktree_dir"`
}

// SessionSettings configures the window layout of session mode.
type SessionSettings struct {
	AgentCmd  string `toml:"agent_cmd"`
	EditorCmd string `toml:"editor_cmd"`
	Panes     int    `toml:"panes"`
}

// WatchSettings configures the liveness dashboard.
type WatchSettings struct {
	// AutoWindow creates the status window on the first session add
	// instead of requiring session watch or the --watch flag.
	AutoWindow      bool `toml:"auto_window"`
	IntervalSeconds int  `toml:"interval_seconds"`
}

// Defaults returns the built-in configuration.
func Defaults() Settings {
	return Settings{
		Session: SessionSettings{
			AgentCmd:  "claude",
			EditorCmd: "nvim",
			Panes:     2,
		},
		SessionName: "canopy",
		Watch: WatchSettings{
			IntervalSeconds: 2,
		},
		WorktreeDir: "../canopy-trees",
	}
}

// Load merges the global and per-repo config files over the defaults.
// Missing or unparseable files are skipped; configuration is best-effort
// and never blocks a command.
func Load(repoPath string) Settings {
	settings := Defaults()

	if home, err := os.UserHomeDir(); err == nil {
		mergeFile(&settings, filepath.Join(home, ".canopy", "config.toml"))
	}
	if repoPath != "" {
		mergeFile(&settings, filepath.Join(repoPath, ".canopy.toml"))
	}

	return settings
}

func mergeFile(settings *Settings, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if _, err := toml.DecodeFile(path, settings); err != nil {
		logging.Logger.Warn("Ignoring unparseable config file", "path", path, "error", err)
	}
}

// EffectivePanes resolves the pane count: a non-zero flag override wins,
// then the merged config value, clamped to the supported 2..3 range.
func (s Settings) EffectivePanes(flagOverride int) int {
	panes := s.Session.Panes
	if flagOverride != 0 {
		panes = flagOverride
	}
	if panes < 2 {
		return 2
	}
	if panes > 3 {
		return 3
	}
	return panes
}

// HomeDir returns the canopy state directory, creating it if needed.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".canopy")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// DBPath returns the session entry database location.
func DBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "canopy.db"
	}
	return filepath.Join(home, ".canopy", "canopy.db")
}
