package tmux

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"canopy/internal/domain"
	"canopy/internal/logging"
	"canopy/internal/ports"
)

// Client drives the tmux CLI. Each method issues a single tmux command;
// tmux serializes commands itself, so every call is atomic at the port
// boundary and no additional locking is needed above it.
type Client struct{}

// Compile-time interface verification
var _ ports.Tmux = (*Client)(nil)

// NewClient creates a new tmux CLI adapter.
func NewClient() *Client {
	return &Client{}
}

func run(args ...string) (string, error) {
	cmd := exec.Command("tmux", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: tmux is not installed or not on PATH", domain.ErrPortUnavailable)
		}
		return string(output), fmt.Errorf("tmux %s: %w\nOutput: %s", args[0], err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// Available reports whether the tmux binary can be executed.
func (c *Client) Available() bool {
	_, err := run("-V")
	return err == nil
}

// InsideTmux reports whether the current process runs inside any tmux
// session.
func (c *Client) InsideTmux() bool {
	return os.Getenv("TMUX") != ""
}

// SessionExists checks if the session exists.
func (c *Client) SessionExists(session string) bool {
	_, err := run("has-session", "-t", session)
	return err == nil
}

// EnsureSession creates the session if it does not exist. The session is
// created detached with a window named status at index 0, which hosts
// the liveness dashboard when watch mode is enabled.
func (c *Client) EnsureSession(session, startDir string) error {
	if c.SessionExists(session) {
		return nil
	}

	logging.Logger.Info("Creating tmux session", "session", session, "start_dir", startDir)
	args := []string{"new-session", "-d", "-s", session, "-n", "status"}
	if startDir != "" {
		args = append(args, "-c", startDir)
	}
	if _, err := run(args...); err != nil {
		return fmt.Errorf("failed to create session %s: %w", session, err)
	}
	return nil
}

// Attach attaches the terminal to the session, blocking until detach.
func (c *Client) Attach(session string) error {
	return attach(session)
}

// NewWindow creates a window and returns its index.
func (c *Client) NewWindow(session, name, startDir string) (int, error) {
	args := []string{"new-window", "-t", session, "-n", name, "-P", "-F", "#{window_index}"}
	if startDir != "" {
		args = append(args, "-c", startDir)
	}
	output, err := run(args...)
	if err != nil {
		return 0, fmt.Errorf("failed to create window %s: %w", name, err)
	}

	index, err := strconv.Atoi(strings.TrimSpace(output))
	if err != nil {
		return 0, fmt.Errorf("failed to parse window index %q: %w", strings.TrimSpace(output), err)
	}
	return index, nil
}

// KillWindow destroys the window at index. The session and its other
// windows are untouched.
func (c *Client) KillWindow(session string, index int) error {
	_, err := run("kill-window", "-t", fmt.Sprintf("%s:%d", session, index))
	return err
}

// SelectWindow makes the window at index the active one.
func (c *Client) SelectWindow(session string, index int) error {
	_, err := run("select-window", "-t", fmt.Sprintf("%s:%d", session, index))
	return err
}

// CurrentWindow returns the active window index when running inside
// tmux. The second return is false outside tmux.
func (c *Client) CurrentWindow() (int, bool) {
	if !c.InsideTmux() {
		return 0, false
	}
	output, err := run("display-message", "-p", "#{window_index}")
	if err != nil {
		return 0, false
	}
	index, err := strconv.Atoi(strings.TrimSpace(output))
	if err != nil {
		return 0, false
	}
	return index, true
}

// ListWindows returns the session's windows ordered by index.
func (c *Client) ListWindows(session string) ([]ports.Window, error) {
	output, err := run("list-windows", "-t", session, "-F",
		"#{window_index}|#{window_name}|#{window_panes}|#{window_active}")
	if err != nil {
		return nil, err
	}
	return parseWindowList(output), nil
}

// parseWindowList parses the pipe-delimited list-windows format.
func parseWindowList(output string) []ports.Window {
	var windows []ports.Window
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		parts := strings.Split(line, "|")
		if len(parts) != 4 {
			continue
		}
		index, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		panes, err := strconv.Atoi(parts[2])
		if err != nil {
			continue
		}
		windows = append(windows, ports.Window{
			Active: parts[3] == "1",
			Index:  index,
			Name:   parts[1],
			Panes:  panes,
		})
	}
	return windows
}

// SplitPanes splits a fresh single-pane window into count panes.
// Two panes: agent left, terminal right. Three panes: agent top-left,
// terminal bottom-left, editor right.
func (c *Client) SplitPanes(session string, window, count int, startDir string) error {
	target := fmt.Sprintf("%s:%d", session, window)

	if _, err := run("split-window", "-h", "-t", target, "-c", startDir); err != nil {
		return fmt.Errorf("failed to split window: %w", err)
	}
	if count >= 3 {
		if err := c.SelectPane(session, window, 0); err != nil {
			return err
		}
		if _, err := run("split-window", "-v", "-t", target, "-c", startDir); err != nil {
			return fmt.Errorf("failed to split window: %w", err)
		}
	}
	return nil
}

// SelectPane focuses one pane of a window.
func (c *Client) SelectPane(session string, window, pane int) error {
	_, err := run("select-pane", "-t", fmt.Sprintf("%s:%d.%d", session, window, pane))
	return err
}

// RunInPane starts a command in a pane by sending it to the pane's
// shell, prefixed with the given environment.
func (c *Client) RunInPane(session string, window, pane int, command string, env map[string]string) error {
	target := fmt.Sprintf("%s:%d.%d", session, window, pane)

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s ", k, shellQuote(env[k]))
	}
	b.WriteString(command)

	logging.Logger.Debug("Running command in pane", "target", target, "command", command)
	_, err := run("send-keys", "-t", target, b.String(), "Enter")
	return err
}

// shellQuote single-quotes a value for the pane's shell. Unlike double
// quotes, single quotes keep $, backticks and backslashes literal.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ListPanes returns the panes of a window ordered by index.
func (c *Client) ListPanes(session string, window int) ([]ports.Pane, error) {
	output, err := run("list-panes", "-t", fmt.Sprintf("%s:%d", session, window), "-F",
		"#{pane_index}|#{pane_pid}|#{pane_current_command}")
	if err != nil {
		return nil, err
	}

	var panes []ports.Pane
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		parts := strings.Split(line, "|")
		if len(parts) != 3 {
			continue
		}
		index, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		pid, _ := strconv.Atoi(parts[1])
		panes = append(panes, ports.Pane{Command: parts[2], Index: index, PID: pid})
	}
	return panes, nil
}

// ForegroundProcess returns the current foreground process name of a
// pane, as tmux reports it.
func (c *Client) ForegroundProcess(session string, window, pane int) (string, error) {
	output, err := run("display-message", "-t",
		fmt.Sprintf("%s:%d.%d", session, window, pane), "-p", "#{pane_current_command}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}
