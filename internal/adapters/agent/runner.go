package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"canopy/internal/domain"
	"canopy/internal/logging"
	"canopy/internal/ports"
)

// Runner executes agent commands through the shell so config values like
// "aider --yes" work unmodified. The prompt is fed on stdin.
type Runner struct{}

// Compile-time interface verification
var _ ports.AgentRunner = (*Runner)(nil)

// NewRunner creates a new agent process runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run starts the agent in its workspace and blocks until it exits.
func (r *Runner) Run(ctx context.Context, spec ports.AgentSpec) error {
	logging.Logger.Info("Starting agent process", "command", spec.Command, "dir", spec.Dir)

	cmd := exec.CommandContext(ctx, "sh", "-c", spec.Command)
	cmd.Dir = spec.Dir
	cmd.Stdin = strings.NewReader(spec.Prompt)

	env := os.Environ()
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: shell not found", domain.ErrPortUnavailable)
		}
		return fmt.Errorf("agent %q exited: %w", spec.Command, err)
	}

	logging.Logger.Info("Agent process finished", "command", spec.Command, "dir", spec.Dir)
	return nil
}
