package ports

import "context"

// AgentSpec describes one agent invocation: the command to run, the
// prompt fed to it on stdin, the workspace directory to run in and the
// workspace environment to expose.
type AgentSpec struct {
	Command string
	Dir     string
	Env     map[string]string
	Prompt  string
}

// AgentRunner executes an agent command to completion inside a
// workspace. Run blocks until the process exits and returns a non-nil
// error on non-zero exit.
type AgentRunner interface {
	Run(ctx context.Context, spec AgentSpec) error
}
