package domain

import (
	"strings"
	"time"
)

// Workspace is an isolated working directory bound to exactly one branch.
// The directory is a linked git worktree under the configured worktree
// directory; the branch carries the actual work and outlives the directory.
type Workspace struct {
	BaseBranch string
	Branch     string
	CreatedAt  time.Time
	Current    bool
	Name       string
	Path       string
}

// SanitizeName converts a workspace name to a filesystem-safe directory
// name. Branch names may contain slashes (feature/auth); directories may
// not, so slashes become a double dash. Names containing a literal "--"
// are rejected at creation time to keep the mapping invertible.
func SanitizeName(name string) string {
	return strings.ReplaceAll(name, "/", "--")
}

// UnsanitizeName converts a directory name back to the workspace name.
func UnsanitizeName(dir string) string {
	return strings.ReplaceAll(dir, "--", "/")
}
