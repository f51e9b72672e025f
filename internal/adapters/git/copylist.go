package git

import (
	"os"
	"path/filepath"
	"strings"

	"canopy/internal/logging"
)

// copyListMarker opens the copy-list section of .gitignore. Every
// following non-comment, non-blank line names a path to symlink from the
// origin checkout into each new workspace, until the next comment or
// blank line ends the section.
const copyListMarker = "# canopy copy"

// parseCopyList extracts the copy-list paths from .gitignore content.
func parseCopyList(content string) []string {
	var paths []string
	inSection := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == copyListMarker {
			inSection = true
			continue
		}
		if inSection {
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				break
			}
			paths = append(paths, trimmed)
		}
	}

	return paths
}

// PropagateCopyList symlinks every copy-list path from the origin
// checkout into the worktree. Missing sources are skipped; links are
// best-effort so a bad entry never fails workspace creation.
func (c *Client) PropagateCopyList(repoPath, worktreePath string) error {
	content, err := os.ReadFile(filepath.Join(repoPath, ".gitignore"))
	if err != nil {
		return nil // no .gitignore, nothing to propagate
	}

	for _, rel := range parseCopyList(string(content)) {
		src := filepath.Join(repoPath, rel)
		dst := filepath.Join(worktreePath, rel)

		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			logging.Logger.Warn("Failed to create copy-list parent directory", "path", dst, "error", err)
			continue
		}
		if err := os.Symlink(src, dst); err != nil && !os.IsExist(err) {
			logging.Logger.Warn("Failed to symlink copy-list entry", "source", src, "dest", dst, "error", err)
		}
	}

	return nil
}

// EnsureIgnored appends pattern to the origin checkout's .gitignore
// unless an identical line is already present.
func (c *Client) EnsureIgnored(repoPath, pattern string) error {
	c.ignoreMu.Lock()
	defer c.ignoreMu.Unlock()

	gitignorePath := filepath.Join(repoPath, ".gitignore")

	if content, err := os.ReadFile(gitignorePath); err == nil {
		for _, line := range strings.Split(string(content), "\n") {
			if strings.TrimSpace(line) == pattern {
				return nil
			}
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(pattern + "\n")
	return err
}
