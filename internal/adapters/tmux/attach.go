package tmux

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/creack/pty"

	"canopy/internal/logging"
)

// attach runs tmux attach-session under a pty, forwarding the terminal
// in both directions. Ctrl+Q (ASCII 17) detaches. TMUX variables are
// stripped from the child environment so attaching never nests sessions.
func attach(session string) error {
	cmd := exec.Command("tmux", "attach-session", "-t", session)

	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "TMUX=") || strings.HasPrefix(e, "TMUX_PANE=") {
			continue
		}
		env = append(env, e)
	}
	cmd.Env = env

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to attach to session %s: %w", session, err)
	}
	defer ptmx.Close()

	if size, err := pty.GetsizeFull(os.Stdin); err == nil {
		pty.Setsize(ptmx, size)
	}

	done := make(chan struct{})
	go func() {
		io.Copy(os.Stdout, ptmx)
		close(done)
	}()

	go func() {
		buf := make([]byte, 1024)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			for i := 0; i < n; i++ {
				if buf[i] == 17 { // Ctrl+Q
					logging.Logger.Info("Detaching from session", "session", session)
					ptmx.Close()
					return
				}
			}
			if _, err := ptmx.Write(buf[:n]); err != nil {
				return
			}
		}
	}()

	<-done
	cmd.Wait()
	return nil
}
