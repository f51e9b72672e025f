package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

// SessionListCmd lists session windows
type SessionListCmd struct{}

// Run executes the session list command
func (s *SessionListCmd) Run(cli *CLI) error {
	container, err := NewContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	rows, err := container.Sessions.List(context.Background(), container.Monitor)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No session windows. Add one with 'canopy session add <name>'.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, " \tWORKSPACE\tWINDOW\tPANES\tSTATE\tCOMMAND")
	for _, row := range rows {
		marker := " "
		if row.Entry.Current {
			marker = "*"
		}
		state, command := "?", ""
		if row.Status != nil {
			state = string(row.Status.State)
			command = row.Status.Command
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			marker, row.Entry.WorkspaceName, row.Entry.WindowIndex, row.Entry.PaneCount, state, command)
	}
	return w.Flush()
}
