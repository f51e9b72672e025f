package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
)

// LsCmd lists workspaces
type LsCmd struct{}

// Run executes the ls command
func (l *LsCmd) Run(cli *CLI) error {
	container, err := NewContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	workspaces, err := container.Workspaces.List()
	if err != nil {
		return err
	}
	if len(workspaces) == 0 {
		fmt.Println("No workspaces. Create one with 'canopy new <name>'.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, " \tNAME\tBRANCH\tBASE\tPATH")
	for _, ws := range workspaces {
		marker := " "
		if ws.Current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", marker, ws.Name, ws.Branch, ws.BaseBranch, ws.Path)
	}
	return w.Flush()
}
