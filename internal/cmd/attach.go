package cmd

// AttachCmd attaches to the canopy tmux session
type AttachCmd struct{}

// Run executes the attach command
func (a *AttachCmd) Run(cli *CLI) error {
	container, err := NewContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	return container.Sessions.Attach()
}
