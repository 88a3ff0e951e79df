package cli

import (
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	flags := &launchFlags{}

	cmd := &cobra.Command{
		Use:   "run <cmd> [args...]",
		Short: "launch an ephemeral container running cmd",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEphemeral(flags, args[0], args[1:])
		},
	}
	flags.register(cmd, false)
	return cmd
}
