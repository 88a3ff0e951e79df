package cli

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/unfaded/kakuri/internal/pkg/config"
	"github.com/unfaded/kakuri/internal/pkg/launch"
	"github.com/unfaded/kakuri/internal/pkg/manager"
	"github.com/unfaded/kakuri/internal/pkg/sylog"
)

var debug bool

// Execute builds the cobra command tree and runs it. Direct-execution
// mode (no recognised subcommand) is handled by cobra's Args/RunE
// fallback on the root command itself, so "kakuri bash" works without
// a verb the way a shell alias would expect.
func Execute() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		if exitErr, ok := asExitError(err); ok {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

func asExitError(err error) (*launch.ExitError, bool) {
	for err != nil {
		if e, ok := err.(*launch.ExitError); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

func newRootCommand() *cobra.Command {
	flags := &launchFlags{}

	root := &cobra.Command{
		Use:           "kakuri [flags] -- command [args...]",
		Short:         "unprivileged Linux container launcher",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				sylog.SetLevel(5)
			}
			if len(args) == 0 {
				return cmd.Help()
			}
			return runEphemeral(flags, args[0], args[1:])
		},
	}

	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug-level logging")
	flags.register(root, false)

	root.AddCommand(
		newRunCommand(),
		newCreateCommand(),
		newStartCommand(),
		newExecCommand(),
		newShellCommand(),
		newListCommand(),
		newStopCommand(),
		newRemoveCommand(),
	)
	return root
}

// runEphemeral is the shared body of direct-execution mode and `run`: it
// never touches the registry, launching a throwaway container cleaned up
// on exit so one-off commands don't leave a named entry behind.
func runEphemeral(flags *launchFlags, command string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	containersDir, err := cfg.ContainersDir()
	if err != nil {
		return err
	}

	binds, err := flags.resolveBindMounts(cfg)
	if err != nil {
		return err
	}

	self, err := os.Executable()
	if err != nil {
		return err
	}

	return launch.Launch(self, launch.Options{
		Command:      command,
		Args:         args,
		AllowNetwork: flags.AllowNetwork,
		User:         flags.User,
		Binds:        binds,
		RegistryDir:  containersDir,
	})
}

func openManager() (*manager.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	containersDir, err := cfg.ContainersDir()
	if err != nil {
		return nil, err
	}
	return manager.Open(containersDir)
}
