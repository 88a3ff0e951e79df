package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/unfaded/kakuri/internal/pkg/config"
	"github.com/unfaded/kakuri/internal/pkg/registry"
)

func newCreateCommand() *cobra.Command {
	flags := &launchFlags{}

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "register a persistent container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			binds, err := flags.resolveBindMounts(cfg)
			if err != nil {
				return err
			}

			m, err := openManager()
			if err != nil {
				return err
			}
			info, err := m.Create(args[0], registry.ContainerConfig{
				AllowNetwork: flags.AllowNetwork,
				Init:         flags.Init,
				BindMounts:   binds,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created %s\n", info.FullID())
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start <name> [cmd] [args...]",
		Short: "start a persistent container, non-blocking",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager()
			if err != nil {
				return err
			}
			var command string
			var rest []string
			if len(args) > 1 {
				command, rest = args[1], args[2:]
			}
			info, err := m.Start(args[0], command, rest)
			if err != nil {
				return err
			}
			fmt.Printf("started %s\n", info.FullID())
			return nil
		},
	}
}

func newExecCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <name> <cmd> [args...]",
		Short: "run cmd inside an existing persistent container",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager()
			if err != nil {
				return err
			}
			return m.Exec(args[0], args[1], args[2:])
		},
	}
}

func newShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell <name>",
		Short: "open an interactive bash shell in a persistent container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager()
			if err != nil {
				return err
			}
			return m.Shell(args[0])
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list persistent containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager()
			if err != nil {
				return err
			}
			containers := m.List()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFULL-ID\tSTATUS\tCREATED")
			for _, c := range containers {
				created := units.HumanDuration(time.Since(time.Unix(c.CreatedAt, 0))) + " ago"
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, c.FullID(), statusColor(c.Status).Sprint(c.Status), created)
			}
			return w.Flush()
		},
	}
}

// statusColor picks the color a status is rendered in: green for a
// running container, yellow for one that's been created but never
// started or has since stopped, and the default for everything else.
func statusColor(status registry.Status) *color.Color {
	switch status {
	case registry.StatusRunning:
		return color.New(color.FgGreen)
	case registry.StatusCreated, registry.StatusStopped:
		return color.New(color.FgYellow)
	default:
		return color.New(color.Reset)
	}
}

func newStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <name>",
		Short: "mark a container as stopped without sending any signal to its process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager()
			if err != nil {
				return err
			}
			info, err := m.Stop(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("stopped %s\n", info.FullID())
			return nil
		},
	}
}

func newRemoveCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "delete a persistent container's registry entry and on-disk tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager()
			if err != nil {
				return err
			}
			return m.Remove(args[0], force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "remove even if the container has existing data")
	return cmd
}
