package exec

import (
	"os"
	"syscall"

	"github.com/pkg/errors"

	"github.com/unfaded/kakuri/internal/pkg/container/user"
	"github.com/unfaded/kakuri/internal/pkg/sylog"
)

// Options carries everything the final exec step needs, assembled by the
// orchestrator once the rootfs has been chrooted into.
type Options struct {
	// ResolvedCommand is the host-PATH-resolved absolute path. Argv[0]
	// remains the caller-supplied command name.
	ResolvedCommand string
	Argv0           string
	Args            []string

	// SwitchToUser requests dropping to the fabricated account before
	// exec.
	SwitchToUser bool
	UserName     string
	UID          int
	GID          int

	ContainerName string
	// ContainerID is the registry full-id of a persistent container
	// being exec'd or shelled into. It is empty for ephemeral
	// containers, which have no registry entry to name.
	ContainerID string
}

// Run performs the final child-side sequence: optional user switch,
// environment forwarding, interactive-shell special casing, then
// process-image replacement. It only returns on error, since a
// successful exec never returns control to the caller.
func Run(opts Options) error {
	if opts.SwitchToUser {
		if err := user.Switch(opts.UserName, opts.UID, opts.GID); err != nil {
			return errors.Wrap(err, "failed to switch user")
		}
	}

	if opts.ContainerID != "" {
		// Lets anything running inside an exec/shell session against a
		// persistent container (a prompt, a script, a sub-tool) identify
		// which container it's in without parsing it back out of argv or
		// the hostname.
		os.Setenv("KAKURI_CONTAINER_NAME", opts.ContainerName)
		os.Setenv("KAKURI_CONTAINER_ID", opts.ContainerID)
	}

	if IsInteractiveShell(opts.ResolvedCommand, opts.Args) {
		home := "/home/user"
		if opts.SwitchToUser {
			home = "/home/" + opts.UserName
		}
		if err := os.Chdir(home); err != nil {
			sylog.Debugf("could not chdir to %s: %s", home, err)
		}
		os.Setenv("HOME", home)
		PrepareInteractiveShell(opts.ContainerName, opts.ContainerID != "")
	}

	argv := append([]string{opts.Argv0}, opts.Args...)
	sylog.Debugf("exec: %s %v", opts.ResolvedCommand, argv)

	err := syscall.Exec(opts.ResolvedCommand, argv, os.Environ())
	return errors.Wrapf(err, "exec failed for %s", opts.ResolvedCommand)
}
