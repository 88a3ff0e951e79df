package launch

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/unfaded/kakuri/internal/pkg/container/exec"
	"github.com/unfaded/kakuri/internal/pkg/container/namespace"
	"github.com/unfaded/kakuri/internal/pkg/container/rootfs"
	"github.com/unfaded/kakuri/internal/pkg/container/user"
	"github.com/unfaded/kakuri/internal/pkg/registry"
	"github.com/unfaded/kakuri/internal/pkg/sylog"
)

// ChildArgs is the result of parsing the envelope buildChildArgv wrote,
// recovered without any general-purpose flag library: the command the
// caller wants to run inside the container follows the sentinel
// verbatim and must not be mistaken for kakuri's own flags by cobra.
type ChildArgs struct {
	Command       string
	Args          []string
	AllowNetwork  bool
	User          bool
	Binds         []registry.BindMount
	ContainerID   string
	ContainerName string
	RegistryDir   string
}

// ParseChildArgs parses argv[1:] of a re-executed invocation, argv[0]
// having already been confirmed to be InitSentinel by the caller.
func ParseChildArgs(argv []string) (ChildArgs, error) {
	if len(argv) == 0 {
		return ChildArgs{}, errors.New("missing command after " + InitSentinel)
	}

	var out ChildArgs
	out.Command = argv[0]
	rest := argv[1:]

	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--allow-network":
			out.AllowNetwork = true
		case "--user":
			out.User = true
		case "--bind":
			i++
			if i >= len(rest) {
				return ChildArgs{}, errors.New("--bind requires a value")
			}
			out.Binds = append(out.Binds, registry.ParseBindMount(rest[i]))
		case "--container-id":
			i++
			if i >= len(rest) {
				return ChildArgs{}, errors.New("--container-id requires a value")
			}
			out.ContainerID = rest[i]
		case "--container-name":
			i++
			if i >= len(rest) {
				return ChildArgs{}, errors.New("--container-name requires a value")
			}
			out.ContainerName = rest[i]
		case "--registry-dir":
			i++
			if i >= len(rest) {
				return ChildArgs{}, errors.New("--registry-dir requires a value")
			}
			out.RegistryDir = rest[i]
		default:
			out.Args = append(out.Args, rest[i])
		}
	}
	return out, nil
}

// ChildMain runs on the child side of the re-exec: it unshares the
// remaining namespaces, assembles the rootfs, fabricates or switches to
// the user account, and finally execs the requested command. It only
// returns on error.
func ChildMain(args ChildArgs) error {
	if err := namespace.Setup(namespace.Options{AllowNetwork: args.AllowNetwork}); err != nil {
		return err
	}
	if err := namespace.SetHostname("kakuri"); err != nil {
		sylog.Debugf("failed to set hostname: %s", err)
	}

	resolved, err := exec.Resolve(args.Command)
	if err != nil {
		return err
	}

	assembleOpts := rootfs.Options{
		Persistent:      args.ContainerID != "",
		RegistryBase:    args.RegistryDir,
		FullID:          args.ContainerID,
		PID:             os.Getpid(),
		ResolvedCommand: resolved,
		BindMounts:      args.Binds,
	}
	if err := rootfs.Assemble(assembleOpts); err != nil {
		return err
	}

	uid, gid := user.DefaultUID, user.DefaultGID
	if args.User {
		if args.ContainerID == "" {
			if err := user.Create("/", user.DefaultName, uid, gid); err != nil {
				return err
			}
		}
		// A persistent container's account is fabricated once, at
		// create time; every later start/exec/shell only switches into
		// the account that's already there.
	}

	name := args.ContainerName
	if name == "" {
		name = args.Command
	}

	return exec.Run(exec.Options{
		ResolvedCommand: resolved,
		Argv0:           argv0(args.Command),
		Args:            args.Args,
		SwitchToUser:    args.User,
		UserName:        user.DefaultName,
		UID:             uid,
		GID:             gid,
		ContainerName:   name,
		ContainerID:     args.ContainerID,
	})
}

func argv0(command string) string {
	if idx := strings.LastIndexByte(command, '/'); idx >= 0 {
		return command[idx+1:]
	}
	return command
}
