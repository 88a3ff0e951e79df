// Package launch implements the parent-side orchestrator: it re-executes
// the current binary into a fresh user and PID namespace, waits for the
// child, and performs best-effort cleanup on exit.
package launch

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/unfaded/kakuri/internal/pkg/registry"
	"github.com/unfaded/kakuri/internal/pkg/sylog"
)

// InitSentinel is the hidden argument that routes re-executed invocations
// to ChildMain instead of the general CLI parser. It must be recognised
// before cobra, or any other general-purpose flag parser, ever sees
// argv, since the child's own command and arguments follow it verbatim.
const InitSentinel = "--internal-container-init"

// Options describes one launch request, independent of whether it is
// ephemeral or bound to a persistent container record.
type Options struct {
	Command string
	Args    []string

	AllowNetwork bool
	User         bool
	Binds        []registry.BindMount

	// ContainerID is the full-id of a persistent container, empty for
	// ephemeral launches.
	ContainerID string
	// ContainerName is used for shell prompts and the welcome banner.
	ContainerName string

	// RegistryDir is containers_dir, needed by the child to locate a
	// persistent container's rootfs/files trees.
	RegistryDir string
}

// Launch re-execs the current binary under a new user (and PID)
// namespace, waits for it, and returns the child's error, if any. It
// never itself becomes the container process: that happens inside the
// re-executed child, which this process only waits on.
func Launch(selfPath string, opts Options) error {
	launchID := uuid.NewString()
	sylog.SetLaunchID(launchID)

	pid := os.Getpid()
	ephemeralDir := fmt.Sprintf("/tmp/container_%d", pid)
	defer cleanup(ephemeralDir)

	argv := buildChildArgv(selfPath, opts)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "KAKURI_LAUNCH_ID="+launchID)

	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: syscall.CLONE_NEWUSER | syscall.CLONE_NEWPID,
	}
	cmd.SysProcAttr.UidMappings, cmd.SysProcAttr.GidMappings = idMaps(opts.User)

	sylog.Debugf("re-executing %s under new user/pid namespace", selfPath)
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start container child")
	}

	err := cmd.Wait()
	purgeErr := purgeTemporary(opts.RegistryDir)
	if purgeErr != nil {
		sylog.Warningf("failed to purge temporary registry state: %s", purgeErr)
	}

	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			return &ExitError{Code: status.ExitStatus()}
		}
	}
	return errors.Wrap(err, "container child failed")
}

// ExitError carries the child's exit status through to the top-level CLI
// dispatcher so it can set the process exit code without re-printing a
// redundant error.
type ExitError struct{ Code int }

func (e *ExitError) Error() string { return fmt.Sprintf("container exited with status %d", e.Code) }

// idMaps selects between root-map and dual-map strategies: every
// launch maps the caller to root inside the namespace so it can
// fabricate /etc entries and chroot, and --user additionally maps a
// second, unprivileged id for the process to drop to before exec.
func idMaps(user bool) ([]syscall.SysProcIDMap, []syscall.SysProcIDMap) {
	uid := syscall.Getuid()
	gid := syscall.Getgid()

	uidMap := []syscall.SysProcIDMap{{ContainerID: 0, HostID: uid, Size: 1}}
	gidMap := []syscall.SysProcIDMap{{ContainerID: 0, HostID: gid, Size: 1}}

	if user {
		uidMap = append(uidMap, syscall.SysProcIDMap{ContainerID: 1000, HostID: 100000, Size: 1})
		gidMap = append(gidMap, syscall.SysProcIDMap{ContainerID: 1000, HostID: 100000, Size: 1})
	}
	return uidMap, gidMap
}

// buildChildArgv assembles the re-exec argument envelope. The sentinel
// and command must come first: everything after it is opaque to any
// general-purpose parser.
func buildChildArgv(selfPath string, opts Options) []string {
	argv := []string{selfPath, InitSentinel, opts.Command}
	argv = append(argv, opts.Args...)

	if opts.AllowNetwork {
		argv = append(argv, "--allow-network")
	}
	if opts.User {
		argv = append(argv, "--user")
	}
	for _, b := range opts.Binds {
		spec := b.HostPath
		if b.ContainerPathOverride != "" {
			spec += ":" + b.ContainerPathOverride
		}
		argv = append(argv, "--bind", spec)
	}
	if opts.ContainerID != "" {
		argv = append(argv, "--container-id", opts.ContainerID)
	}
	if opts.ContainerName != "" {
		argv = append(argv, "--container-name", opts.ContainerName)
	}
	if opts.RegistryDir != "" {
		argv = append(argv, "--registry-dir", opts.RegistryDir)
	}
	return argv
}

func purgeTemporary(registryDir string) error {
	if registryDir == "" {
		return nil
	}
	reg, err := registry.Load(registryDir)
	if err != nil {
		return err
	}
	return reg.CleanupTemporary()
}

func cleanup(dir string) {
	if _, err := os.Stat(dir); err != nil {
		return
	}
	sylog.Debugf("removing ephemeral container directory %s", dir)
	os.RemoveAll(dir)
}
