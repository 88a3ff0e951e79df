// Package namespace creates the child-side namespaces that sit on top of
// the user and PID namespaces the launch orchestrator already
// established via re-exec.
package namespace

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/unfaded/kakuri/internal/pkg/sylog"
)

// NetworkSetup is a hook for network isolation beyond the plain
// unshare(CLONE_NEWNET) below, such as configuring a VPN interface
// inside the new network namespace before handing control to the
// container. It defaults to a no-op; nothing in kakuri implements VPN
// network setup today.
var NetworkSetup = func() error { return nil }

// Options controls which namespaces are created.
type Options struct {
	// AllowNetwork, when true, shares the host's network namespace
	// instead of creating a new one.
	AllowNetwork bool
}

// Setup creates the mount, UTS, and IPC namespaces unconditionally, and
// the network namespace unless AllowNetwork is set. No PID namespace is
// created here: the outer re-exec already placed the child in a fresh
// PID namespace via its clone flags, and unsharing a second, nested PID
// namespace here would break the child's view of its own PID 1 identity.
func Setup(opts Options) error {
	sylog.Debugf("creating mount namespace")
	if err := unix.Unshare(unix.CLONE_NEWNS); err != nil {
		return errors.Wrap(err, "failed to create mount namespace")
	}

	sylog.Debugf("creating UTS namespace")
	if err := unix.Unshare(unix.CLONE_NEWUTS); err != nil {
		return errors.Wrap(err, "failed to create UTS namespace")
	}

	sylog.Debugf("creating IPC namespace")
	if err := unix.Unshare(unix.CLONE_NEWIPC); err != nil {
		return errors.Wrap(err, "failed to create IPC namespace")
	}

	if opts.AllowNetwork {
		sylog.Verbosef("allow-network set, sharing host network namespace")
		return nil
	}

	sylog.Debugf("creating network namespace")
	if err := unix.Unshare(unix.CLONE_NEWNET); err != nil {
		return errors.Wrap(err, "failed to create network namespace")
	}
	if err := NetworkSetup(); err != nil {
		return errors.Wrap(err, "network setup hook failed")
	}
	return nil
}

// SetHostname sets the container's hostname inside its new UTS namespace.
func SetHostname(name string) error {
	if err := unix.Sethostname([]byte(name)); err != nil {
		return errors.Wrap(err, "failed to set hostname")
	}
	return nil
}
