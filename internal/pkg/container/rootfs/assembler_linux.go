// Package rootfs constructs the container root filesystem: private
// propagation, the directory skeleton, bind mounts of the host binary and
// library surface, overlay or persistent writable regions, user-requested
// binds, and the final chroot.
package rootfs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/unfaded/kakuri/internal/pkg/registry"
	"github.com/unfaded/kakuri/internal/pkg/sylog"
)

// Options describes one filesystem assembly.
type Options struct {
	// Persistent selects registry-backed root/files directories instead
	// of a throwaway /tmp/container_<pid> tree.
	Persistent bool
	// RegistryBase is containers_dir, required when Persistent is set.
	RegistryBase string
	// FullID is the container's "{name}_{id}" key, required when
	// Persistent is set.
	FullID string
	// PID names the ephemeral root when Persistent is false.
	PID int
	// ResolvedCommand is the already-PATH-resolved command, used only
	// for the ldd dependency diagnostic.
	ResolvedCommand string
	// BindMounts are the user-requested mounts applied last.
	BindMounts []registry.BindMount
}

// Root returns the path the container root will be (or was) assembled
// at, without performing any filesystem operations.
func (o Options) Root() string {
	if o.Persistent {
		return filepath.Join(o.RegistryBase, o.FullID, "rootfs")
	}
	return fmt.Sprintf("/tmp/container_%d", o.PID)
}

// FilesDir returns the persistent files/ directory backing a persistent
// container's writable regions.
func (o Options) FilesDir() string {
	return filepath.Join(o.RegistryBase, o.FullID, "files")
}

// ephemeralDataDir returns the directory backing an ephemeral
// container's overlay upper/work trees. Scoping it by PID (rather than
// the original implementation's shared "temp" directory) avoids two
// concurrent ephemeral launches clobbering each other's overlay data.
func (o Options) ephemeralDataDir() string {
	return fmt.Sprintf("/tmp/container_%d_data", o.PID)
}

// Assemble builds up the container root one layer at a time, ending
// with chroot+chdir into the assembled root. The ordering is
// load-bearing: privatisation must precede all mounts so none of them
// leak to the host, skeleton creation must precede binds into it, and
// overlays must exist before the chroot.
func Assemble(opts Options) error {
	if err := privatizePropagation(); err != nil {
		return err
	}

	root := opts.Root()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create container root %s", root)
	}

	if !opts.Persistent {
		sylog.Debugf("mounting tmpfs container root at %s", root)
		if err := unix.Mount("tmpfs", root, "tmpfs", 0, ""); err != nil {
			return errors.Wrap(err, "failed to mount container tmpfs")
		}
	}

	createSkeleton(root)
	createEssentialFiles(root)
	createTerminfo(root)

	mountHostSurface(root)
	if opts.ResolvedCommand != "" {
		logDependencies(opts.ResolvedCommand)
	}

	if opts.Persistent {
		setupPersistentHome(root, opts.FilesDir())
	} else {
		dataDir := opts.ephemeralDataDir()
		if err := ensureContainerDataDirs(dataDir); err != nil {
			return errors.Wrap(err, "failed to create ephemeral overlay data directory")
		}
		setupEphemeralOverlays(root, dataDir)
	}

	if err := applyBindMounts(root, opts.BindMounts); err != nil {
		return err
	}

	if err := AssertPrivatePropagation(root); err != nil {
		sylog.Debugf("private propagation sanity check: %s", err)
	}

	sylog.Debugf("chroot into %s", root)
	if err := unix.Chroot(root); err != nil {
		return errors.Wrap(err, "failed to chroot")
	}
	if err := unix.Chdir("/"); err != nil {
		return errors.Wrap(err, "failed to chdir to /")
	}

	return nil
}

// privatizePropagation remounts / recursively with private propagation
// so that subsequent mounts and unmounts inside the child do not leak to
// the host mount namespace.
func privatizePropagation() error {
	if err := unix.Mount("none", "/", "", unix.MS_REC|unix.MS_PRIVATE, ""); err != nil {
		return errors.Wrap(err, "failed to make root private")
	}
	return nil
}
