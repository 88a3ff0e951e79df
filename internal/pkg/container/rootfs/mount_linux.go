package rootfs

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/unfaded/kakuri/internal/pkg/sylog"
)

// bindMount performs a non-recursive bind mount of src onto dst. dst must
// already exist.
func bindMount(src, dst string) error {
	return unix.Mount(src, dst, "", unix.MS_BIND, "")
}

// bindMountRecursive performs a recursive bind mount, needed when src is
// itself a mountpoint tree (e.g. /usr).
func bindMountRecursive(src, dst string) error {
	return unix.Mount(src, dst, "", unix.MS_BIND|unix.MS_REC, "")
}

// remountReadOnly re-mounts an existing bind mount read-only in place.
func remountReadOnly(dst string) error {
	return unix.Mount("", dst, "", unix.MS_BIND|unix.MS_REMOUNT|unix.MS_RDONLY, "")
}

// ensureDir creates dir (and parents) if missing, best-effort.
func ensureDir(dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		sylog.Debugf("could not create %s: %s", dir, err)
	}
}

// ensureFile creates an empty regular file at path, best-effort.
func ensureFile(path string) {
	ensureDir(parentDir(path))
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		sylog.Debugf("could not create %s: %s", path, err)
		return
	}
	f.Close()
}

func parentDir(path string) string {
	i := len(path) - 1
	for i >= 0 && path[i] != '/' {
		i--
	}
	if i <= 0 {
		return "/"
	}
	return path[:i]
}

// bindHostDir bind-mounts host directory src onto dst, creating dst
// first, and optionally remounts it read-only. Failure is a warning,
// not a fatal error: a missing optional host surface shouldn't prevent
// the container from starting at all.
func bindHostDir(src, dst string, readOnly bool) {
	if _, err := os.Stat(src); err != nil {
		sylog.Debugf("skipping non-existent host directory: %s", src)
		return
	}

	ensureDir(dst)
	if err := bindMountRecursive(src, dst); err != nil {
		sylog.Warningf("failed to bind mount %s: %s", src, err)
		return
	}

	if !readOnly {
		sylog.Verbosef("mounted: %s", src)
		return
	}

	if err := remountReadOnly(dst); err != nil {
		sylog.Warningf("failed to remount %s read-only: %s", src, err)
		return
	}
	sylog.Verbosef("mounted read-only: %s", src)
}

// bindHostFile bind-mounts a single host file onto dst, creating an empty
// placeholder file first.
func bindHostFile(src, dst string) error {
	ensureDir(parentDir(dst))
	ensureFile(dst)
	if err := bindMount(src, dst); err != nil {
		return errors.Wrapf(err, "failed to bind mount file %s", src)
	}
	return nil
}
