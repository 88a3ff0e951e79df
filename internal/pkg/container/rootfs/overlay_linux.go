package rootfs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/docker/go-units"
	"golang.org/x/sys/unix"

	"github.com/unfaded/kakuri/internal/pkg/sylog"
)

// writableDirs are the host directories users commonly write into;
// ephemeral containers get an overlay (or tmpfs fallback) for each,
// persistent containers bind-mount a subset of them from their files/
// tree instead.
var writableDirs = []string{"/tmp", "/var/tmp", "/home", "/root", "/opt"}

// ephemeralTmpfsSize bounds the /tmp fallback tmpfs when overlay creation
// fails, generous enough for typical build/scratch usage without
// letting one container exhaust host memory via tmpfs.
var ephemeralTmpfsSize = 100 * units.MiB

// setupEphemeralOverlays creates an overlayfs (lowerdir=host,
// upperdir/workdir=dataDir) for each writable directory. Overlay mounts
// are expected to fail in unprivileged mode; /tmp then falls back to
// tmpfs, and the rest are silently skipped.
func setupEphemeralOverlays(root, dataDir string) {
	for _, dir := range writableDirs {
		target := filepath.Join(root, dir)
		upper := filepath.Join(dataDir, "files", dir)
		work := filepath.Join(dataDir, "work", dir)

		ensureDir(target)
		ensureDir(upper)
		ensureDir(work)

		opts := fmt.Sprintf("lowerdir=%s,upperdir=%s,workdir=%s", dir, upper, work)
		if err := unix.Mount("overlay", target, "overlay", 0, opts); err == nil {
			sylog.Verbosef("created writable overlay for %s -> %s", dir, upper)
			continue
		}

		if dir != "/tmp" {
			sylog.Debugf("overlay unavailable for %s, skipping (expected in unprivileged mode)", dir)
			continue
		}

		if err := unix.Mount("tmpfs", target, "tmpfs", 0, fmt.Sprintf("size=%d", ephemeralTmpfsSize)); err != nil {
			sylog.Warningf("failed to create writable space for %s: %s", dir, err)
			continue
		}
		sylog.Verbosef("created tmpfs for %s", dir)
	}
}

// setupPersistentHome bind-mounts the registry's files/home and
// files/root directories onto the assembled root, so files created
// under /home or /root persist directly to disk instead of through
// overlay semantics that would vanish with the container's tmpfs root.
func setupPersistentHome(root, filesDir string) {
	persistentHome := filepath.Join(filesDir, "home")
	ensureDir(persistentHome)
	ensureDir(filepath.Join(persistentHome, "user"))
	for _, d := range []string{"Desktop", "Documents", "Downloads", "Pictures", "Videos", "Music"} {
		ensureDir(filepath.Join(persistentHome, "user", d))
	}

	homeTarget := filepath.Join(root, "home")
	ensureDir(homeTarget)
	if err := bindMount(persistentHome, homeTarget); err != nil {
		sylog.Warningf("failed to mount persistent home: %s", err)
	} else {
		sylog.Verbosef("mounted persistent home: %s -> %s", persistentHome, homeTarget)
	}

	persistentRoot := filepath.Join(filesDir, "root")
	ensureDir(persistentRoot)
	rootTarget := filepath.Join(root, "root")
	ensureDir(rootTarget)
	if err := bindMount(persistentRoot, rootTarget); err != nil {
		sylog.Warningf("failed to mount persistent root: %s", err)
	} else {
		sylog.Verbosef("mounted persistent root: %s -> %s", persistentRoot, rootTarget)
	}
}

// ensureContainerDataDirs makes sure the directory layout backing
// ephemeral overlays exists before mounting into it.
func ensureContainerDataDirs(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	return nil
}
