package rootfs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/unfaded/kakuri/internal/pkg/registry"
	"github.com/unfaded/kakuri/internal/pkg/sylog"
)

// applyBindMounts expands "~", materialises missing sources when
// requested, and bind-mounts each user-requested path. Unlike every
// other mount in the assembler, failure here is fatal: a bind the user
// explicitly asked for silently not being there would be surprising
// and hard to debug.
func applyBindMounts(root string, mounts []registry.BindMount) error {
	for _, m := range mounts {
		if err := applyBindMount(root, m); err != nil {
			return err
		}
	}
	return nil
}

func applyBindMount(root string, m registry.BindMount) error {
	hostPath := m.HostPath
	if hostPath == "~" || strings.HasPrefix(hostPath, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			return errors.New("HOME environment variable not set")
		}
		hostPath = strings.Replace(hostPath, "~", home, 1)
	}

	if m.CreateIfMissing {
		if _, err := os.Stat(hostPath); err != nil {
			if err := materialise(hostPath); err != nil {
				return errors.Wrapf(err, "failed to create host path %s", hostPath)
			}
		}
	} else if _, err := os.Stat(hostPath); err != nil {
		return errors.Wrapf(err, "bind mount source does not exist: %s", hostPath)
	}

	containerPath := m.ContainerPath()
	target := filepath.Join(root, containerPath)

	info, err := os.Stat(hostPath)
	if err != nil {
		return errors.Wrapf(err, "failed to stat bind mount source %s", hostPath)
	}

	ensureDir(parentDir(target))
	if info.IsDir() {
		ensureDir(target)
	} else {
		ensureFile(target)
	}

	if err := bindMount(hostPath, target); err != nil {
		return errors.Wrapf(err, "failed to bind mount %s to %s", hostPath, containerPath)
	}
	sylog.Verbosef("bind mounted: %s -> %s", hostPath, containerPath)
	return nil
}

// materialise creates hostPath as a directory (trailing "/" or no file
// extension) or an empty file, guessing the intended kind from the path
// shape since the caller only said "create this if it's missing".
func materialise(hostPath string) error {
	if err := os.MkdirAll(parentDir(hostPath), 0o755); err != nil {
		return err
	}

	if strings.HasSuffix(hostPath, "/") || filepath.Ext(hostPath) == "" {
		return os.MkdirAll(hostPath, 0o755)
	}

	f, err := os.OpenFile(hostPath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
