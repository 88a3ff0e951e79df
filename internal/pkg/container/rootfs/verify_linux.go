package rootfs

import (
	"github.com/moby/sys/mountinfo"
	"github.com/pkg/errors"
)

// AssertPrivatePropagation inspects /proc/self/mountinfo to confirm that
// path carries no "shared:" peer group, i.e. that privatizePropagation
// actually ran before any mount under path. Skipping the privatisation
// step lets a later unmount inside the child leak back to the host, so
// this doubles as the assembler's own sanity check and as an invariant
// tests can assert on directly.
func AssertPrivatePropagation(path string) error {
	filter := func(m *mountinfo.Info) (skip, stop bool) {
		return m.Mountpoint != path, false
	}

	mounts, err := mountinfo.GetMounts(filter)
	if err != nil {
		return errors.Wrap(err, "failed to read mountinfo")
	}
	if len(mounts) == 0 {
		// Not a mountpoint itself; its nearest ancestor mount's
		// propagation governs it, which is checked at the root.
		return nil
	}
	for _, m := range mounts {
		if containsSharedTag(m.Optional) {
			return errors.Errorf("%s still has shared propagation: %q", path, m.Optional)
		}
	}
	return nil
}

func containsSharedTag(optional string) bool {
	for i := 0; i+7 <= len(optional); i++ {
		if optional[i:i+7] == "shared:" {
			return true
		}
	}
	return false
}
