package rootfs

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"testing"

	"github.com/moby/sys/mountinfo"
	"golang.org/x/sys/unix"
	"gotest.tools/v3/assert"

	"github.com/unfaded/kakuri/internal/pkg/testutil"
)

// TestHelperProcess is not a real test: it is re-executed as a standalone
// process (via os.Args[0]) inside a fresh user+mount namespace, following
// the same fork/exec-self pattern exercise in os/exec's own tests. It
// exits immediately when the sentinel env var is unset, so running the
// normal test suite never runs its body.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("KAKURI_ORDERING_HELPER") != "1" {
		return
	}
	defer os.Exit(0)

	target := os.Getenv("KAKURI_ORDERING_TARGET")
	if os.Getenv("KAKURI_ORDERING_SKIP_PRIVATIZE") != "1" {
		if err := privatizePropagation(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	if err := unix.Mount("tmpfs", target, "tmpfs", 0, ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func spawnOrderingHelper(t *testing.T, target string, skipPrivatize bool) {
	t.Helper()

	cmd := exec.Command(os.Args[0], "-test.run=TestHelperProcess")
	env := append(os.Environ(),
		"KAKURI_ORDERING_HELPER=1",
		"KAKURI_ORDERING_TARGET="+target,
	)
	if skipPrivatize {
		env = append(env, "KAKURI_ORDERING_SKIP_PRIVATIZE=1")
	}
	cmd.Env = env
	cmd.Stderr = os.Stderr

	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: syscall.CLONE_NEWUSER | syscall.CLONE_NEWNS,
		UidMappings: []syscall.SysProcIDMap{
			{ContainerID: 0, HostID: syscall.Getuid(), Size: 1},
		},
		GidMappings: []syscall.SysProcIDMap{
			{ContainerID: 0, HostID: syscall.Getgid(), Size: 1},
		},
	}

	assert.NilError(t, cmd.Run())
}

func isMountedOnHost(t *testing.T, target string) bool {
	t.Helper()
	filter := func(m *mountinfo.Info) (skip, stop bool) {
		return m.Mountpoint != target, false
	}
	mounts, err := mountinfo.GetMounts(filter)
	assert.NilError(t, err)
	return len(mounts) > 0
}

// TestOrderingInvariantPrivateDoesNotLeak exercises the happy path: when
// the child privatizes propagation before mounting, the mount neither
// propagates to the host while the child runs nor survives the child's
// namespace teardown.
func TestOrderingInvariantPrivateDoesNotLeak(t *testing.T) {
	testutil.RequireUserNamespace(t)
	testutil.RequireMountNamespace(t)

	target := t.TempDir()
	spawnOrderingHelper(t, target, false)

	assert.Assert(t, !isMountedOnHost(t, target),
		"privatized mount leaked to the host after the child exited")
}

// TestOrderingInvariantSkippingPrivatizeLeaks demonstrates the bug the
// invariant guards against: a child that mounts before privatizing
// propagation leaks that mount back to the host mount namespace even
// after the child process is gone.
func TestOrderingInvariantSkippingPrivatizeLeaks(t *testing.T) {
	testutil.RequireUserNamespace(t)
	testutil.RequireMountNamespace(t)

	target := t.TempDir()
	spawnOrderingHelper(t, target, true)

	leaked := isMountedOnHost(t, target)
	if leaked {
		_ = unix.Unmount(target, 0)
	}
	assert.Assert(t, leaked,
		"expected omitting privatizePropagation to leak the mount to the host")
}
