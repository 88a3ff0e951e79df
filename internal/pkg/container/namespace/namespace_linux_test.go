package namespace

import (
	"os"
	"os/exec"
	"syscall"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/unfaded/kakuri/internal/pkg/testutil"
)

// TestSetupHelperProcess is re-executed in a fresh user namespace to
// exercise Setup without affecting the test binary's own namespaces. It
// is a no-op unless the sentinel env var is set, following the same
// pattern as rootfs's ordering invariant test.
func TestSetupHelperProcess(t *testing.T) {
	if os.Getenv("KAKURI_NAMESPACE_HELPER") != "1" {
		return
	}
	defer os.Exit(0)

	allowNetwork := os.Getenv("KAKURI_NAMESPACE_ALLOW_NET") == "1"
	if err := Setup(Options{AllowNetwork: allowNetwork}); err != nil {
		os.Exit(1)
	}
	if err := SetHostname("kakuri-test"); err != nil {
		os.Exit(1)
	}
}

func TestSetupCreatesNamespacesWithoutError(t *testing.T) {
	testutil.RequireUserNamespace(t)
	testutil.RequireMountNamespace(t)

	cmd := exec.Command(os.Args[0], "-test.run=TestSetupHelperProcess")
	cmd.Env = append(os.Environ(), "KAKURI_NAMESPACE_HELPER=1")
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: syscall.CLONE_NEWUSER | syscall.CLONE_NEWPID,
		UidMappings: []syscall.SysProcIDMap{
			{ContainerID: 0, HostID: syscall.Getuid(), Size: 1},
		},
		GidMappings: []syscall.SysProcIDMap{
			{ContainerID: 0, HostID: syscall.Getgid(), Size: 1},
		},
	}

	assert.NilError(t, cmd.Run())
}

func TestNetworkSetupHookDefaultsToNoop(t *testing.T) {
	assert.NilError(t, NetworkSetup())
}
