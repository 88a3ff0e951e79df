// Package testutil provides test skip-guards for kernel features tests
// depend on, grounded on
// internal/pkg/test/tool/require/require.go's UserNamespace/Network
// helpers.
package testutil

import (
	"os/exec"
	"runtime"
	"sync"
	"syscall"
	"testing"
)

var (
	hasUserNamespace     bool
	hasUserNamespaceOnce sync.Once
)

// RequireUserNamespace skips the current test when the kernel or its
// current configuration does not allow creating a user namespace, which
// sandboxed CI runners commonly disallow.
func RequireUserNamespace(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("user namespaces require linux")
	}

	hasUserNamespaceOnce.Do(func() {
		cmd := exec.Command("/bin/true")
		cmd.SysProcAttr = &syscall.SysProcAttr{
			Cloneflags: syscall.CLONE_NEWUSER,
		}
		hasUserNamespace = cmd.Run() == nil
	})

	if !hasUserNamespace {
		t.Skip("user namespaces not available in this environment")
	}
}

var (
	hasMountNamespace     bool
	hasMountNamespaceOnce sync.Once
)

// RequireMountNamespace skips the current test when CLONE_NEWNS is
// unavailable, needed by any test exercising the rootfs assembler.
func RequireMountNamespace(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("mount namespaces require linux")
	}

	hasMountNamespaceOnce.Do(func() {
		cmd := exec.Command("/bin/true")
		cmd.SysProcAttr = &syscall.SysProcAttr{
			Cloneflags: syscall.CLONE_NEWUSER | syscall.CLONE_NEWNS,
		}
		hasMountNamespace = cmd.Run() == nil
	})

	if !hasMountNamespace {
		t.Skip("mount namespaces not available in this environment")
	}
}
