package manager

import (
	"os"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/unfaded/kakuri/internal/pkg/registry"
)

func stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	assert.NilError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	reg, err := registry.Load(dir)
	assert.NilError(t, err)
	return &Manager{Registry: reg, ContainersDir: dir, SelfPath: "/proc/self/exe"}
}

func TestCreateRejectsDuplicateNames(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Create("demo", registry.ContainerConfig{Command: "/bin/bash"})
	assert.NilError(t, err)

	_, err = m.Create("demo", registry.ContainerConfig{Command: "/bin/bash"})
	assert.ErrorContains(t, err, "already exists")
}

func TestCreateWritesDirectoryLayout(t *testing.T) {
	m := newTestManager(t)
	info, err := m.Create("demo", registry.ContainerConfig{Command: "/bin/bash"})
	assert.NilError(t, err)

	dir := m.Registry.ContainerDir(info.FullID())
	for _, sub := range []string{"rootfs", "logs", "files/home", "files/root", "config.json"} {
		_, statErr := stat(dir + "/" + sub)
		assert.NilError(t, statErr)
	}
}

func TestStopClearsPID(t *testing.T) {
	m := newTestManager(t)
	info, err := m.Create("demo", registry.ContainerConfig{Command: "/bin/bash"})
	assert.NilError(t, err)

	pid := 4242
	info.PID = &pid
	m.Registry.Update(info.FullID(), info)
	assert.NilError(t, m.Registry.Save())

	stopped, err := m.Stop("demo")
	assert.NilError(t, err)
	assert.Equal(t, stopped.Status, registry.StatusStopped)
	assert.Assert(t, stopped.PID == nil)
}

func TestResolveOneReportsAmbiguity(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Registry.AddContainer("demo", registry.ContainerConfig{}, false)
	assert.NilError(t, err)
	_, err = m.Registry.AddContainer("demo", registry.ContainerConfig{}, false)
	assert.NilError(t, err)

	_, err = m.resolveOne("demo")
	assert.ErrorContains(t, err, "ambiguous")
}

func TestRemoveRequiresForceForNonEmptyDir(t *testing.T) {
	m := newTestManager(t)
	info, err := m.Create("demo", registry.ContainerConfig{Command: "/bin/bash"})
	assert.NilError(t, err)

	dir := m.Registry.ContainerDir(info.FullID())
	writeFile(t, dir+"/rootfs/marker", "x")

	err = m.Remove("demo", false)
	assert.ErrorContains(t, err, "--force")

	assert.NilError(t, m.Remove("demo", true))
}
