package user

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func seedRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	assert.NilError(t, os.MkdirAll(filepath.Join(root, "etc"), 0o755))
	assert.NilError(t, os.MkdirAll(filepath.Join(root, "home"), 0o755))
	return root
}

func TestCreateIsIdempotent(t *testing.T) {
	root := seedRoot(t)

	assert.NilError(t, Create(root, "user", 1000, 1000))
	first, err := os.ReadFile(filepath.Join(root, "etc/passwd"))
	assert.NilError(t, err)

	assert.NilError(t, Create(root, "user", 1000, 1000))
	second, err := os.ReadFile(filepath.Join(root, "etc/passwd"))
	assert.NilError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, strings.Count(string(second), "user:"), 1)
}

func TestCreateWritesExpectedArtifacts(t *testing.T) {
	root := seedRoot(t)
	assert.NilError(t, Create(root, "alice", 1500, 1500))

	passwd, err := os.ReadFile(filepath.Join(root, "etc/passwd"))
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(passwd), "alice:"))
	assert.Assert(t, strings.Contains(string(passwd), "/home/alice:/bin/bash"))

	group, err := os.ReadFile(filepath.Join(root, "etc/group"))
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(group), "alice:x:1500:"))

	shadowInfo, err := os.Stat(filepath.Join(root, "etc/shadow"))
	assert.NilError(t, err)
	assert.Equal(t, shadowInfo.Mode().Perm(), os.FileMode(0o640))

	sudoersInfo, err := os.Stat(filepath.Join(root, "etc/sudoers.d/alice"))
	assert.NilError(t, err)
	assert.Equal(t, sudoersInfo.Mode().Perm(), os.FileMode(0o440))

	bashrc, err := os.ReadFile(filepath.Join(root, "home/alice/.bashrc"))
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(bashrc), `echo "alice"`))
}

func TestCreatePreservesDifferentUsers(t *testing.T) {
	root := seedRoot(t)
	assert.NilError(t, Create(root, "alice", 1500, 1500))
	assert.NilError(t, Create(root, "bob", 1501, 1501))

	passwd, err := os.ReadFile(filepath.Join(root, "etc/passwd"))
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(passwd), "alice:"))
	assert.Assert(t, strings.Contains(string(passwd), "bob:"))
}
