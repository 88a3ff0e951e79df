package registry

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestParseBindMountWithContainerPath(t *testing.T) {
	b := ParseBindMount("A:B")
	assert.Equal(t, b.HostPath, "A")
	assert.Equal(t, b.ContainerPathOverride, "B")
	assert.Equal(t, b.CreateIfMissing, true)
	assert.Equal(t, b.ContainerPath(), "B")
}

func TestParseBindMountBare(t *testing.T) {
	b := ParseBindMount("A")
	assert.Equal(t, b.HostPath, "A")
	assert.Equal(t, b.ContainerPathOverride, "")
	assert.Equal(t, b.CreateIfMissing, true)
	assert.Equal(t, b.ContainerPath(), "A")
}

func TestParseAutoDetectedBindMount(t *testing.T) {
	b := ParseAutoDetectedBindMount("/etc/hostname")
	assert.Equal(t, b.CreateIfMissing, false)
}
