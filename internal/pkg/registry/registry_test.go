package registry

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestRegistryRoundTrip(t *testing.T) {
	dir := t.TempDir()

	r, err := Load(dir)
	assert.NilError(t, err)

	fullID, err := r.AddContainer("demo", ContainerConfig{AllowNetwork: true}, false)
	assert.NilError(t, err)
	assert.Assert(t, fullIDPattern.MatchString(fullID))

	reloaded, err := Load(dir)
	assert.NilError(t, err)
	assert.DeepEqual(t, r.Containers, reloaded.Containers)
}

func TestNameUniqueness(t *testing.T) {
	dir := t.TempDir()
	r, err := Load(dir)
	assert.NilError(t, err)

	_, err = r.AddContainer("demo", ContainerConfig{}, false)
	assert.NilError(t, err)

	existing := r.FindByName("demo")
	assert.Equal(t, len(existing), 1)
}

func TestTemporaryNotPersisted(t *testing.T) {
	dir := t.TempDir()
	r, err := Load(dir)
	assert.NilError(t, err)

	fullID, err := r.AddContainer("scratch", ContainerConfig{}, true)
	assert.NilError(t, err)

	reloaded, err := Load(dir)
	assert.NilError(t, err)
	_, ok := reloaded.Containers[fullID]
	assert.Assert(t, !ok, "temporary container must not be persisted")
}

func TestCleanupTemporaryPurgesAllTemporaryRecords(t *testing.T) {
	dir := t.TempDir()
	r, err := Load(dir)
	assert.NilError(t, err)

	_, err = r.AddContainer("persistent", ContainerConfig{}, false)
	assert.NilError(t, err)

	id := GenerateID(1)
	fullID := "scratch_" + id
	r.Containers[fullID] = ContainerInfo{ID: id, Name: "scratch", Status: StatusTemporary}
	assert.NilError(t, r.Save())

	assert.NilError(t, r.CleanupTemporary())

	for _, info := range r.Containers {
		assert.Assert(t, info.Status != StatusTemporary)
	}
}
