package config

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func TestDefaultRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	assert.NilError(t, err)
	assert.Equal(t, cfg.Storage.ContainersDir, "~/.local/kakuri/containers")
	assert.Equal(t, cfg.Defaults.AllowNetwork, false)

	path := filepath.Join(home, ".config", "kakuri", "config.toml")
	_, err = os.Stat(path)
	assert.NilError(t, err)

	reloaded, err := Load()
	assert.NilError(t, err)
	assert.DeepEqual(t, cfg, reloaded)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/alice")

	got, err := ExpandHome("~/containers")
	assert.NilError(t, err)
	assert.Equal(t, got, "/home/alice/containers")

	got, err = ExpandHome("/abs/path")
	assert.NilError(t, err)
	assert.Equal(t, got, "/abs/path")
}

func TestResolveBindProfile(t *testing.T) {
	cfg := Default()

	binds, err := cfg.ResolveBindProfile("minimal")
	assert.NilError(t, err)
	assert.DeepEqual(t, binds, []string{"~/.cache"})

	_, err = cfg.ResolveBindProfile("nonexistent")
	assert.ErrorContains(t, err, "not found in config")
}
