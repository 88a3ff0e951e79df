package exec

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestResolveVerbatimPaths(t *testing.T) {
	resolved, err := Resolve("/bin/true")
	assert.NilError(t, err)
	assert.Equal(t, resolved, "/bin/true")

	resolved, err = Resolve("./local")
	assert.NilError(t, err)
	assert.Equal(t, resolved, "./local")
}

func TestResolveBareNameFailsWhenMissing(t *testing.T) {
	_, err := Resolve("definitely-not-a-real-binary-xyz")
	assert.ErrorContains(t, err, "command not found")
}

func TestIsInteractiveShell(t *testing.T) {
	assert.Assert(t, IsInteractiveShell("/bin/bash", nil))
	assert.Assert(t, IsInteractiveShell("/bin/bash", []string{"-i"}))
	assert.Assert(t, !IsInteractiveShell("/bin/bash", []string{"-c", "echo hi"}))
	assert.Assert(t, !IsInteractiveShell("/bin/sh", nil))
}

func TestWelcomeBannerCommandDisablesJobControlOnlyWhenAsked(t *testing.T) {
	assert.Assert(t, !strings.Contains(welcomeBannerCommand("work", false), "set +m;"))
	assert.Assert(t, strings.Contains(welcomeBannerCommand("work", true), "set +m;"))
}
