package registry

import (
	"regexp"
	"testing"

	"gotest.tools/v3/assert"
)

var fullIDPattern = regexp.MustCompile(`^[^_]+_[0-9a-f]{1,6}$`)

func TestGenerateIDFormat(t *testing.T) {
	id := GenerateID(1700000000)
	assert.Equal(t, len(id), 6)
	assert.Assert(t, fullIDPattern.MatchString("demo_"+id))
}

func TestGenerateIDIsReversedHex(t *testing.T) {
	id := GenerateID(1638400000)
	assert.Equal(t, len(id), 6)
	for _, c := range id {
		assert.Assert(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'))
	}
}
