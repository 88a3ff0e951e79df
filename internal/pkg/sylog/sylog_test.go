package sylog

import (
	"bytes"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestLevelStrings(t *testing.T) {
	cases := map[messageLevel]string{
		FatalLevel:   "FATAL",
		ErrorLevel:   "ERROR",
		WarnLevel:    "WARNING",
		LogLevel:     "LOG",
		InfoLevel:    "INFO",
		VerboseLevel: "VERBOSE",
		DebugLevel:   "DEBUG",
	}
	for level, want := range cases {
		assert.Equal(t, level.String(), want)
	}
}

func TestWritefRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	old := SetWriter(&buf)
	defer SetWriter(old)

	oldLevel := loggerLevel
	defer func() { loggerLevel = oldLevel }()

	SetLevel(int(WarnLevel))
	Infof("should not appear")
	assert.Equal(t, buf.Len(), 0)

	Warningf("should appear: %s", "reason")
	assert.Assert(t, strings.Contains(buf.String(), "should appear: reason"))
}

func TestSetLaunchIDTagsOutput(t *testing.T) {
	var buf bytes.Buffer
	old := SetWriter(&buf)
	defer SetWriter(old)
	SetLevel(int(InfoLevel))

	SetLaunchID("abc123")
	defer SetLaunchID("")

	Infof("hello")
	assert.Assert(t, strings.Contains(buf.String(), "launch=abc123"))
}
