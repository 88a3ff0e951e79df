// Package sylog implements the leveled logger used throughout kakuri:
// a small, dependency-free level scheme (fatal/error/warn/log/info/
// verbose/debug) with terminal-aware coloring and a launch-correlation
// tag, cheap enough to call from hot paths like every mount step.
package sylog

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/term"
)

var messageColors = map[messageLevel]string{
	FatalLevel: "\x1b[31m",
	ErrorLevel: "\x1b[31m",
	WarnLevel:  "\x1b[33m",
	InfoLevel:  "\x1b[34m",
}

var (
	mu          sync.Mutex
	loggerLevel = InfoLevel
	colorOK     = term.IsTerminal(int(os.Stderr.Fd()))
	logWriter   = io.Writer(os.Stderr)
	launchID    string
)

func init() {
	if l, err := strconv.Atoi(os.Getenv("KAKURI_MESSAGELEVEL")); err == nil {
		loggerLevel = messageLevel(l)
	}
	launchID = os.Getenv("KAKURI_LAUNCH_ID")
}

// SetLaunchID tags every subsequent log line with a short correlation id so
// that parent-side and child-side output from one launch can be told apart.
func SetLaunchID(id string) {
	mu.Lock()
	defer mu.Unlock()
	launchID = id
}

// SetLevel explicitly sets the logger level.
func SetLevel(l int) {
	mu.Lock()
	defer mu.Unlock()
	loggerLevel = messageLevel(l)
}

// SetWriter sets a new io.Writer for subsequent logging and returns the
// previous one, useful to capture output in tests.
func SetWriter(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	old := logWriter
	if w != nil {
		logWriter = w
	}
	return old
}

func prefix(msgLevel messageLevel) string {
	color, ok := messageColors[msgLevel]
	reset := "\x1b[0m"
	if !ok || !colorOK {
		color, reset = "", ""
	}

	tag := ""
	if launchID != "" {
		tag = fmt.Sprintf("[launch=%s]", launchID)
	}

	if loggerLevel < DebugLevel {
		return fmt.Sprintf("%s%-8s%s%s ", color, msgLevel.String()+":", reset, tag)
	}

	pc, _, _, ok := runtime.Caller(3)
	details := runtime.FuncForPC(pc)
	funcName := "????()"
	if ok && details != nil {
		parts := strings.Split(details.Name(), ".")
		funcName = parts[len(parts)-1] + "()"
	}

	return fmt.Sprintf("%s%-8s%s[U=%d,P=%d]%s%-30s", color, msgLevel, reset, os.Geteuid(), os.Getpid(), tag, funcName)
}

func writef(msgLevel messageLevel, format string, a ...interface{}) {
	mu.Lock()
	level, w := loggerLevel, logWriter
	mu.Unlock()

	if level < msgLevel {
		return
	}

	msg := strings.TrimRight(fmt.Sprintf(format, a...), "\n")
	fmt.Fprintf(w, "%s%s\n", prefix(msgLevel), msg)
}

// Fatalf logs at FatalLevel and exits the process with status 255. Only
// call this from command-dispatch code, never from a reusable package.
func Fatalf(format string, a ...interface{}) {
	writef(FatalLevel, format, a...)
	os.Exit(255)
}

// Errorf logs an error that is also being returned to the caller.
func Errorf(format string, a ...interface{}) {
	writef(ErrorLevel, format, a...)
}

// Warningf logs a best-effort failure that does not abort the operation.
func Warningf(format string, a ...interface{}) {
	writef(WarnLevel, format, a...)
}

// Infof logs at the default visible level.
func Infof(format string, a ...interface{}) {
	writef(InfoLevel, format, a...)
}

// Verbosef logs detail useful when diagnosing a launch.
func Verbosef(format string, a ...interface{}) {
	writef(VerboseLevel, format, a...)
}

// Debugf logs the most granular detail, gated behind --debug.
func Debugf(format string, a ...interface{}) {
	writef(DebugLevel, format, a...)
}
