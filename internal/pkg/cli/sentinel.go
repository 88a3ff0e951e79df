// Package cli wires the cobra command tree and the pre-parser sentinel
// dispatch that lets the same binary re-exec itself as its own
// unshared child process.
package cli

import (
	"os"

	"github.com/unfaded/kakuri/internal/pkg/launch"
	"github.com/unfaded/kakuri/internal/pkg/sylog"
)

// DispatchSentinel checks argv for launch.InitSentinel and, if present,
// runs the child-side entry point directly, bypassing cobra entirely.
// It must be called before Execute: the child's own argv (the command
// the user asked to run inside the container) follows the sentinel and
// must not be parsed as kakuri flags by a general-purpose CLI parser.
// It returns true when it handled the invocation.
func DispatchSentinel(argv []string) bool {
	if len(argv) < 2 || argv[1] != launch.InitSentinel {
		return false
	}

	args, err := launch.ParseChildArgs(argv[2:])
	if err != nil {
		sylog.Fatalf("%s", err)
	}

	if err := launch.ChildMain(args); err != nil {
		sylog.Fatalf("%s", err)
	}

	// ChildMain only returns on error, handled above via Fatalf; a
	// successful run ends in syscall.Exec replacing this process image
	// and never reaches here.
	os.Exit(0)
	return true
}
