// Package exec resolves the command to run and replaces the current
// process image with it.
package exec

import (
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Resolve finds the absolute path for cmd. An absolute path, or any path
// containing a "/", is used verbatim. A bare name is looked up against
// the host PATH before the container is chrooted, because the
// bind-mounted host directories mirror host paths exactly, so a path
// found now will still resolve once inside the chroot.
func Resolve(cmd string) (string, error) {
	if strings.Contains(cmd, "/") {
		return cmd, nil
	}

	resolved, err := exec.LookPath(cmd)
	if err != nil {
		return "", errors.Wrapf(err, "command not found on host PATH: %s", cmd)
	}
	return resolved, nil
}

// interactiveShellSentinel gates the welcome banner PROMPT_COMMAND to
// fire once per session rather than on every prompt redraw.
const interactiveShellSentinel = "KAKURI_WELCOME_SHOWN"

// IsInteractiveShell reports whether the invocation is bare /bin/bash
// (no args, or a single -i), the case the executor special-cases with a
// welcome banner.
func IsInteractiveShell(resolvedCmd string, args []string) bool {
	if resolvedCmd != "/bin/bash" && !strings.HasSuffix(resolvedCmd, "/bash") {
		return false
	}
	if len(args) == 0 {
		return true
	}
	return len(args) == 1 && args[0] == "-i"
}

// welcomeBannerCommand builds the PROMPT_COMMAND that prints containerName
// exactly once, on the first prompt of the session, and turns off job
// control. Job control belongs to a shell that owns its own terminal
// session; a shell attached to a persistent container's long-lived
// session has no real terminal of its own to arbitrate, and leaving
// monitor mode on just produces spurious "Done"/"Stopped" job-status
// lines for commands backgrounded across separate exec/shell attaches.
func welcomeBannerCommand(containerName string, disableJobControl bool) string {
	parts := []string{
		`if [ -z "$` + interactiveShellSentinel + `" ]; then`,
		`export ` + interactiveShellSentinel + `=1;`,
		`echo "kakuri container: ` + containerName + `";`,
		`fi`,
	}
	if disableJobControl {
		parts = append(parts, `set +m;`)
	}
	return strings.Join(parts, " ")
}

// PrepareInteractiveShell sets HOME, PS1, and PROMPT_COMMAND for the
// interactive-shell special case. The caller is responsible for having
// already chdir'd to the target home directory. disableJobControl should
// be set when attaching to a persistent container, so repeated
// exec/shell sessions against it don't each fight over job control for
// processes a previous session backgrounded.
func PrepareInteractiveShell(containerName string, disableJobControl bool) {
	os.Setenv("PS1", containerName+"@container:\\w\\$ ")
	os.Setenv("PROMPT_COMMAND", welcomeBannerCommand(containerName, disableJobControl))
}
