package rootfs

import (
	"bufio"
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/unfaded/kakuri/internal/pkg/sylog"
)

// essentialDirs is the host binary/library surface bind-mounted into
// every container. /etc stays writable so that the user fabricator and
// in-container tooling can edit it afterwards.
var essentialDirs = []string{
	"/bin",
	"/usr/bin",
	"/lib",
	"/lib64",
	"/usr/lib",
	"/usr/share/terminfo",
	"/etc",
}

// mountHostSurface bind-mounts, and (except /etc) remounts read-only,
// the essential host directories. Each mount is best-effort: only the
// absence of all of them would break execution.
func mountHostSurface(root string) {
	for _, dir := range essentialDirs {
		target := filepath.Join(root, dir)
		bindHostDir(dir, target, dir != "/etc")
	}

	mountUserConfig(root)
}

// mountUserConfig bind-mounts the caller's ~/.config read-only into the
// container's home/user/.config, so dotfile-driven tools (editors,
// shells, version managers) pick up the caller's own settings inside
// the container instead of starting from a blank slate.
func mountUserConfig(root string) {
	home := os.Getenv("HOME")
	if home == "" {
		return
	}
	configDir := filepath.Join(home, ".config")
	if _, err := os.Stat(configDir); err != nil {
		return
	}
	target := filepath.Join(root, "home/user/.config")
	bindHostDir(configDir, target, true)
}

// logDependencies shells out to ldd and logs the shared objects a
// resolved command needs. This is purely an operator-visible diagnostic
// and has no effect on what gets mounted: essentialDirs above already
// covers the whole library surface unconditionally.
func logDependencies(resolvedCommand string) {
	out, err := exec.Command("ldd", resolvedCommand).Output()
	if err != nil {
		sylog.Verbosef("%s: static binary (no dynamic dependencies)", resolvedCommand)
		return
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if lib, ok := parseLddLine(scanner.Text()); ok {
			if _, err := os.Stat(lib); err == nil {
				sylog.Verbosef("  -> %s", lib)
			} else {
				sylog.Verbosef("  -> %s (not found)", lib)
			}
		}
	}
}

func parseLddLine(line string) (string, bool) {
	if idx := strings.Index(line, " => "); idx >= 0 {
		rest := strings.TrimSpace(line[idx+len(" => "):])
		if sp := strings.IndexByte(rest, ' '); sp >= 0 {
			return rest[:sp], true
		}
		return rest, true
	}
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "/") {
		if sp := strings.IndexByte(trimmed, ' '); sp >= 0 {
			return trimmed[:sp], true
		}
		return trimmed, true
	}
	return "", false
}
