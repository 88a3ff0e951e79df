package rootfs

import (
	"os"
	"path/filepath"

	"github.com/unfaded/kakuri/internal/pkg/sylog"
)

// skeletonDirs lists the directory tree created under every container
// root, covering the mount points and standard paths most programs
// expect to exist regardless of what gets bind-mounted into them.
var skeletonDirs = []string{
	"bin", "lib", "lib64", "usr", "usr/bin", "usr/lib", "usr/share",
	"tmp", "proc", "dev", "etc", "var", "home", "root", "opt", "srv",
	"mnt", "media", "run", "sys",
}

var userDirs = []string{
	"home/user",
	"home/user/.config",
	"home/user/.local",
	"home/user/.local/share",
	"home/user/.local/bin",
	"home/user/.cache",
	"home/user/.ssh",
	"home/user/Desktop",
	"home/user/Documents",
	"home/user/Downloads",
	"home/user/Pictures",
	"home/user/Music",
	"home/user/Videos",
}

// createSkeleton creates the directory skeleton, best-effort: failures
// here are non-fatal, since a missing optional directory shouldn't
// abort an otherwise-usable container.
func createSkeleton(root string) {
	for _, d := range skeletonDirs {
		ensureDir(filepath.Join(root, d))
	}
	for _, d := range userDirs {
		ensureDir(filepath.Join(root, d))
	}
}

var essentialHostFiles = []string{"/etc/hosts", "/etc/resolv.conf"}

var fallbackContent = map[string]string{
	"/etc/hosts":       "127.0.0.1\tlocalhost\n::1\t\tlocalhost ip6-localhost ip6-loopback\n",
	"/etc/resolv.conf": "nameserver 8.8.8.8\nnameserver 8.8.4.4\n",
	"/etc/passwd":      "root:x:0:0:root:/root:/bin/bash\nnobody:x:65534:65534:nobody:/nonexistent:/usr/sbin/nologin\n",
	"/etc/group":       "root:x:0:\nnogroup:x:65534:\n",
}

// createEssentialFiles bind-mounts /etc/hosts and /etc/resolv.conf from
// the host when present, writing stable fallback contents otherwise.
// /etc/passwd and /etc/group are always written from the fallback
// template, never bind-mounted, because the user fabricator later edits
// them in place to add the in-container account.
func createEssentialFiles(root string) {
	for _, path := range essentialHostFiles {
		target := filepath.Join(root, path)
		if _, err := os.Stat(path); err == nil {
			if err := bindHostFile(path, target); err == nil {
				sylog.Verbosef("mounted: %s", path)
				continue
			}
		}
		writeFallback(target, path)
	}

	writeFallback(filepath.Join(root, "/etc/passwd"), "/etc/passwd")
	writeFallback(filepath.Join(root, "/etc/group"), "/etc/group")
}

func writeFallback(target, key string) {
	content, ok := fallbackContent[key]
	if !ok {
		return
	}
	ensureDir(parentDir(target))
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		sylog.Debugf("could not write fallback %s: %s", target, err)
	}
}

// terminfoEntries are copied from the host into the container so that
// terminal-aware programs (clear, tput, less) behave reasonably inside
// the restricted root.
var terminfoEntries = [][2]string{
	{"x/xterm", "/usr/share/terminfo/x/xterm"},
	{"x/xterm-256color", "/usr/share/terminfo/x/xterm-256color"},
	{"s/screen", "/usr/share/terminfo/s/screen"},
	{"l/linux", "/usr/share/terminfo/l/linux"},
}

func createTerminfo(root string) {
	for _, sub := range []string{"x", "s", "l"} {
		ensureDir(filepath.Join(root, "usr/share/terminfo", sub))
	}

	for _, entry := range terminfoEntries {
		relPath, hostPath := entry[0], entry[1]
		content, err := os.ReadFile(hostPath)
		if err != nil {
			continue
		}
		target := filepath.Join(root, "usr/share/terminfo", relPath)
		ensureDir(parentDir(target))
		if err := os.WriteFile(target, content, 0o644); err != nil {
			sylog.Debugf("could not copy terminfo entry %s: %s", hostPath, err)
		}
	}
}
