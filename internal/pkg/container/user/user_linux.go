// Package user fabricates and switches to an unprivileged in-container
// account, so processes that refuse to run as root have a real
// identity to drop to.
package user

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/unfaded/kakuri/internal/pkg/sylog"
)

// cryptHash is a fixed sha512crypt hash of the password "root". It is a
// known weak default and intentionally not configurable.
const cryptHash = "$6$salt$IxDD3jeSOb5eB1CX5LBsqZFVkJdido3OUILO5Ifz5iwMuTS4XMS130MTSuDDl3aCI6WouIL9AjRbLCelDCy.g."

// DefaultName, DefaultUID and DefaultGID are used whenever --user is
// passed without further detail: a single, fixed, mapped identity.
const (
	DefaultName = "user"
	DefaultUID  = 1000
	DefaultGID  = 1000
)

// Create fabricates a non-root account under root: passwd, group, shadow
// and sudoers entries, and a .bashrc shell profile. Re-running Create
// for the same name is a no-op on passwd/group/shadow: each append is
// guarded by a "name:" containment check, so starting the same
// persistent container again doesn't duplicate the account's entries.
func Create(root, name string, uid, gid int) error {
	sylog.Verbosef("creating user: %s", name)

	home := filepath.Join(root, "home", name)
	if err := os.MkdirAll(home, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create home directory for %s", name)
	}

	if err := appendEntry(filepath.Join(root, "etc/passwd"),
		name,
		"root:x:0:0:root:/root:/bin/bash\n",
		fmt.Sprintf("%s:%s:%d:%d:%s:/home/%s:/bin/bash\n", name, cryptHash, uid, gid, name, name),
	); err != nil {
		return errors.Wrap(err, "failed to update /etc/passwd")
	}

	if err := appendEntry(filepath.Join(root, "etc/group"),
		name,
		"root:x:0:\n",
		fmt.Sprintf("%s:x:%d:\n", name, gid),
	); err != nil {
		return errors.Wrap(err, "failed to update /etc/group")
	}

	shadowPath := filepath.Join(root, "etc/shadow")
	if err := appendEntry(shadowPath,
		name,
		"root:*:19000:0:99999:7:::\n",
		fmt.Sprintf("%s:%s:19000:0:99999:7:::\n", name, cryptHash),
	); err != nil {
		return errors.Wrap(err, "failed to update /etc/shadow")
	}
	if err := os.Chmod(shadowPath, 0o640); err != nil {
		sylog.Debugf("could not set /etc/shadow permissions: %s", err)
	}

	if err := writeSudoers(root, name); err != nil {
		return errors.Wrap(err, "failed to write sudoers entry")
	}

	if err := writeBashrc(home, name); err != nil {
		return errors.Wrap(err, "failed to write .bashrc")
	}

	sylog.Infof("user %s created with uid %d, gid %d (password: root)", name, uid, gid)
	return nil
}

// appendEntry appends entry to path unless a line for name already
// exists, creating path with seedContent first when absent.
func appendEntry(path, name, seedContent, entry string) error {
	marker := name + ":"

	existing, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		return os.WriteFile(path, []byte(seedContent+entry), 0o644)
	}

	if strings.Contains(string(existing), marker) {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(entry)
	return err
}

func writeSudoers(root, name string) error {
	dir := filepath.Join(root, "etc/sudoers.d")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	content := fmt.Sprintf("%s ALL=(ALL) NOPASSWD:ALL\n", name)
	if err := os.WriteFile(path, []byte(content), 0o440); err != nil {
		return err
	}
	return os.Chmod(path, 0o440)
}

const bashrcTemplate = `# container shell profile
export PS1="%s@container:\w\$ "
export PATH=/home/%s/.local/bin:/usr/local/bin:/usr/bin:/bin:/usr/local/sbin:/usr/sbin:/sbin
export HOME=/home/%s
export USER=%s
export LOGNAME=%s

function whoami() {
    echo "%s"
}

alias ll="ls -la"
alias la="ls -A"
alias l="ls -CF"
`

func writeBashrc(home, name string) error {
	content := fmt.Sprintf(bashrcTemplate, name, name, name, name, name, name)
	return os.WriteFile(filepath.Join(home, ".bashrc"), []byte(content), 0o644)
}

// Switch drops the current process to the given uid/gid and re-exports
// USER, LOGNAME and HOME. It must run immediately before exec, and the
// GID must be set before the UID: once the UID changes, the process may
// no longer hold permission to change its GID.
func Switch(name string, uid, gid int) error {
	if err := unix.Setgid(gid); err != nil {
		return errors.Wrapf(err, "failed to set gid to %d", gid)
	}
	if err := unix.Setuid(uid); err != nil {
		return errors.Wrapf(err, "failed to set uid to %d", uid)
	}

	os.Setenv("USER", name)
	os.Setenv("LOGNAME", name)
	os.Setenv("HOME", "/home/"+name)

	sylog.Infof("switched to user %s (%d:%d)", name, uid, gid)
	return nil
}
