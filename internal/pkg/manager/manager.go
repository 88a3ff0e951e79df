// Package manager implements the persistent-container CRUD surface:
// create, list, start, stop, remove, exec, shell. It owns the registry
// and dispatches the actual namespace/rootfs/exec work to the launch
// orchestrator.
package manager

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/unfaded/kakuri/internal/pkg/launch"
	"github.com/unfaded/kakuri/internal/pkg/registry"
	"github.com/unfaded/kakuri/internal/pkg/sylog"
)

// Manager owns the registry and the knowledge of where containers live
// on disk and where the current executable is, so it can hand both to
// the orchestrator.
type Manager struct {
	Registry      *registry.Registry
	ContainersDir string
	SelfPath      string
}

// Open loads the registry from containersDir and captures the current
// executable's path up front, before anything unshares: /proc/self/exe
// can stop resolving to the right binary once the process has moved
// into a new mount namespace, so the path must be captured while it is
// still reliable.
func Open(containersDir string) (*Manager, error) {
	reg, err := registry.Load(containersDir)
	if err != nil {
		return nil, err
	}
	self, err := os.Executable()
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve own executable path")
	}
	return &Manager{Registry: reg, ContainersDir: containersDir, SelfPath: self}, nil
}

// resolveOne returns the single non-temporary record for name, or an
// error listing every ambiguous full-id when more than one exists.
func (m *Manager) resolveOne(name string) (registry.ContainerInfo, error) {
	matches := m.Registry.FindByName(name)
	switch len(matches) {
	case 0:
		return registry.ContainerInfo{}, errors.Errorf("no container named %q", name)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, c := range matches {
			ids[i] = c.FullID()
		}
		return registry.ContainerInfo{}, errors.Errorf("ambiguous container name %q, candidates: %v", name, ids)
	}
}

// Create builds a config, allocates a full-id, lays out the container
// directory tree, and persists the registry. Name uniqueness against
// existing non-temporary records is enforced first, since containers
// are looked up by name and an ambiguous name would make every later
// start/exec/stop on it fail or guess wrong.
func (m *Manager) Create(name string, cfg registry.ContainerConfig) (registry.ContainerInfo, error) {
	if existing := m.Registry.FindByName(name); len(existing) > 0 {
		return registry.ContainerInfo{}, errors.Errorf("a container named %q already exists (%s)", name, existing[0].FullID())
	}

	fullID, err := m.Registry.AddContainer(name, cfg, false)
	if err != nil {
		return registry.ContainerInfo{}, err
	}

	dir := m.Registry.ContainerDir(fullID)
	for _, sub := range []string{"rootfs", "logs", filepath.Join("files", "home"), filepath.Join("files", "root")} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return registry.ContainerInfo{}, errors.Wrapf(err, "failed to create %s", sub)
		}
	}

	info, _ := m.Registry.Get(fullID)
	infoContent, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return registry.ContainerInfo{}, errors.Wrap(err, "failed to serialize config.json")
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), infoContent, 0o644); err != nil {
		return registry.ContainerInfo{}, errors.Wrap(err, "failed to write config.json")
	}

	sylog.Infof("created container %s", fullID)
	return info, nil
}

// List returns every non-temporary record, newest first.
func (m *Manager) List() []registry.ContainerInfo {
	return m.Registry.List()
}

// Start transitions Created -> Running, records pid and started_at, and
// invokes the orchestrator without waiting for it, so the caller gets
// control back immediately instead of blocking for the container's
// whole lifetime.
func (m *Manager) Start(name string, command string, args []string) (registry.ContainerInfo, error) {
	info, err := m.resolveOne(name)
	if err != nil {
		return registry.ContainerInfo{}, err
	}

	if command != "" {
		info.Config.Command = command
		info.Config.Args = args
	}

	now := time.Now().Unix()
	info.Status = registry.StatusRunning
	info.StartedAt = &now
	m.Registry.Update(info.FullID(), info)
	if err := m.Registry.Save(); err != nil {
		return registry.ContainerInfo{}, err
	}

	go func() {
		opts := m.orchestratorOptions(info)
		if err := launch.Launch(m.SelfPath, opts); err != nil {
			sylog.Errorf("container %s exited with error: %s", info.FullID(), err)
		}
	}()

	return info, nil
}

// Stop transitions to Stopped and clears pid. Actual process
// termination is not implemented; Start launches the container
// asynchronously and never threads its live pid back into the
// registry, so there is nothing here yet to signal.
func (m *Manager) Stop(name string) (registry.ContainerInfo, error) {
	info, err := m.resolveOne(name)
	if err != nil {
		return registry.ContainerInfo{}, err
	}

	info.Status = registry.StatusStopped
	info.PID = nil
	m.Registry.Update(info.FullID(), info)
	if err := m.Registry.Save(); err != nil {
		return registry.ContainerInfo{}, err
	}
	return info, nil
}

// Remove deletes a container's record and its on-disk tree. Non-empty
// trees require force=true.
func (m *Manager) Remove(name string, force bool) error {
	info, err := m.resolveOne(name)
	if err != nil {
		return err
	}

	dir := m.Registry.ContainerDir(info.FullID())
	if !force {
		entries, _ := os.ReadDir(dir)
		if len(entries) > 0 {
			return errors.Errorf("container %s has existing data, use --force to remove", info.FullID())
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "failed to remove %s", dir)
	}
	return m.Registry.Remove(info.FullID())
}

// Exec invokes the orchestrator synchronously, reusing the persisted
// config but running command/args instead of the stored default.
func (m *Manager) Exec(name, command string, args []string) error {
	info, err := m.resolveOne(name)
	if err != nil {
		return err
	}
	info.Config.Command = command
	info.Config.Args = args
	return launch.Launch(m.SelfPath, m.orchestratorOptions(info))
}

// Shell forces /bin/bash -i with a prompt naming the container.
func (m *Manager) Shell(name string) error {
	info, err := m.resolveOne(name)
	if err != nil {
		return err
	}
	info.Config.Command = "/bin/bash"
	info.Config.Args = []string{"-i"}
	return launch.Launch(m.SelfPath, m.orchestratorOptions(info))
}

func (m *Manager) orchestratorOptions(info registry.ContainerInfo) launch.Options {
	return launch.Options{
		Command:       info.Config.Command,
		Args:          info.Config.Args,
		AllowNetwork:  info.Config.AllowNetwork,
		Binds:         info.Config.BindMounts,
		ContainerID:   info.FullID(),
		ContainerName: info.Name,
		RegistryDir:   m.ContainersDir,
	}
}
