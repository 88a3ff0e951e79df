package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Registry is the full on-disk mapping from full-id to ContainerInfo,
// serialized as containers_dir/registry.json.
type Registry struct {
	Containers map[string]ContainerInfo `json:"containers"`

	dir string
}

// Load reads the registry from containersDir/registry.json, returning an
// empty registry if the file does not yet exist.
func Load(containersDir string) (*Registry, error) {
	path := filepath.Join(containersDir, "registry.json")

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Registry{Containers: map[string]ContainerInfo{}, dir: containersDir}, nil
		}
		return nil, errors.Wrap(err, "failed to read registry file")
	}

	var r Registry
	if err := json.Unmarshal(content, &r); err != nil {
		return nil, errors.Wrap(err, "failed to parse registry file")
	}
	if r.Containers == nil {
		r.Containers = map[string]ContainerInfo{}
	}
	r.dir = containersDir
	return &r, nil
}

// Save writes the registry back to containers_dir/registry.json. The
// registry is not locked: two concurrent mutators can lose writes;
// callers must serialize themselves.
func (r *Registry) Save() error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create containers directory")
	}

	content, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize registry")
	}
	if err := os.WriteFile(filepath.Join(r.dir, "registry.json"), content, 0o644); err != nil {
		return errors.Wrap(err, "failed to write registry file")
	}
	return nil
}

// ContainerDir returns the on-disk directory for a full-id.
func (r *Registry) ContainerDir(fullID string) string {
	return filepath.Join(r.dir, fullID)
}

// AddContainer allocates a full-id, inserts the record, and (unless
// temporary) persists the registry immediately.
func (r *Registry) AddContainer(name string, cfg ContainerConfig, temporary bool) (string, error) {
	now := time.Now().Unix()
	id := GenerateID(now)
	fullID := name + "_" + id

	status := StatusCreated
	if temporary {
		status = StatusTemporary
	}

	r.Containers[fullID] = ContainerInfo{
		ID:        id,
		Name:      name,
		Status:    status,
		Config:    cfg,
		CreatedAt: now,
	}

	if !temporary {
		if err := r.Save(); err != nil {
			return "", err
		}
	}
	return fullID, nil
}

// FindByName returns every non-temporary record with the given name,
// newest first.
func (r *Registry) FindByName(name string) []ContainerInfo {
	var found []ContainerInfo
	for _, info := range r.Containers {
		if info.Name == name && info.Status != StatusTemporary {
			found = append(found, info)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt > found[j].CreatedAt })
	return found
}

// Get returns a record by full-id.
func (r *Registry) Get(fullID string) (ContainerInfo, bool) {
	info, ok := r.Containers[fullID]
	return info, ok
}

// Update replaces a record by full-id.
func (r *Registry) Update(fullID string, info ContainerInfo) {
	r.Containers[fullID] = info
}

// Remove deletes a record and persists the registry.
func (r *Registry) Remove(fullID string) error {
	delete(r.Containers, fullID)
	return r.Save()
}

// List returns every non-temporary record, newest first.
func (r *Registry) List() []ContainerInfo {
	var all []ContainerInfo
	for _, info := range r.Containers {
		if info.Status == StatusTemporary {
			continue
		}
		all = append(all, info)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt > all[j].CreatedAt })
	return all
}

// CleanupTemporary removes every Temporary record from the registry and
// deletes its container directory tree, if any. Ephemeral containers
// never need a durable record once the launching process exits, so
// this runs unconditionally on every orchestrator exit to keep the
// registry from accumulating stale entries.
func (r *Registry) CleanupTemporary() error {
	var stale []string
	for fullID, info := range r.Containers {
		if info.Status == StatusTemporary {
			stale = append(stale, fullID)
		}
	}

	for _, fullID := range stale {
		delete(r.Containers, fullID)
		dir := r.ContainerDir(fullID)
		if _, err := os.Stat(dir); err == nil {
			os.RemoveAll(dir) // best effort, matches original's .ok()
		}
	}

	if len(stale) == 0 {
		return nil
	}
	return r.Save()
}
