// Package registry implements the durable mapping from a container's
// full-id to its lifecycle record, persisted so that containers created
// in one invocation can be found, started, and removed by name in the
// next.
package registry

// Status is the lifecycle state of a container record.
type Status string

const (
	StatusCreated   Status = "created"
	StatusRunning   Status = "running"
	StatusStopped   Status = "stopped"
	StatusTemporary Status = "temporary"
)

// BindMount is a host-to-container path mapping.
type BindMount struct {
	HostPath              string `json:"host_path"`
	ContainerPathOverride string `json:"container_path,omitempty"`
	CreateIfMissing       bool   `json:"create_if_missing"`
}

// ContainerPath returns the effective in-container path: the explicit
// override when present, otherwise a mirror of HostPath.
func (b BindMount) ContainerPath() string {
	if b.ContainerPathOverride != "" {
		return b.ContainerPathOverride
	}
	return b.HostPath
}

// ContainerConfig is the declarative specification of one container.
type ContainerConfig struct {
	AllowNetwork bool        `json:"allow_network"`
	Init         bool        `json:"init"`
	Command      string      `json:"command,omitempty"`
	Args         []string    `json:"args,omitempty"`
	BindMounts   []BindMount `json:"bind_mounts,omitempty"`
}

// ContainerInfo is one registry record.
type ContainerInfo struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Status    Status          `json:"status"`
	Config    ContainerConfig `json:"config"`
	CreatedAt int64           `json:"created_at"`
	StartedAt *int64          `json:"started_at,omitempty"`
	PID       *int            `json:"pid,omitempty"`
}

// FullID is the registry's primary key: "{name}_{id}".
func (c ContainerInfo) FullID() string {
	return c.Name + "_" + c.ID
}
