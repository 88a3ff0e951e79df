package registry

import "strings"

// ParseBindMount parses a --bind SPEC string. "HOST:CONTAINER" yields an
// explicit container path; a bare "HOST" mirrors the host path. Both forms
// default CreateIfMissing to true: a user who explicitly asks for a bind
// expects the target to exist when the container starts, even if it
// doesn't yet on the host.
func ParseBindMount(spec string) BindMount {
	if host, container, ok := strings.Cut(spec, ":"); ok {
		return BindMount{
			HostPath:              host,
			ContainerPathOverride: container,
			CreateIfMissing:       true,
		}
	}
	return BindMount{
		HostPath:        spec,
		CreateIfMissing: true,
	}
}

// ParseAutoDetectedBindMount is the same as ParseBindMount but defaults
// CreateIfMissing to false, for paths the caller discovered on the host
// rather than asked for explicitly.
func ParseAutoDetectedBindMount(spec string) BindMount {
	b := ParseBindMount(spec)
	b.CreateIfMissing = false
	return b
}
