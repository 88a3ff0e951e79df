package cli

import (
	"github.com/spf13/cobra"

	"github.com/unfaded/kakuri/internal/pkg/config"
	"github.com/unfaded/kakuri/internal/pkg/registry"
)

// launchFlags are the flags shared by run, direct mode, and (where
// applicable) create.
type launchFlags struct {
	AllowNetwork bool
	Binds        []string
	BindProfile  string
	User         bool
	Init         bool
}

func (f *launchFlags) register(cmd *cobra.Command, includeInit bool) {
	cmd.Flags().BoolVar(&f.AllowNetwork, "allow-network", false, "share the host network namespace instead of creating a new one")
	cmd.Flags().StringArrayVar(&f.Binds, "bind", nil, "bind mount HOST or HOST:CONTAINER, repeatable")
	cmd.Flags().StringVar(&f.BindProfile, "bind-profile", "", "apply a named bind profile from the config file")
	cmd.Flags().BoolVar(&f.User, "user", false, "drop to an unprivileged in-container user before exec")
	if includeInit {
		cmd.Flags().BoolVar(&f.Init, "init", false, "reserved for future PID-1 supervisor support; currently has no effect")
	}
}

// resolveBindMounts merges --bind and --bind-profile into one ordered
// list of BindMount entries, profile entries first.
func (f *launchFlags) resolveBindMounts(cfg *config.Config) ([]registry.BindMount, error) {
	var mounts []registry.BindMount

	if f.BindProfile != "" {
		profile, err := cfg.ResolveBindProfile(f.BindProfile)
		if err != nil {
			return nil, err
		}
		for _, p := range profile {
			expanded, err := config.ExpandHome(p)
			if err != nil {
				return nil, err
			}
			mounts = append(mounts, registry.ParseBindMount(expanded))
		}
	}

	for _, b := range f.Binds {
		mounts = append(mounts, registry.ParseBindMount(b))
	}

	return mounts, nil
}
