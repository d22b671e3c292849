package validation

import (
	"fmt"

	apperrors "corecatalog/internal/errors"
)

// RemoteValidator accepts a fixed set of remotes and refuses the aliases
// configured as unsupported for a remote.
type RemoteValidator struct {
	supported   map[string]struct{}
	unsupported map[string]map[string]struct{}
}

// NewRemoteValidator creates a validator for the given remotes
func NewRemoteValidator(remotes []string, unsupportedAliases map[string][]string) *RemoteValidator {
	v := &RemoteValidator{
		supported:   make(map[string]struct{}, len(remotes)),
		unsupported: make(map[string]map[string]struct{}, len(unsupportedAliases)),
	}
	for _, remote := range remotes {
		v.supported[remote] = struct{}{}
	}
	for remote, aliases := range unsupportedAliases {
		set := make(map[string]struct{}, len(aliases))
		for _, alias := range aliases {
			set[alias] = struct{}{}
		}
		v.unsupported[remote] = set
	}
	return v
}

// CheckRemoteSupported fails for remotes outside the configured set
func (v *RemoteValidator) CheckRemoteSupported(remote string) error {
	if _, ok := v.supported[remote]; !ok {
		return apperrors.NewUnsupportedRemoteError("check remote",
			fmt.Errorf("remote %q is not supported", remote))
	}
	return nil
}

// CheckAliasSupported fails if alias is refused for remote
func (v *RemoteValidator) CheckAliasSupported(alias, remote string) error {
	if err := v.CheckRemoteSupported(remote); err != nil {
		return err
	}
	if _, refused := v.unsupported[remote][alias]; refused {
		return apperrors.NewUnsupportedRemoteError("check alias",
			fmt.Errorf("%q is not a supported alias for remote %q", alias, remote))
	}
	return nil
}

// VerifyAliasSupported reports false when any alias is refused for remote
func (v *RemoteValidator) VerifyAliasSupported(aliases []string, remote string) bool {
	refused := v.unsupported[remote]
	for _, alias := range aliases {
		if _, ok := refused[alias]; ok {
			return false
		}
	}
	return true
}
