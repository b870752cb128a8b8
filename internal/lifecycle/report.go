package lifecycle

import (
	"github.com/firefly-engineering/mythic-ctl/internal/errors"
	"github.com/firefly-engineering/mythic-ctl/internal/firewall"
	"github.com/firefly-engineering/mythic-ctl/internal/repository"
	"github.com/firefly-engineering/mythic-ctl/internal/stack"
)

// ConfigOrigin records where the configuration of an install came from.
type ConfigOrigin string

const (
	OriginLoaded    ConfigOrigin = "loaded"
	OriginDefaults  ConfigOrigin = "defaults"
	OriginRecovered ConfigOrigin = "recovered" // malformed file set aside
)

// Report describes what an invocation did.
type Report struct {
	RunID string
	Flow  Flow

	// Before is the state observed once the lock was taken.
	Before *State

	// Rendered is the configuration table of the print flow.
	Rendered string

	Repository         repository.Outcome
	RepositoryAdvisory error

	ConfigOrigin    ConfigOrigin
	MalformedBackup string
	Persisted       bool

	Restriction    *firewall.Applied
	RestrictionErr error

	// Plugins is the install or uninstall pass over the stack.
	Plugins *stack.PluginReport
	// PluginFailures covers checkout and stack failures together.
	PluginFailures *errors.PartialFailure

	DeletionConfirmed bool
	Deleted           bool
}

// Err returns the failure of a best effort step, or nil. A firewall failure
// is reported in preference to plugin failures.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	if r.RestrictionErr != nil {
		return r.RestrictionErr
	}
	return r.PluginFailures.ErrOrNil()
}
