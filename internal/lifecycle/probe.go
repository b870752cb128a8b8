package lifecycle

import (
	"context"

	"github.com/firefly-engineering/mythic-ctl/internal/audit"
	"github.com/firefly-engineering/mythic-ctl/internal/envfile"
	"github.com/firefly-engineering/mythic-ctl/internal/errors"
	"github.com/firefly-engineering/mythic-ctl/internal/logging"
	"github.com/firefly-engineering/mythic-ctl/internal/stack"
)

// State labels
const (
	StateUninitialized    = "Uninitialized"
	StateInstalled        = "Installed"
	StateRestricted       = "Restricted"
	StatePluginsInstalled = "PluginsInstalled"
	StateCleanedUp        = "CleanedUp"
)

// State is what Probe observed about an installation directory.
type State struct {
	Exists           bool
	Configured       bool
	Running          bool
	Restricted       bool
	PluginsInstalled bool
}

// Label returns the primary state label.
func (s State) Label() string {
	switch {
	case !s.Exists:
		return StateCleanedUp
	case !s.Configured:
		return StateUninitialized
	case s.Restricted:
		return StateRestricted
	default:
		return StateInstalled
	}
}

// Labels returns the primary label followed by PluginsInstalled when set.
func (s State) Labels() []string {
	labels := []string{s.Label()}
	if s.Exists && s.PluginsInstalled {
		labels = append(labels, StatePluginsInstalled)
	}
	return labels
}

// Probe derives the current state from the target directory and the
// collaborators. Failing probes leave their flag unset.
func (o *Orchestrator) Probe(ctx context.Context) State {
	var s State
	if !o.deps.FS.IsDir(o.deps.Paths.Target) {
		return s
	}
	s.Exists = true

	cfg, err := envfile.Load(o.deps.Paths.EnvFile)
	switch {
	case err == nil:
		s.Configured = true
	case errors.Is(err, errors.ErrMalformed):
		s.Configured = true
		cfg = envfile.New()
	default:
		cfg = envfile.New()
	}

	if running, err := o.deps.Stack.Running(ctx, stack.Project(cfg)); err == nil {
		s.Running = running
	} else {
		logging.Debug("stack probe failed", "error", err)
	}

	if s.Configured {
		if restricted, err := o.deps.Firewall.Restricted(ctx, o.adminPort(cfg)); err == nil {
			s.Restricted = restricted
		} else {
			logging.Debug("firewall probe failed", "error", err)
		}
	}

	events, err := audit.Events(o.deps.Paths.AuditLog)
	if err != nil {
		logging.Debug("audit log unreadable", "error", err)
	}
	s.PluginsInstalled = pluginsInstalled(events)

	return s
}

// pluginsInstalled replays plugin install and uninstall events.
func pluginsInstalled(events []audit.Event) bool {
	installed := false
	for _, e := range events {
		switch {
		case e.Step == audit.StepPlugins && (e.Status == audit.StatusOK || e.Status == audit.StatusWarning):
			installed = true
		case e.Step == audit.StepUninstall && e.Status == audit.StatusOK:
			installed = false
		}
	}
	return installed
}
