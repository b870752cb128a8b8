package lifecycle

import (
	"github.com/firefly-engineering/mythic-ctl/internal/envfile"
	"github.com/firefly-engineering/mythic-ctl/internal/plugin"
)

// Flow is the branch an invocation takes.
type Flow string

const (
	FlowPrint   Flow = "print"
	FlowCleanup Flow = "cleanup"
	FlowInstall Flow = "install"
)

// Intent is the resolved set of actions requested for one invocation.
type Intent struct {
	// Overrides are merged over the stored configuration before the build.
	Overrides []envfile.Override

	// Source is the trusted address or CIDR for the admin port. Empty
	// leaves the firewall alone.
	Source string

	// InstallPlugins checks out and installs Plugins after the base install.
	InstallPlugins bool

	// Plugins is the catalog subset for install and cleanup. Empty means
	// the whole catalog.
	Plugins []plugin.Plugin

	Cleanup bool
	Print   bool
}

// Flow returns the flow the intent dispatches to. Print and cleanup are
// terminal: when either is set every other field is ignored.
func (i Intent) Flow() Flow {
	switch {
	case i.Print:
		return FlowPrint
	case i.Cleanup:
		return FlowCleanup
	default:
		return FlowInstall
	}
}

func (i Intent) plugins() []plugin.Plugin {
	if len(i.Plugins) == 0 {
		return plugin.Catalog
	}
	return i.Plugins
}

// Confirmer decides whether the installation directory may be deleted.
type Confirmer interface {
	ConfirmDeletion(path string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(path string) bool

func (f ConfirmFunc) ConfirmDeletion(path string) bool {
	return f(path)
}

// Progress shows that a long running step is in flight.
type Progress interface {
	Start(message string)
	Stop()
}

type noProgress struct{}

func (noProgress) Start(string) {}
func (noProgress) Stop()        {}
