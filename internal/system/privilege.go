package system

import (
	"golang.org/x/sys/unix"

	"github.com/firefly-engineering/mythic-ctl/internal/errors"
)

// Privilege records whether the process may run privileged container and
// packet-filter operations. It is detected once in main and passed down, so
// components never consult the process credentials themselves.
type Privilege struct {
	Elevated bool
	UID      int
}

// DetectPrivilege inspects the effective UID of the current process.
func DetectPrivilege() Privilege {
	uid := unix.Geteuid()
	return Privilege{Elevated: uid == 0, UID: uid}
}

// Root returns an elevated Privilege (useful for testing).
func Root() Privilege {
	return Privilege{Elevated: true, UID: 0}
}

// Require fails with PrivilegeRequired when the process is not elevated.
func (p Privilege) Require(operation string) error {
	if !p.Elevated {
		return errors.PrivilegeRequired(operation)
	}
	return nil
}
