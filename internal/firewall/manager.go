package firewall

import (
	"context"
	"fmt"

	"github.com/firefly-engineering/mythic-ctl/internal/errors"
	"github.com/firefly-engineering/mythic-ctl/internal/logging"
)

// Applied describes a completed restriction.
type Applied struct {
	Source TrustedSource
	Port   int
	Chain  string
	// Family is the family of Source, the only one with an allow rule.
	Family Family
	// Denied lists every family that now drops other traffic to Port.
	Denied  []Family
	Removed int
}

// Manager owns the marker-tagged admin port rules in one chain.
type Manager struct {
	backend Backend
	chain   string
}

// NewManager creates a Manager for chain.
func NewManager(backend Backend, chain string) *Manager {
	return &Manager{backend: backend, chain: chain}
}

// Chain returns the managed chain.
func (m *Manager) Chain() string {
	return m.chain
}

// RestrictAdminPort lets only src reach port. Marker rules from earlier
// calls for the same port are removed in both families. The allow rule goes
// into the family of src; a deny rule goes into every family whose chain
// can be listed, so repeated calls leave one allow and one deny rule per
// family at most.
//
// Invalid input fails with InvalidArgument before the backend is touched.
// Each family is committed in one transaction. A rejected change fails with
// BackendError; the family of src is committed first, and a rejection
// there leaves both chains as they were.
func (m *Manager) RestrictAdminPort(ctx context.Context, src TrustedSource, port int) (*Applied, error) {
	if src.IsZero() {
		return nil, errors.InvalidArgument("no trusted source given")
	}
	if port < 1 || port > 65535 {
		return nil, errors.InvalidArgument(fmt.Sprintf("invalid admin port %d", port))
	}

	family := src.Family()
	rules, err := m.backend.Rules(ctx, family, m.chain)
	if err != nil {
		return nil, errors.BackendError(fmt.Sprintf("cannot list chain %s", m.chain), err)
	}

	plan := []familyTx{{
		family: family,
		tx: Transaction{
			Chain:  m.chain,
			Delete: owned(rules, port),
			Insert: []Rule{AllowRule(src, port), DenyRule(port)},
		},
	}}

	other := otherFamily(family)
	if otherRules, err := m.backend.Rules(ctx, other, m.chain); err != nil {
		logging.Debug("skipping family without chain", "family", other, "chain", m.chain, "error", err)
	} else {
		plan = append(plan, familyTx{
			family: other,
			tx: Transaction{
				Chain:  m.chain,
				Delete: owned(otherRules, port),
				Insert: []Rule{DenyRule(port)},
			},
		})
	}

	applied := &Applied{Source: src, Port: port, Chain: m.chain, Family: family}
	for _, p := range plan {
		logging.Debug("applying firewall transaction",
			"backend", m.backend.Name(), "family", p.family, "rules", p.tx.Restore())

		if err := m.backend.Apply(ctx, p.family, p.tx); err != nil {
			return nil, errors.BackendError(
				fmt.Sprintf("packet filter rejected %s rules for port %d", p.family, port), err)
		}
		applied.Denied = append(applied.Denied, p.family)
		applied.Removed += len(p.tx.Delete)
	}

	logging.Info("restricted admin port",
		"port", port, "source", src.String(), "chain", m.chain,
		"denied", applied.Denied, "replaced", applied.Removed)

	return applied, nil
}

type familyTx struct {
	family Family
	tx     Transaction
}

func otherFamily(f Family) Family {
	if f == IPv6 {
		return IPv4
	}
	return IPv6
}

// Restricted reports whether a marker-tagged deny rule for port exists in
// either family. It does not change anything. A family whose chain cannot
// be listed is skipped; hosts without IPv6 forwarding have no ip6tables
// DOCKER-USER chain.
func (m *Manager) Restricted(ctx context.Context, port int) (bool, error) {
	var firstErr error
	listed := 0
	for _, family := range []Family{IPv4, IPv6} {
		rules, err := m.backend.Rules(ctx, family, m.chain)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		listed++
		for _, r := range owned(rules, port) {
			if r.Target() == "DROP" {
				return true, nil
			}
		}
	}
	if listed == 0 {
		return false, errors.BackendError(fmt.Sprintf("cannot list chain %s", m.chain), firstErr)
	}
	return false, nil
}

// owned filters rules carrying the marker for port.
func owned(rules []Rule, port int) []Rule {
	marker := Marker(port)
	var out []Rule
	for _, r := range rules {
		if r.Comment() == marker {
			out = append(out, r)
		}
	}
	return out
}
