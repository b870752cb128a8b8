package firewall

import (
	"context"
	"fmt"
	"strings"

	"github.com/firefly-engineering/mythic-ctl/internal/system"
)

// Backend reads and atomically changes packet filter rules.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Rules lists the rules of chain in order.
	Rules(ctx context.Context, family Family, chain string) ([]Rule, error)

	// Apply commits tx as a single change.
	Apply(ctx context.Context, family Family, tx Transaction) error
}

// IptablesBackend implements Backend with iptables and iptables-restore.
type IptablesBackend struct {
	exec system.CommandExecutor
}

// Iptables returns a backend using the given executor.
func Iptables(exec system.CommandExecutor) *IptablesBackend {
	return &IptablesBackend{exec: exec}
}

func (b *IptablesBackend) Name() string {
	return "iptables"
}

func binaries(family Family) (list, restore string) {
	if family == IPv6 {
		return "ip6tables", "ip6tables-restore"
	}
	return "iptables", "iptables-restore"
}

func (b *IptablesBackend) Rules(ctx context.Context, family Family, chain string) ([]Rule, error) {
	list, _ := binaries(family)
	output, err := b.exec.Execute(ctx, list, "-w", "-t", "filter", "-S", chain)
	if err != nil {
		return nil, fmt.Errorf("%s -S %s: %s: %w", list, chain, strings.TrimSpace(string(output)), err)
	}

	var rules []Rule
	for _, line := range strings.Split(string(output), "\n") {
		if rule, ok := ParseRule(chain, strings.TrimSpace(line)); ok {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (b *IptablesBackend) Apply(ctx context.Context, family Family, tx Transaction) error {
	_, restore := binaries(family)
	output, err := b.exec.ExecuteWithStdin(ctx, tx.Restore(), restore, "-w", "--noflush")
	if err != nil {
		return fmt.Errorf("%s: %s: %w", restore, strings.TrimSpace(string(output)), err)
	}
	return nil
}
