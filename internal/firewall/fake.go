package firewall

import (
	"context"
	"fmt"
	"sync"
)

// FakeBackend is an in-memory Backend for tests. It applies transactions
// with the same all-or-nothing semantics as iptables-restore.
type FakeBackend struct {
	mu sync.Mutex

	// Chains maps family and chain name to its rules.
	Chains map[Family]map[string][]Rule

	// RulesErr and ApplyErr are returned by the respective calls when set.
	RulesErr error
	ApplyErr error

	// Applied records every committed transaction.
	Applied []Transaction
}

// NewFakeBackend creates a FakeBackend with an empty DOCKER-USER chain in
// both families.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Chains: map[Family]map[string][]Rule{
			IPv4: {"DOCKER-USER": nil},
			IPv6: {"DOCKER-USER": nil},
		},
	}
}

func (f *FakeBackend) Name() string {
	return "fake"
}

func (f *FakeBackend) Rules(ctx context.Context, family Family, chain string) ([]Rule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RulesErr != nil {
		return nil, f.RulesErr
	}
	rules, ok := f.Chains[family][chain]
	if !ok {
		return nil, fmt.Errorf("chain %s does not exist", chain)
	}
	return append([]Rule(nil), rules...), nil
}

func (f *FakeBackend) Apply(ctx context.Context, family Family, tx Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ApplyErr != nil {
		return f.ApplyErr
	}
	rules, ok := f.Chains[family][tx.Chain]
	if !ok {
		return fmt.Errorf("chain %s does not exist", tx.Chain)
	}

	working := append([]Rule(nil), rules...)
	for _, d := range tx.Delete {
		idx := -1
		for i, r := range working {
			if r.equal(d) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("delete: no matching rule %s", d.Spec())
		}
		working = append(working[:idx], working[idx+1:]...)
	}

	out := append([]Rule(nil), tx.Insert...)
	out = append(out, working...)
	f.Chains[family][tx.Chain] = out
	f.Applied = append(f.Applied, tx)
	return nil
}

// AddRule appends a rule to a chain, as another tool would.
func (f *FakeBackend) AddRule(family Family, chain string, rule Rule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Chains[family] == nil {
		f.Chains[family] = make(map[string][]Rule)
	}
	f.Chains[family][chain] = append(f.Chains[family][chain], rule)
}
