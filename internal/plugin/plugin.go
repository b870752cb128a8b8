// Package plugin holds the catalog of stock Mythic agents and C2 profiles.
package plugin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/firefly-engineering/mythic-ctl/internal/errors"
)

// Kind distinguishes payload agents from C2 profiles.
type Kind string

const (
	KindAgent   Kind = "agent"
	KindProfile Kind = "profile"
)

// Plugin is a catalog entry.
type Plugin struct {
	Name string
	URL  string
	Kind Kind
}

func (p Plugin) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Kind)
}

// Catalog is the fixed set of installable plugins. Versions are tracked by
// the upstream repositories, not here.
var Catalog = []Plugin{
	{Name: "apfell", URL: "https://github.com/MythicAgents/apfell", Kind: KindAgent},
	{Name: "Hannibal", URL: "https://github.com/MythicAgents/Hannibal", Kind: KindAgent},
	{Name: "Athena", URL: "https://github.com/MythicAgents/Athena", Kind: KindAgent},
	{Name: "http", URL: "https://github.com/MythicC2Profiles/http", Kind: KindProfile},
	{Name: "httpx", URL: "https://github.com/MythicC2Profiles/httpx", Kind: KindProfile},
	{Name: "dns", URL: "https://github.com/MythicC2Profiles/dns", Kind: KindProfile},
	{Name: "websocket", URL: "https://github.com/MythicC2Profiles/websocket", Kind: KindProfile},
}

// Lookup finds a catalog entry by name, ignoring case.
func Lookup(name string) (Plugin, bool) {
	for _, p := range Catalog {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Plugin{}, false
}

// Select returns the catalog entries named in names, in catalog order.
// An empty selection means the whole catalog. Unknown names are an
// InvalidArgument error listing the valid ones.
func Select(names []string) ([]Plugin, error) {
	if len(names) == 0 {
		return append([]Plugin(nil), Catalog...), nil
	}

	wanted := make(map[string]bool, len(names))
	var unknown []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		p, ok := Lookup(n)
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		wanted[p.Name] = true
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errors.InvalidArgument(fmt.Sprintf("unknown plugins %s (available: %s)",
			strings.Join(unknown, ", "), strings.Join(Names(Catalog), ", ")))
	}

	var out []Plugin
	for _, p := range Catalog {
		if wanted[p.Name] {
			out = append(out, p)
		}
	}
	return out, nil
}

// Names returns the names of plugins.
func Names(plugins []Plugin) []string {
	names := make([]string, 0, len(plugins))
	for _, p := range plugins {
		names = append(names, p.Name)
	}
	return names
}
