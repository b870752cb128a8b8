package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/firefly-engineering/mythic-ctl/internal/errors"
)

const (
	DefaultRepositoryURL    = "https://github.com/its-a-feature/Mythic"
	DefaultRepositoryBranch = "master"
	DefaultRetries          = 3
	DefaultChain            = "DOCKER-USER"
	DefaultCLI              = "./mythic-cli"
	DefaultComposeCommand   = "docker"
)

// Settings is the decoded tool settings file.
type Settings struct {
	Repository RepositorySettings `toml:"repository"`
	Firewall   FirewallSettings   `toml:"firewall"`
	Stack      StackSettings      `toml:"stack"`
	Plugins    PluginSettings     `toml:"plugins"`
}

// RepositorySettings selects the main source tree.
type RepositorySettings struct {
	URL     string `toml:"url"`
	Branch  string `toml:"branch"`
	Retries int    `toml:"retries"` // Attempts for remote operations
}

// FirewallSettings selects where admin port rules are placed.
type FirewallSettings struct {
	Chain     string `toml:"chain"`
	AdminPort int    `toml:"admin_port"` // 0 follows NGINX_PORT
}

// StackSettings names the stack tooling.
type StackSettings struct {
	CLI            string `toml:"cli"`             // Mythic CLI, relative to the target
	ComposeCommand string `toml:"compose_command"` // Container engine used to probe the stack
}

// PluginSettings restricts the plugin catalog.
type PluginSettings struct {
	Select []string `toml:"select"`
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() *Settings {
	return &Settings{
		Repository: RepositorySettings{
			URL:     DefaultRepositoryURL,
			Branch:  DefaultRepositoryBranch,
			Retries: DefaultRetries,
		},
		Firewall: FirewallSettings{
			Chain: DefaultChain,
		},
		Stack: StackSettings{
			CLI:            DefaultCLI,
			ComposeCommand: DefaultComposeCommand,
		},
	}
}

// LoadSettings reads settings from path. A missing file is not an error
// unless required is set, which is the case for an explicit --config.
func LoadSettings(path string, required bool) (*Settings, error) {
	s := DefaultSettings()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return s, nil
		}
		return nil, errors.ConfigError(fmt.Sprintf("failed to read settings %s", path), err)
	}

	md, err := toml.DecodeFile(path, s)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to parse settings %s", path), err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, errors.ConfigError(fmt.Sprintf("unknown settings in %s: %s", path, strings.Join(keys, ", ")), nil)
	}

	if err := s.Validate(); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("invalid settings %s", path), err)
	}

	return s, nil
}

// Validate checks that the Settings are usable.
func (s *Settings) Validate() error {
	if s.Repository.URL == "" {
		return fmt.Errorf("repository.url is required")
	}
	if s.Repository.Branch == "" {
		return fmt.Errorf("repository.branch is required")
	}
	if s.Repository.Retries < 1 || s.Repository.Retries > 10 {
		return fmt.Errorf("repository.retries must be between 1 and 10 (got %d)", s.Repository.Retries)
	}
	if s.Firewall.Chain == "" || strings.ContainsAny(s.Firewall.Chain, " \t\n") {
		return fmt.Errorf("invalid firewall.chain %q", s.Firewall.Chain)
	}
	if s.Firewall.AdminPort < 0 || s.Firewall.AdminPort > 65535 {
		return fmt.Errorf("firewall.admin_port must be between 0 and 65535 (got %d)", s.Firewall.AdminPort)
	}
	if s.Stack.CLI == "" {
		return fmt.Errorf("stack.cli is required")
	}
	if s.Stack.ComposeCommand == "" {
		return fmt.Errorf("stack.compose_command is required")
	}
	return nil
}
