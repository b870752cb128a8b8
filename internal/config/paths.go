package config

import (
	"fmt"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
)

const (
	// StateDirName holds mythic-ctl's own files inside the target.
	StateDirName     = ".mythic-ctl"
	LockFileName     = ".mythic-ctl.lock"
	SettingsFileName = "mythic-ctl.toml"
	AuditFileName    = "events.jsonl"
	PluginsDirName   = "plugins"
	EnvFileName      = ".env"
)

// Paths holds every location derived from the installation target.
type Paths struct {
	Target       string
	EnvFile      string
	StateDir     string
	PluginsDir   string
	AuditLog     string
	LockFile     string
	SettingsFile string
}

// NewPaths derives the paths for target, which is made absolute.
func NewPaths(target string) (*Paths, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target directory %q: %w", target, err)
	}
	stateDir := filepath.Join(abs, StateDirName)
	return &Paths{
		Target:       abs,
		EnvFile:      filepath.Join(abs, EnvFileName),
		StateDir:     stateDir,
		PluginsDir:   filepath.Join(stateDir, PluginsDirName),
		AuditLog:     filepath.Join(stateDir, AuditFileName),
		LockFile:     filepath.Join(abs, LockFileName),
		SettingsFile: filepath.Join(abs, SettingsFileName),
	}, nil
}

// PluginDir returns the checkout directory of a plugin. The result always
// lies inside PluginsDir, whatever the name contains.
func (p *Paths) PluginDir(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid plugin name %q", name)
	}
	dir, err := securejoin.SecureJoin(p.PluginsDir, name)
	if err != nil {
		return "", fmt.Errorf("invalid plugin name %q: %w", name, err)
	}
	if dir == p.PluginsDir {
		return "", fmt.Errorf("invalid plugin name %q", name)
	}
	return dir, nil
}
