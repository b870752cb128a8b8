package stack

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/firefly-engineering/mythic-ctl/internal/system"
)

// Backend runs stack operations for an installation directory.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// HasCLI reports whether the Mythic CLI exists in dir.
	HasCLI(dir string) bool

	// EngineAvailable reports whether a container engine is installed.
	EngineAvailable() bool

	// InstallEngine runs a bootstrap script from dir.
	InstallEngine(ctx context.Context, dir, script string) (string, error)

	// Build compiles the Mythic CLI and images.
	Build(ctx context.Context, dir string) (string, error)

	// Start brings the stack up with env added to its environment.
	Start(ctx context.Context, dir string, env []string) (string, error)

	// Stop brings the stack down.
	Stop(ctx context.Context, dir string) (string, error)

	// Running reports whether the compose project has running containers.
	Running(ctx context.Context, project string) (bool, error)

	// InstallPlugin registers the plugin checked out at source.
	InstallPlugin(ctx context.Context, dir, source string) (string, error)

	// UninstallPlugin removes a plugin by name.
	UninstallPlugin(ctx context.Context, dir, name string) (string, error)
}

// MythicBackend implements Backend with make, the Mythic CLI and a
// Docker-compatible engine.
type MythicBackend struct {
	exec   system.CommandExecutor
	fs     system.FileSystem
	cli    string
	engine string
}

// NewMythicBackend creates a backend. cli is the Mythic CLI, relative to the
// installation directory unless absolute; engine is the container engine
// command used to probe the stack.
func NewMythicBackend(exec system.CommandExecutor, fs system.FileSystem, cli, engine string) *MythicBackend {
	return &MythicBackend{exec: exec, fs: fs, cli: cli, engine: engine}
}

func (b *MythicBackend) Name() string {
	return "mythic-cli"
}

func (b *MythicBackend) cliPath(dir string) string {
	if filepath.IsAbs(b.cli) {
		return b.cli
	}
	return filepath.Join(dir, b.cli)
}

func (b *MythicBackend) HasCLI(dir string) bool {
	return b.fs.Exists(b.cliPath(dir))
}

func (b *MythicBackend) EngineAvailable() bool {
	_, err := b.exec.LookPath(b.engine)
	return err == nil
}

func (b *MythicBackend) InstallEngine(ctx context.Context, dir, script string) (string, error) {
	path := filepath.Join(dir, script)
	if !b.fs.Exists(path) {
		return "", fmt.Errorf("installation script not found: %s", path)
	}
	return b.run(ctx, system.ExecOptions{Dir: dir}, "bash", path)
}

func (b *MythicBackend) Build(ctx context.Context, dir string) (string, error) {
	return b.run(ctx, system.ExecOptions{Dir: dir}, "make")
}

func (b *MythicBackend) Start(ctx context.Context, dir string, env []string) (string, error) {
	return b.run(ctx, system.ExecOptions{Dir: dir, Env: env}, b.cliPath(dir), "start")
}

func (b *MythicBackend) Stop(ctx context.Context, dir string) (string, error) {
	return b.run(ctx, system.ExecOptions{Dir: dir}, b.cliPath(dir), "stop")
}

func (b *MythicBackend) Running(ctx context.Context, project string) (bool, error) {
	output, err := b.run(ctx, system.ExecOptions{}, b.engine,
		"ps", "--quiet", "--filter", "label=com.docker.compose.project="+project)
	if err != nil {
		return false, fmt.Errorf("%s ps: %s: %w", b.engine, strings.TrimSpace(output), err)
	}
	return strings.TrimSpace(output) != "", nil
}

func (b *MythicBackend) InstallPlugin(ctx context.Context, dir, source string) (string, error) {
	return b.run(ctx, system.ExecOptions{Dir: dir}, b.cliPath(dir), "install", "folder", source)
}

func (b *MythicBackend) UninstallPlugin(ctx context.Context, dir, name string) (string, error) {
	return b.run(ctx, system.ExecOptions{Dir: dir}, b.cliPath(dir), "uninstall", name)
}

func (b *MythicBackend) run(ctx context.Context, opts system.ExecOptions, name string, args ...string) (string, error) {
	output, err := b.exec.ExecuteIn(ctx, opts, name, args...)
	return string(output), err
}
