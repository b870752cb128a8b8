// Package app wires mythic-ctl's components for one installation directory.
// It allows dependency injection for testing.
package app

import (
	"github.com/cenkalti/backoff/v4"

	"github.com/firefly-engineering/mythic-ctl/internal/config"
	"github.com/firefly-engineering/mythic-ctl/internal/firewall"
	"github.com/firefly-engineering/mythic-ctl/internal/lifecycle"
	"github.com/firefly-engineering/mythic-ctl/internal/platform"
	"github.com/firefly-engineering/mythic-ctl/internal/repository"
	"github.com/firefly-engineering/mythic-ctl/internal/stack"
	"github.com/firefly-engineering/mythic-ctl/internal/system"
)

// App holds the application dependencies
type App struct {
	// Paths holds the locations derived from the installation directory
	Paths *config.Paths

	// Settings is the loaded tool settings
	Settings *config.Settings

	// Privilege is the detected process privilege
	Privilege system.Privilege

	Exec system.CommandExecutor
	FS   system.FileSystem

	// Backends default to the real tools when not injected
	Repository repository.Backend
	Stack      stack.Backend
	Firewall   firewall.Backend

	// Platform is detected by the install flow when empty
	Platform platform.OS

	// Confirm answers the cleanup deletion prompt
	Confirm lifecycle.Confirmer

	// Progress animates long running steps
	Progress lifecycle.Progress

	// BackOff overrides the retry policy for remote repository operations
	BackOff func() backoff.BackOff
}

// Option is a function that configures the App
type Option func(*App)

// WithSettings sets the tool settings
func WithSettings(s *config.Settings) Option {
	return func(a *App) {
		a.Settings = s
	}
}

// WithPrivilege sets the privilege instead of detecting it
func WithPrivilege(p system.Privilege) Option {
	return func(a *App) {
		a.Privilege = p
	}
}

// WithExecutor sets the command executor used by the real backends
func WithExecutor(exec system.CommandExecutor) Option {
	return func(a *App) {
		a.Exec = exec
	}
}

// WithFileSystem sets the file system
func WithFileSystem(fs system.FileSystem) Option {
	return func(a *App) {
		a.FS = fs
	}
}

// WithRepositoryBackend sets a custom repository backend
func WithRepositoryBackend(b repository.Backend) Option {
	return func(a *App) {
		a.Repository = b
	}
}

// WithStackBackend sets a custom stack backend
func WithStackBackend(b stack.Backend) Option {
	return func(a *App) {
		a.Stack = b
	}
}

// WithFirewallBackend sets a custom firewall backend
func WithFirewallBackend(b firewall.Backend) Option {
	return func(a *App) {
		a.Firewall = b
	}
}

// WithPlatform sets the host platform instead of detecting it
func WithPlatform(host platform.OS) Option {
	return func(a *App) {
		a.Platform = host
	}
}

// WithConfirmer sets the deletion prompt
func WithConfirmer(c lifecycle.Confirmer) Option {
	return func(a *App) {
		a.Confirm = c
	}
}

// WithProgress sets the progress indicator
func WithProgress(p lifecycle.Progress) Option {
	return func(a *App) {
		a.Progress = p
	}
}

// WithBackOff sets the retry policy for remote repository operations
func WithBackOff(f func() backoff.BackOff) Option {
	return func(a *App) {
		a.BackOff = f
	}
}

// New creates an App for paths. Backends not provided via options are the
// real implementations built from the settings.
func New(paths *config.Paths, privilege system.Privilege, opts ...Option) *App {
	app := &App{
		Paths:     paths,
		Settings:  config.DefaultSettings(),
		Privilege: privilege,
		Exec:      system.DefaultExecutor(),
		FS:        system.DefaultFS(),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.Repository == nil {
		app.Repository = repository.Git(app.Exec, app.FS)
	}
	if app.Stack == nil {
		app.Stack = stack.NewMythicBackend(app.Exec, app.FS, app.Settings.Stack.CLI, app.Settings.Stack.ComposeCommand)
	}
	if app.Firewall == nil {
		app.Firewall = firewall.Iptables(app.Exec)
	}

	return app
}

// Orchestrator builds the lifecycle orchestrator.
func (a *App) Orchestrator() *lifecycle.Orchestrator {
	var detector lifecycle.PlatformDetector = platform.NewDetector(a.Exec)
	if a.Platform != "" {
		detector = platform.Fixed(a.Platform)
	}

	repoOpts := []repository.Option{repository.WithRetries(a.Settings.Repository.Retries)}
	if a.BackOff != nil {
		repoOpts = append(repoOpts, repository.WithBackOff(a.BackOff))
	}

	return lifecycle.New(lifecycle.Deps{
		Paths:      a.Paths,
		Settings:   a.Settings,
		Privilege:  a.Privilege,
		FS:         a.FS,
		Repository: repository.NewManager(a.Repository, repoOpts...),
		Stack:      stack.NewController(a.Stack),
		Firewall:   firewall.NewManager(a.Firewall, a.Settings.Firewall.Chain),
		Platform:   detector,
		Confirm:    a.Confirm,
		Progress:   a.Progress,
	})
}
