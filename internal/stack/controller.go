package stack

import (
	"context"
	"fmt"
	"strings"

	"github.com/firefly-engineering/mythic-ctl/internal/envfile"
	"github.com/firefly-engineering/mythic-ctl/internal/errors"
	"github.com/firefly-engineering/mythic-ctl/internal/logging"
	"github.com/firefly-engineering/mythic-ctl/internal/platform"
)

// DefaultProject is the compose project used when the configuration does
// not name one.
const DefaultProject = "mythic"

// notInstalledMarker is printed by the Mythic CLI when asked to uninstall a
// plugin it does not have.
const notInstalledMarker = "Failed to find any service folder"

// PluginSource is a plugin checkout ready for installation.
type PluginSource struct {
	Name string
	Path string
}

// PluginReport summarises a plugin install or uninstall pass.
type PluginReport struct {
	Done     []string
	Skipped  []string
	Failures *errors.PartialFailure
}

// Controller sequences stack operations.
type Controller struct {
	backend Backend
}

// NewController creates a Controller around backend.
func NewController(backend Backend) *Controller {
	return &Controller{backend: backend}
}

// Project returns the compose project named by cfg.
func Project(cfg *envfile.Configuration) string {
	return cfg.Lookup(envfile.ComposeProjectKey, DefaultProject)
}

// EnsureRuntime installs a container engine with the bootstrap script
// shipped in dir when none is available.
func (c *Controller) EnsureRuntime(ctx context.Context, dir string, host platform.OS) error {
	if c.backend.EngineAvailable() {
		return nil
	}

	script, ok := platform.DockerInstallScript(host)
	if !ok {
		return errors.BuildFailed("", fmt.Errorf("no container engine found and no installer for platform %s: %s",
			host, platform.Guidance(host)))
	}

	logging.Info("installing container engine", "script", script)
	output, err := c.backend.InstallEngine(ctx, dir, script)
	if err != nil {
		return errors.BuildFailed(output, err)
	}
	return nil
}

// BuildAndStart builds the stack then starts it with cfg as environment. It
// returns once the compose project reports running containers.
func (c *Controller) BuildAndStart(ctx context.Context, dir string, cfg *envfile.Configuration) error {
	output, err := c.backend.Build(ctx, dir)
	if err != nil {
		return errors.BuildFailed(output, err)
	}
	logging.Debug("build finished", "dir", dir)

	output, err = c.backend.Start(ctx, dir, cfg.Environ())
	if err != nil {
		return errors.StartFailed(output, err)
	}

	project := Project(cfg)
	running, err := c.backend.Running(ctx, project)
	if err != nil {
		return errors.StartFailed(output, err)
	}
	if !running {
		return errors.StartFailed(output, fmt.Errorf("compose project %s has no running containers", project))
	}

	logging.Info("stack running", "project", project)
	return nil
}

// Stop brings the stack down. A directory without the Mythic CLI and a
// stack that is not running both count as stopped.
func (c *Controller) Stop(ctx context.Context, dir, project string) error {
	if !c.backend.HasCLI(dir) {
		logging.Debug("no Mythic CLI, nothing to stop", "dir", dir)
		return nil
	}

	output, err := c.backend.Stop(ctx, dir)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if running, probeErr := c.backend.Running(ctx, project); probeErr == nil && !running {
		logging.Debug("stop reported an error but the stack is down", "error", err)
		return nil
	}
	return errors.StopFailed(output, err)
}

// Stopped reports whether the compose project is known to be down. Without
// a container engine nothing can be running.
func (c *Controller) Stopped(ctx context.Context, project string) (bool, error) {
	if !c.backend.EngineAvailable() {
		return true, nil
	}
	running, err := c.backend.Running(ctx, project)
	if err != nil {
		return false, err
	}
	return !running, nil
}

// Running reports whether the compose project has running containers.
func (c *Controller) Running(ctx context.Context, project string) (bool, error) {
	return c.backend.Running(ctx, project)
}

// InstallPlugins registers every plugin, continuing past failures.
func (c *Controller) InstallPlugins(ctx context.Context, dir string, plugins []PluginSource) *PluginReport {
	report := &PluginReport{Failures: errors.NewPartialFailure("plugin install", len(plugins))}

	for _, p := range plugins {
		if ctx.Err() != nil {
			report.Failures.Add(p.Name, ctx.Err())
			continue
		}
		output, err := c.backend.InstallPlugin(ctx, dir, p.Path)
		if err != nil {
			report.Failures.Add(p.Name, backendFailure(output, err))
			continue
		}
		logging.Info("installed plugin", "plugin", p.Name)
		report.Done = append(report.Done, p.Name)
	}

	return report
}

// UninstallPlugins removes every named plugin, continuing past failures.
// Plugins the Mythic CLI does not know are reported as skipped.
func (c *Controller) UninstallPlugins(ctx context.Context, dir string, names []string) *PluginReport {
	report := &PluginReport{Failures: errors.NewPartialFailure("plugin uninstall", len(names))}

	if !c.backend.HasCLI(dir) {
		report.Skipped = append(report.Skipped, names...)
		return report
	}

	for _, name := range names {
		if ctx.Err() != nil {
			report.Failures.Add(name, ctx.Err())
			continue
		}
		output, err := c.backend.UninstallPlugin(ctx, dir, strings.ToLower(name))
		switch {
		case strings.Contains(output, notInstalledMarker):
			logging.Debug("plugin not installed", "plugin", name)
			report.Skipped = append(report.Skipped, name)
		case err != nil:
			report.Failures.Add(name, backendFailure(output, err))
		default:
			logging.Info("uninstalled plugin", "plugin", name)
			report.Done = append(report.Done, name)
		}
	}

	return report
}

func backendFailure(output string, err error) error {
	output = strings.TrimSpace(output)
	if output == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, output)
}
