package lifecycle

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/firefly-engineering/mythic-ctl/internal/audit"
	"github.com/firefly-engineering/mythic-ctl/internal/config"
	"github.com/firefly-engineering/mythic-ctl/internal/envfile"
	"github.com/firefly-engineering/mythic-ctl/internal/errors"
	"github.com/firefly-engineering/mythic-ctl/internal/firewall"
	"github.com/firefly-engineering/mythic-ctl/internal/lock"
	"github.com/firefly-engineering/mythic-ctl/internal/logging"
	"github.com/firefly-engineering/mythic-ctl/internal/platform"
	"github.com/firefly-engineering/mythic-ctl/internal/plugin"
	"github.com/firefly-engineering/mythic-ctl/internal/repository"
	"github.com/firefly-engineering/mythic-ctl/internal/stack"
	"github.com/firefly-engineering/mythic-ctl/internal/system"
)

// DefaultAdminPort is the admin portal port when neither the settings nor
// the configuration name one.
const DefaultAdminPort = 7443

// Deps holds everything an Orchestrator works with. Nothing reads process
// state on its own: the target and privilege are resolved by the caller.
type Deps struct {
	Paths      *config.Paths
	Settings   *config.Settings
	Privilege  system.Privilege
	FS         system.FileSystem
	Repository *repository.Manager
	Stack      *stack.Controller
	Firewall   *firewall.Manager
	Platform   PlatformDetector
	Confirm    Confirmer
	Progress   Progress
}

// PlatformDetector identifies the host for the container engine bootstrap.
type PlatformDetector interface {
	Detect(ctx context.Context) platform.OS
}

// Orchestrator runs the lifecycle flows against one installation directory.
type Orchestrator struct {
	deps Deps
}

// New creates an Orchestrator.
func New(deps Deps) *Orchestrator {
	if deps.Settings == nil {
		deps.Settings = config.DefaultSettings()
	}
	if deps.FS == nil {
		deps.FS = system.DefaultFS()
	}
	if deps.Platform == nil {
		deps.Platform = platform.Fixed(platform.Unknown)
	}
	if deps.Progress == nil {
		deps.Progress = noProgress{}
	}
	return &Orchestrator{deps: deps}
}

// Run dispatches intent. The returned error is fatal; failures of best
// effort steps are in Report.Err. The Report is never nil.
func (o *Orchestrator) Run(ctx context.Context, intent Intent) (*Report, error) {
	report := &Report{RunID: audit.NewRunID(), Flow: intent.Flow()}
	logging.Debug("running", "flow", report.Flow, "run_id", report.RunID, "target", o.deps.Paths.Target)

	var err error
	switch report.Flow {
	case FlowPrint:
		err = o.print(report)
	case FlowCleanup:
		err = o.cleanup(ctx, intent, report)
	default:
		err = o.install(ctx, intent, report)
	}
	return report, err
}

func (o *Orchestrator) print(report *Report) error {
	cfg, err := envfile.Load(o.deps.Paths.EnvFile)
	switch {
	case err == nil:
		report.Rendered = envfile.Render(cfg)
	case errors.Is(err, errors.ErrNotFound):
		report.Rendered = envfile.Render(nil)
	default:
		return err
	}
	return nil
}

// begin takes the lock and opens the audit journal for a mutating flow.
func (o *Orchestrator) begin(ctx context.Context, report *Report) (*lock.Lock, *journal, error) {
	lk, err := lock.Acquire(o.deps.Paths.LockFile)
	if err != nil {
		return nil, nil, err
	}

	state := o.Probe(ctx)
	report.Before = &state
	logging.Debug("observed state", "labels", state.Labels(), "running", state.Running)

	j := &journal{logger: audit.NewLogger(o.deps.Paths.AuditLog, report.RunID, string(report.Flow))}
	return lk, j, nil
}

func (o *Orchestrator) install(ctx context.Context, intent Intent, report *Report) error {
	var src firewall.TrustedSource
	if intent.Source != "" {
		parsed, err := firewall.ParseTrustedSource(intent.Source)
		if err != nil {
			return err
		}
		src = parsed
	}

	if err := o.deps.Privilege.Require("install"); err != nil {
		return err
	}
	if err := o.ensureTarget(); err != nil {
		return err
	}

	lk, j, err := o.begin(ctx, report)
	if err != nil {
		return err
	}
	defer lk.Release()

	target := o.deps.Paths.Target
	repo := o.deps.Settings.Repository

	outcome, err := o.deps.Repository.Ensure(ctx, repo.URL, repo.Branch, target)
	report.Repository = outcome
	switch {
	case err == nil:
		j.record(audit.StepRepository, audit.StatusOK, string(outcome))
	case errors.Is(err, errors.ErrLocalModified):
		report.RepositoryAdvisory = err
		logging.UserWarning("%v", err)
		j.record(audit.StepRepository, audit.StatusWarning, err.Error())
	default:
		j.record(audit.StepRepository, audit.StatusFailed, err.Error())
		return err
	}

	if err := o.deps.Stack.EnsureRuntime(ctx, target, o.deps.Platform.Detect(ctx)); err != nil {
		j.record(audit.StepRuntime, audit.StatusFailed, err.Error())
		return err
	}

	cfg, err := o.configure(intent, report)
	if err != nil {
		j.record(audit.StepConfig, audit.StatusFailed, err.Error())
		return err
	}
	j.record(audit.StepConfig, audit.StatusOK, string(report.ConfigOrigin))

	logging.UserInfo("Building and starting Mythic in %s", target)
	o.deps.Progress.Start("Building and starting Mythic...")
	err = o.deps.Stack.BuildAndStart(ctx, target, cfg)
	o.deps.Progress.Stop()
	if err != nil {
		j.record(audit.StepBuild, audit.StatusFailed, err.Error())
		return err
	}
	j.record(audit.StepBuild, audit.StatusOK, stack.Project(cfg))
	logging.UserSuccess("Mythic is running")

	if intent.Source != "" {
		o.restrict(ctx, src, cfg, report, j)
	}

	if intent.InstallPlugins {
		o.installPlugins(ctx, intent.plugins(), report, j)
	}

	return nil
}

func (o *Orchestrator) ensureTarget() error {
	target := o.deps.Paths.Target
	if o.deps.FS.Exists(target) && !o.deps.FS.IsDir(target) {
		return errors.TargetUnavailable(target, fmt.Errorf("not a directory"))
	}
	if err := o.deps.FS.MkdirAll(target, 0755); err != nil {
		return errors.TargetUnavailable(target, err)
	}
	return nil
}

// configure loads the stored configuration, applies the overrides and
// persists the result when anything changed.
func (o *Orchestrator) configure(intent Intent, report *Report) (*envfile.Configuration, error) {
	path := o.deps.Paths.EnvFile
	changed := false

	cfg, err := envfile.Load(path)
	switch {
	case err == nil:
		report.ConfigOrigin = OriginLoaded
	case errors.Is(err, errors.ErrNotFound):
		logging.Debug("no configuration, using defaults", "path", path)
		cfg = envfile.Defaults()
		report.ConfigOrigin = OriginDefaults
		changed = true
	case errors.Is(err, errors.ErrMalformed):
		backup, setErr := envfile.SetAside(path)
		if setErr != nil {
			return nil, setErr
		}
		logging.UserWarning("%v; saved as %s, continuing with defaults", err, backup)
		cfg = envfile.Defaults()
		report.ConfigOrigin = OriginRecovered
		report.MalformedBackup = backup
		changed = true
	default:
		return nil, err
	}

	if len(intent.Overrides) > 0 {
		cfg = envfile.Overlay(cfg, intent.Overrides)
		changed = true
	}

	if changed {
		if err := envfile.Persist(cfg, path); err != nil {
			return nil, err
		}
		report.Persisted = true
		logging.Debug("configuration persisted", "path", path, "keys", cfg.Len())
	}
	return cfg, nil
}

// adminPort picks the port to restrict: the settings file first, then
// NGINX_PORT, then the stock default.
func (o *Orchestrator) adminPort(cfg *envfile.Configuration) int {
	if port := o.deps.Settings.Firewall.AdminPort; port > 0 {
		return port
	}
	if v, ok := cfg.Get(envfile.AdminPortKey); ok {
		port, err := strconv.Atoi(v)
		if err == nil && port > 0 && port <= 65535 {
			return port
		}
		logging.Warn("ignoring invalid admin port", "key", envfile.AdminPortKey, "value", v)
	}
	return DefaultAdminPort
}

func (o *Orchestrator) restrict(ctx context.Context, src firewall.TrustedSource, cfg *envfile.Configuration, report *Report, j *journal) {
	port := o.adminPort(cfg)
	applied, err := o.deps.Firewall.RestrictAdminPort(ctx, src, port)
	if err != nil {
		report.RestrictionErr = err
		logging.Debug("admin port restriction failed", "port", port, "error", err)
		j.record(audit.StepFirewall, audit.StatusFailed, err.Error())
		return
	}

	report.Restriction = applied
	logging.UserSuccess("Admin port %d restricted to %s", applied.Port, applied.Source)
	j.record(audit.StepFirewall, audit.StatusOK, fmt.Sprintf("%s:%d", applied.Source, applied.Port))
}

func (o *Orchestrator) installPlugins(ctx context.Context, plugins []plugin.Plugin, report *Report, j *journal) {
	failures := errors.NewPartialFailure("plugin install", len(plugins))
	report.PluginFailures = failures

	o.deps.Progress.Start(fmt.Sprintf("Installing %d plugins...", len(plugins)))

	results := o.deps.Repository.EnsureAll(ctx, plugins, o.deps.Paths)
	for _, f := range results.Failures.Failures {
		failures.Add(f.Item, f.Err)
	}

	var sources []stack.PluginSource
	for _, r := range results.Ready() {
		sources = append(sources, stack.PluginSource{Name: r.Plugin.Name, Path: r.Path})
	}

	pr := o.deps.Stack.InstallPlugins(ctx, o.deps.Paths.Target, sources)
	o.deps.Progress.Stop()
	report.Plugins = pr
	for _, f := range pr.Failures.Failures {
		failures.Add(f.Item, f.Err)
	}

	if failures.Len() > 0 {
		j.record(audit.StepPlugins, audit.StatusWarning, fmt.Sprintf("%d of %d failed", failures.Len(), len(plugins)))
		return
	}
	logging.UserSuccess("Installed %d plugins", len(pr.Done))
	j.record(audit.StepPlugins, audit.StatusOK, fmt.Sprint(plugin.Names(plugins)))
}

func (o *Orchestrator) cleanup(ctx context.Context, intent Intent, report *Report) error {
	target := o.deps.Paths.Target
	if filepath.Clean(target) == string(filepath.Separator) {
		return errors.InvalidArgument("refusing to clean up the root directory")
	}

	if err := o.deps.Privilege.Require("cleanup"); err != nil {
		return err
	}

	if !o.deps.FS.IsDir(target) {
		logging.UserInfo("%s does not exist, nothing to clean up", target)
		return nil
	}

	lk, j, err := o.begin(ctx, report)
	if err != nil {
		return err
	}
	defer lk.Release()

	project := stack.DefaultProject
	if cfg, err := envfile.Load(o.deps.Paths.EnvFile); err == nil {
		project = stack.Project(cfg)
	}

	// A stop failure still lets the uninstall pass run; it only rules out
	// deletion.
	stopErr := o.deps.Stack.Stop(ctx, target, project)
	if stopErr != nil {
		j.record(audit.StepStop, audit.StatusFailed, stopErr.Error())
	} else {
		j.record(audit.StepStop, audit.StatusOK, project)
		logging.UserSuccess("Mythic stopped")
	}

	pr := o.deps.Stack.UninstallPlugins(ctx, target, plugin.Names(intent.plugins()))
	report.Plugins = pr
	if pr.Failures.Len() > 0 {
		report.PluginFailures = pr.Failures
		j.record(audit.StepUninstall, audit.StatusWarning, fmt.Sprintf("%d failed", pr.Failures.Len()))
	} else {
		j.record(audit.StepUninstall, audit.StatusOK, fmt.Sprintf("%d removed, %d not installed", len(pr.Done), len(pr.Skipped)))
	}

	if stopErr != nil {
		j.record(audit.StepDelete, audit.StatusSkipped, "stack not stopped")
		return stopErr
	}

	if o.deps.Confirm == nil || !o.deps.Confirm.ConfirmDeletion(target) {
		logging.UserInfo("Keeping %s", target)
		j.record(audit.StepDelete, audit.StatusSkipped, "declined")
		return nil
	}
	report.DeletionConfirmed = true

	stopped, err := o.deps.Stack.Stopped(ctx, project)
	if err != nil || !stopped {
		if err == nil {
			err = fmt.Errorf("compose project %s is still running", project)
		}
		j.record(audit.StepDelete, audit.StatusFailed, err.Error())
		return errors.Wrap(errors.KindStopFailed, errors.ExitStackFailed, "refusing to delete "+target, err)
	}

	// The journal lives inside the target, so this is its last entry.
	j.record(audit.StepDelete, audit.StatusOK, target)
	if err := o.deps.FS.RemoveAll(target); err != nil {
		return errors.TargetUnavailable(target, err)
	}
	report.Deleted = true
	logging.UserSuccess("Removed %s", target)
	return nil
}

// journal writes audit events. The audit trail never fails a flow.
type journal struct {
	logger *audit.Logger
}

func (j *journal) record(step audit.Step, status audit.Status, details string) {
	if err := j.logger.Record(step, status, details); err != nil {
		logging.Debug("audit write failed", "step", step, "error", err)
	}
}
