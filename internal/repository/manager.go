package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/firefly-engineering/mythic-ctl/internal/errors"
	"github.com/firefly-engineering/mythic-ctl/internal/logging"
	"github.com/firefly-engineering/mythic-ctl/internal/plugin"
)

// Outcome describes what Ensure did to a checkout.
type Outcome string

const (
	Cloned    Outcome = "cloned"
	Updated   Outcome = "updated"
	Unchanged Outcome = "unchanged"
	Failed    Outcome = "failed"
)

// Manager ensures checkouts are present and current.
type Manager struct {
	backend    Backend
	retries    int
	newBackOff func() backoff.BackOff
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetries sets the number of attempts for remote operations.
func WithRetries(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.retries = n
		}
	}
}

// WithBackOff replaces the delay policy between attempts.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(m *Manager) {
		m.newBackOff = f
	}
}

// NewManager creates a Manager around backend.
func NewManager(backend Backend, opts ...Option) *Manager {
	m := &Manager{
		backend: backend,
		retries: 3,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ensure makes path a current checkout of url at branch. An empty branch
// follows the remote's default branch.
//
// A LocalModified error is advisory: the checkout at path is usable but was
// not updated. SourceUnavailable means there is no usable checkout.
func (m *Manager) Ensure(ctx context.Context, url, branch, path string) (Outcome, error) {
	if !m.backend.IsCheckout(path) {
		return m.checkout(ctx, url, branch, path)
	}

	origin, err := m.backend.RemoteURL(ctx, path)
	if err != nil {
		return Unchanged, errors.LocalModified(path, "origin remote cannot be read")
	}
	if !SameRemote(origin, url) {
		return Unchanged, errors.LocalModified(path, fmt.Sprintf("origin is %s, not %s", origin, url))
	}

	dirty, err := m.backend.HasLocalChanges(ctx, path)
	if err != nil {
		return Unchanged, errors.LocalModified(path, "working tree cannot be inspected")
	}
	if dirty {
		return Unchanged, errors.LocalModified(path, "tracked files have local modifications")
	}

	if branch == "" {
		branch, err = m.defaultBranch(ctx, url)
		if err != nil {
			m.warnOffline(path, url, err)
			return Unchanged, ctx.Err()
		}
	}

	if err := m.retry(ctx, func() error { return m.backend.Fetch(ctx, path, branch) }); err != nil {
		m.warnOffline(path, url, err)
		return Unchanged, ctx.Err()
	}

	moved, err := m.backend.FastForward(ctx, path, branch)
	if err != nil {
		logging.Debug("fast-forward failed", "path", path, "error", err)
		return Unchanged, errors.LocalModified(path, fmt.Sprintf("history diverged from origin/%s", branch))
	}
	if moved {
		logging.Info("updated checkout", "path", path, "branch", branch)
		return Updated, nil
	}
	return Unchanged, nil
}

func (m *Manager) checkout(ctx context.Context, url, branch, path string) (Outcome, error) {
	if branch == "" {
		var err error
		if branch, err = m.defaultBranch(ctx, url); err != nil {
			return Failed, errors.SourceUnavailable(url, err)
		}
	}

	err := m.retry(ctx, func() error { return m.backend.Checkout(ctx, url, branch, path) })
	if err != nil {
		return Failed, errors.SourceUnavailable(url, err)
	}

	logging.Info("created checkout", "url", url, "branch", branch, "path", path)
	return Cloned, nil
}

func (m *Manager) defaultBranch(ctx context.Context, url string) (string, error) {
	var branch string
	err := m.retry(ctx, func() error {
		var err error
		branch, err = m.backend.DefaultBranch(ctx, url)
		return err
	})
	return branch, err
}

func (m *Manager) warnOffline(path, url string, err error) {
	logging.Warn("remote unreachable, using existing checkout",
		"path", path, "url", url, "error", err)
}

// retry runs op up to m.retries times. Cancellation stops retrying at once.
func (m *Manager) retry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(m.newBackOff(), uint64(m.retries-1)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if err != nil {
			logging.Debug("remote operation failed", "attempt", attempt, "error", err)
		}
		return err
	}, policy)
}

// SameRemote compares repository URLs, ignoring case, a trailing slash and
// a trailing .git suffix.
func SameRemote(a, b string) bool {
	return strings.EqualFold(normalizeRemote(a), normalizeRemote(b))
}

func normalizeRemote(u string) string {
	u = strings.TrimSpace(u)
	u = strings.TrimSuffix(u, "/")
	u = strings.TrimSuffix(u, ".git")
	return u
}

// Dirs resolves the checkout directory of a plugin.
type Dirs interface {
	PluginDir(name string) (string, error)
}

// Result is the outcome for one plugin.
type Result struct {
	Plugin   plugin.Plugin
	Path     string
	Outcome  Outcome
	Advisory error
}

// Results collects the outcome of EnsureAll.
type Results struct {
	Items    []Result
	Failures *errors.PartialFailure
}

// Ready returns the plugins that have a usable checkout.
func (r *Results) Ready() []Result {
	var ready []Result
	for _, item := range r.Items {
		if item.Outcome != Failed {
			ready = append(ready, item)
		}
	}
	return ready
}

// EnsureAll ensures a checkout for every plugin. Each plugin is attempted
// no matter how the others fare; failures are collected in Results.Failures.
// Advisories for plugins are recorded but do not count as failures.
func (m *Manager) EnsureAll(ctx context.Context, plugins []plugin.Plugin, dirs Dirs) *Results {
	results := &Results{Failures: errors.NewPartialFailure("plugin checkout", len(plugins))}

	for _, p := range plugins {
		if ctx.Err() != nil {
			results.Failures.Add(p.Name, ctx.Err())
			results.Items = append(results.Items, Result{Plugin: p, Outcome: Failed})
			continue
		}

		path, err := dirs.PluginDir(p.Name)
		if err != nil {
			results.Failures.Add(p.Name, err)
			results.Items = append(results.Items, Result{Plugin: p, Outcome: Failed})
			continue
		}

		outcome, err := m.Ensure(ctx, p.URL, "", path)
		item := Result{Plugin: p, Path: path, Outcome: outcome}
		switch {
		case err == nil:
		case errors.Is(err, errors.ErrLocalModified):
			logging.Warn("plugin checkout not updated", "plugin", p.Name, "reason", err)
			item.Advisory = err
		default:
			item.Outcome = Failed
			results.Failures.Add(p.Name, err)
		}
		results.Items = append(results.Items, item)
	}

	return results
}
