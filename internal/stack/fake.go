package stack

import (
	"context"
	"fmt"
	"sync"
)

// FakeBackend is an in-memory Backend for tests.
type FakeBackend struct {
	mu sync.Mutex

	// CLI marks directories that contain the Mythic CLI.
	CLI map[string]bool
	// Engine reports whether a container engine is installed.
	Engine bool
	// Up is the set of running compose projects.
	Up map[string]bool
	// Plugins is the set of installed plugin names.
	Plugins map[string]bool

	// Outputs maps an operation name to the output it returns.
	Outputs map[string]string
	// Errors maps an operation name to the error it returns.
	Errors map[string]error
	// PluginErrors maps a plugin source or name to the error its install
	// or uninstall returns.
	PluginErrors map[string]error
	// Project is the compose project Start brings up.
	Project string

	Calls []string
}

// NewFakeBackend creates a fake whose directories all have the Mythic CLI.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Engine:       true,
		Up:           make(map[string]bool),
		Plugins:      make(map[string]bool),
		Outputs:      make(map[string]string),
		Errors:       make(map[string]error),
		PluginErrors: make(map[string]error),
		Project:      DefaultProject,
	}
}

func (f *FakeBackend) record(call string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprint(append([]any{call}, args...)...))
}

func (f *FakeBackend) Name() string {
	return "fake"
}

func (f *FakeBackend) HasCLI(dir string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CLI == nil {
		return true
	}
	return f.CLI[dir]
}

func (f *FakeBackend) EngineAvailable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Engine
}

func (f *FakeBackend) InstallEngine(_ context.Context, _ string, script string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("install-engine ", script)
	if err := f.Errors["install-engine"]; err != nil {
		return f.Outputs["install-engine"], err
	}
	f.Engine = true
	return f.Outputs["install-engine"], nil
}

func (f *FakeBackend) Build(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("build")
	return f.Outputs["build"], f.Errors["build"]
}

func (f *FakeBackend) Start(_ context.Context, _ string, _ []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("start")
	if err := f.Errors["start"]; err != nil {
		return f.Outputs["start"], err
	}
	f.Up[f.Project] = true
	return f.Outputs["start"], nil
}

func (f *FakeBackend) Stop(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("stop")
	if err := f.Errors["stop"]; err != nil {
		return f.Outputs["stop"], err
	}
	clear(f.Up)
	return f.Outputs["stop"], nil
}

func (f *FakeBackend) Running(_ context.Context, project string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Errors["running"]; err != nil {
		return false, err
	}
	return f.Up[project], nil
}

func (f *FakeBackend) InstallPlugin(_ context.Context, _ string, source string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("install ", source)
	if err := f.PluginErrors[source]; err != nil {
		return "", err
	}
	f.Plugins[source] = true
	return "", nil
}

func (f *FakeBackend) UninstallPlugin(_ context.Context, _ string, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("uninstall ", name)
	if err := f.PluginErrors[name]; err != nil {
		return "", err
	}
	if !f.Plugins[name] {
		return notInstalledMarker + " for " + name, fmt.Errorf("exit status 1")
	}
	delete(f.Plugins, name)
	return "", nil
}
