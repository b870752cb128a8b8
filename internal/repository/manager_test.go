package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cenkalti/backoff/v4"

	"github.com/firefly-engineering/mythic-ctl/internal/errors"
	"github.com/firefly-engineering/mythic-ctl/internal/plugin"
)

const mythicURL = "https://github.com/its-a-feature/Mythic"

func newTestManager(b Backend) *Manager {
	return NewManager(b, WithRetries(3), WithBackOff(func() backoff.BackOff {
		return &backoff.ZeroBackOff{}
	}))
}

func TestEnsure(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(f *FakeBackend)
		wantOutcome Outcome
		wantKind    errors.Kind
	}{
		{
			name:        "no checkout",
			setup:       func(f *FakeBackend) {},
			wantOutcome: Cloned,
		},
		{
			name: "current checkout",
			setup: func(f *FakeBackend) {
				f.Checkouts["/opt/mythic"] = &FakeCheckout{URL: mythicURL, Revision: 1}
				f.Upstream[mythicURL] = 1
			},
			wantOutcome: Unchanged,
		},
		{
			name: "behind upstream",
			setup: func(f *FakeBackend) {
				f.Checkouts["/opt/mythic"] = &FakeCheckout{URL: mythicURL + ".git", Revision: 1}
				f.Upstream[mythicURL] = 2
			},
			wantOutcome: Updated,
		},
		{
			name: "foreign origin",
			setup: func(f *FakeBackend) {
				f.Checkouts["/opt/mythic"] = &FakeCheckout{URL: "https://example.com/fork"}
			},
			wantOutcome: Unchanged,
			wantKind:    errors.KindLocalModified,
		},
		{
			name: "modified tracked files",
			setup: func(f *FakeBackend) {
				f.Checkouts["/opt/mythic"] = &FakeCheckout{URL: mythicURL, Dirty: true}
				f.Upstream[mythicURL] = 5
			},
			wantOutcome: Unchanged,
			wantKind:    errors.KindLocalModified,
		},
		{
			name: "diverged history",
			setup: func(f *FakeBackend) {
				f.Checkouts["/opt/mythic"] = &FakeCheckout{URL: mythicURL, Diverged: true}
			},
			wantOutcome: Unchanged,
			wantKind:    errors.KindLocalModified,
		},
		{
			name: "offline with checkout",
			setup: func(f *FakeBackend) {
				f.Checkouts["/opt/mythic"] = &FakeCheckout{URL: mythicURL}
				f.Unreachable[mythicURL] = true
			},
			wantOutcome: Unchanged,
		},
		{
			name: "offline without checkout",
			setup: func(f *FakeBackend) {
				f.Unreachable[mythicURL] = true
			},
			wantOutcome: Failed,
			wantKind:    errors.KindSourceUnavailable,
		},
		{
			name: "transient failures are retried",
			setup: func(f *FakeBackend) {
				f.FailuresBeforeSuccess[mythicURL] = 2
			},
			wantOutcome: Cloned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFakeBackend()
			tt.setup(f)

			outcome, err := newTestManager(f).Ensure(context.Background(), mythicURL, "master", "/opt/mythic")

			if outcome != tt.wantOutcome {
				t.Errorf("Ensure() outcome = %q, want %q", outcome, tt.wantOutcome)
			}
			if tt.wantKind == "" {
				if err != nil {
					t.Errorf("Ensure() error = %v, want nil", err)
				}
				return
			}
			if got := errors.GetKind(err); got != tt.wantKind {
				t.Errorf("Ensure() error kind = %q, want %q (%v)", got, tt.wantKind, err)
			}
		})
	}
}

func TestEnsure_LocalModifiedSkipsUpdate(t *testing.T) {
	f := NewFakeBackend()
	f.Checkouts["/opt/mythic"] = &FakeCheckout{URL: mythicURL, Dirty: true, Revision: 1}
	f.Upstream[mythicURL] = 3

	newTestManager(f).Ensure(context.Background(), mythicURL, "master", "/opt/mythic")

	if got := f.Checkouts["/opt/mythic"].Revision; got != 1 {
		t.Errorf("Revision = %d, want 1 (operator edits must not be overwritten)", got)
	}
	for _, call := range f.Calls {
		if call == "fetch /opt/mythic" || call == "fast-forward /opt/mythic" {
			t.Errorf("unexpected call %q on a modified checkout", call)
		}
	}
}

func TestEnsure_RetriesAreBounded(t *testing.T) {
	f := NewFakeBackend()
	f.FailuresBeforeSuccess[mythicURL] = 5

	_, err := NewManager(f, WithRetries(2), WithBackOff(func() backoff.BackOff {
		return &backoff.ZeroBackOff{}
	})).Ensure(context.Background(), mythicURL, "master", "/opt/mythic")

	if !errors.Is(err, errors.ErrSourceUnavailable) {
		t.Fatalf("Ensure() error = %v, want SourceUnavailable", err)
	}
	if len(f.Calls) != 2 {
		t.Errorf("calls = %v, want 2 attempts", f.Calls)
	}
}

func TestEnsure_Cancelled(t *testing.T) {
	f := NewFakeBackend()
	f.Unreachable[mythicURL] = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestManager(f).Ensure(ctx, mythicURL, "master", "/opt/mythic")
	if err == nil {
		t.Fatal("Ensure() with cancelled context should fail")
	}
}

type testDirs string

func (d testDirs) PluginDir(name string) (string, error) {
	return filepath.Join(string(d), name), nil
}

func TestEnsureAll_PartialFailure(t *testing.T) {
	plugins, _ := plugin.Select([]string{"apfell", "http", "dns"})

	f := NewFakeBackend()
	f.Unreachable["https://github.com/MythicC2Profiles/http"] = true

	results := newTestManager(f).EnsureAll(context.Background(), plugins, testDirs("/opt/mythic/.mythic-ctl/plugins"))

	if len(results.Items) != 3 {
		t.Fatalf("Items = %d, want all 3 plugins attempted", len(results.Items))
	}
	if results.Failures.Len() != 1 {
		t.Fatalf("Failures = %d, want 1", results.Failures.Len())
	}
	if got := results.Failures.Items(); got[0] != "http" {
		t.Errorf("failed item = %q, want %q", got[0], "http")
	}

	ready := results.Ready()
	if len(ready) != 2 {
		t.Fatalf("Ready() = %d, want 2", len(ready))
	}
	if ready[0].Plugin.Name != "apfell" || ready[1].Plugin.Name != "dns" {
		t.Errorf("Ready() = %v, %v", ready[0].Plugin.Name, ready[1].Plugin.Name)
	}
	if !f.IsCheckout("/opt/mythic/.mythic-ctl/plugins/dns") {
		t.Error("plugin after the failing one should be checked out")
	}
}

func TestEnsureAll_AdvisoryIsNotFailure(t *testing.T) {
	plugins, _ := plugin.Select([]string{"apfell"})

	f := NewFakeBackend()
	f.Checkouts["/p/apfell"] = &FakeCheckout{URL: plugins[0].URL, Dirty: true}

	results := newTestManager(f).EnsureAll(context.Background(), plugins, testDirs("/p"))

	if results.Failures.Len() != 0 {
		t.Errorf("Failures = %v, want none", results.Failures)
	}
	if results.Items[0].Advisory == nil {
		t.Error("Advisory should record the local modification")
	}
	if len(results.Ready()) != 1 {
		t.Error("modified plugin checkout should still be ready")
	}
}

func TestSameRemote(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{mythicURL, mythicURL, true},
		{mythicURL + ".git", mythicURL, true},
		{mythicURL + "/", mythicURL, true},
		{"https://GitHub.com/its-a-feature/Mythic", mythicURL, true},
		{"https://github.com/someone/Mythic", mythicURL, false},
	}

	for _, tt := range tests {
		if got := SameRemote(tt.a, tt.b); got != tt.want {
			t.Errorf("SameRemote(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
