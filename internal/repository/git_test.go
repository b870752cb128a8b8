package repository

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/mythic-ctl/internal/errors"
	"github.com/firefly-engineering/mythic-ctl/internal/system"
)

// requireGit skips the test if git is not available
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH, skipping test")
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	args = append([]string{"-C", dir, "-c", "user.email=test@test.com", "-c", "user.name=Test User"}, args...)
	if output, err := exec.Command("git", args...).CombinedOutput(); err != nil {
		t.Fatalf("git %v: %s: %v", args, output, err)
	}
}

func commitFile(t *testing.T, repo, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(repo, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	runGit(t, repo, "add", name)
	runGit(t, repo, "commit", "--quiet", "-m", "update "+name)
}

// setupUpstream creates a repository on branch master with one commit.
func setupUpstream(t *testing.T) string {
	t.Helper()
	requireGit(t)
	upstream := t.TempDir()
	runGit(t, upstream, "init", "--quiet")
	runGit(t, upstream, "symbolic-ref", "HEAD", "refs/heads/master")
	commitFile(t, upstream, "Makefile", "all:\n")
	return upstream
}

func TestGitBackend_Lifecycle(t *testing.T) {
	upstream := setupUpstream(t)
	target := t.TempDir()

	// The target already holds files the upstream does not track.
	if err := os.WriteFile(filepath.Join(target, ".mythic-ctl.lock"), []byte("1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	backend := Git(system.DefaultExecutor(), system.DefaultFS())
	m := NewManager(backend, WithRetries(1))
	ctx := context.Background()

	outcome, err := m.Ensure(ctx, upstream, "", target)
	if err != nil {
		t.Fatalf("first Ensure() error: %v", err)
	}
	if outcome != Cloned {
		t.Errorf("first Ensure() = %q, want %q", outcome, Cloned)
	}
	if _, err := os.Stat(filepath.Join(target, "Makefile")); err != nil {
		t.Errorf("Makefile not checked out: %v", err)
	}

	outcome, err = m.Ensure(ctx, upstream, "master", target)
	if err != nil || outcome != Unchanged {
		t.Errorf("second Ensure() = %q, %v, want %q", outcome, err, Unchanged)
	}

	commitFile(t, upstream, "README.md", "# Mythic\n")
	outcome, err = m.Ensure(ctx, upstream, "master", target)
	if err != nil || outcome != Updated {
		t.Errorf("Ensure() after upstream commit = %q, %v, want %q", outcome, err, Updated)
	}

	if err := os.WriteFile(filepath.Join(target, "Makefile"), []byte("all:\n\techo edited\n"), 0644); err != nil {
		t.Fatal(err)
	}
	commitFile(t, upstream, "CHANGELOG.md", "v2\n")
	_, err = m.Ensure(ctx, upstream, "master", target)
	if !errors.Is(err, errors.ErrLocalModified) {
		t.Errorf("Ensure() with edited Makefile error = %v, want LocalModified", err)
	}
	if _, statErr := os.Stat(filepath.Join(target, "CHANGELOG.md")); statErr == nil {
		t.Error("modified checkout must not be updated")
	}
}

func TestGitBackend_ForeignOrigin(t *testing.T) {
	upstream := setupUpstream(t)
	other := setupUpstream(t)
	target := t.TempDir()

	m := NewManager(Git(system.DefaultExecutor(), system.DefaultFS()), WithRetries(1))
	if _, err := m.Ensure(context.Background(), other, "master", target); err != nil {
		t.Fatalf("Ensure() error: %v", err)
	}

	_, err := m.Ensure(context.Background(), upstream, "master", target)
	if !errors.Is(err, errors.ErrLocalModified) {
		t.Errorf("Ensure() error = %v, want LocalModified", err)
	}
}

func TestGitBackend_Unreachable(t *testing.T) {
	requireGit(t)
	target := t.TempDir()

	backend := Git(system.DefaultExecutor(), system.DefaultFS())
	_, err := NewManager(backend, WithRetries(1)).Ensure(context.Background(),
		filepath.Join(t.TempDir(), "missing"), "master", target)

	if !errors.Is(err, errors.ErrSourceUnavailable) {
		t.Fatalf("Ensure() error = %v, want SourceUnavailable", err)
	}
	if backend.IsCheckout(target) {
		t.Error("failed checkout must not leave a repository behind")
	}
}

func TestGitBackend_CommandLines(t *testing.T) {
	mock := system.NewMockExecutor()
	mock.AddResponse("git -C /opt/mythic remote get-url origin", []byte("https://github.com/its-a-feature/Mythic\n"), nil)

	backend := Git(mock, system.NewMockFS())
	url, err := backend.RemoteURL(context.Background(), "/opt/mythic")
	if err != nil {
		t.Fatalf("RemoteURL() error: %v", err)
	}
	if url != "https://github.com/its-a-feature/Mythic" {
		t.Errorf("RemoteURL() = %q", url)
	}

	cmd, _ := mock.LastCommand()
	if len(cmd.Env) != 1 || cmd.Env[0] != "GIT_TERMINAL_PROMPT=0" {
		t.Errorf("Env = %v, want prompts disabled", cmd.Env)
	}
}
