package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/firefly-engineering/mythic-ctl/internal/system"
)

// GitBackend implements Backend with the git command line client.
type GitBackend struct {
	exec system.CommandExecutor
	fs   system.FileSystem
}

// Git returns a git backend using the given executor and file system.
func Git(exec system.CommandExecutor, fs system.FileSystem) *GitBackend {
	return &GitBackend{exec: exec, fs: fs}
}

func (b *GitBackend) Name() string {
	return "git"
}

func (b *GitBackend) IsCheckout(path string) bool {
	// .git can be a directory (normal repo) or a file (worktree)
	return b.fs.Exists(filepath.Join(path, ".git"))
}

func (b *GitBackend) DefaultBranch(ctx context.Context, url string) (string, error) {
	output, err := b.git(ctx, "ls-remote", "--symref", url, "HEAD")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(output, "\n") {
		// ref: refs/heads/master	HEAD
		rest, ok := strings.CutPrefix(line, "ref: refs/heads/")
		if !ok {
			continue
		}
		branch, _, _ := strings.Cut(rest, "\t")
		if branch = strings.TrimSpace(branch); branch != "" {
			return branch, nil
		}
	}
	return "", fmt.Errorf("remote %s does not advertise a HEAD branch", url)
}

// Checkout initialises the repository in place instead of cloning, since
// the target directory usually exists already (it holds the lock file).
func (b *GitBackend) Checkout(ctx context.Context, url, branch, path string) error {
	if _, err := b.git(ctx, "init", "--quiet", path); err != nil {
		return err
	}

	steps := [][]string{
		{"-C", path, "remote", "add", "origin", url},
		{"-C", path, "fetch", "--quiet", "origin", branch},
		{"-C", path, "checkout", "--quiet", "-B", branch, "FETCH_HEAD"},
		{"-C", path, "branch", "--quiet", "--set-upstream-to", "origin/" + branch},
	}
	for _, args := range steps {
		if _, err := b.git(ctx, args...); err != nil {
			// Leave no half-initialised repository behind, so the next run
			// starts from scratch instead of treating it as a checkout.
			_ = b.fs.RemoveAll(filepath.Join(path, ".git"))
			return err
		}
	}
	return nil
}

func (b *GitBackend) RemoteURL(ctx context.Context, path string) (string, error) {
	output, err := b.git(ctx, "-C", path, "remote", "get-url", "origin")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

func (b *GitBackend) HasLocalChanges(ctx context.Context, path string) (bool, error) {
	output, err := b.git(ctx, "-C", path, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) != "", nil
}

func (b *GitBackend) Fetch(ctx context.Context, path, branch string) error {
	_, err := b.git(ctx, "-C", path, "fetch", "--quiet", "origin", branch)
	return err
}

func (b *GitBackend) FastForward(ctx context.Context, path, branch string) (bool, error) {
	before, err := b.head(ctx, path)
	if err != nil {
		return false, err
	}
	if _, err := b.git(ctx, "-C", path, "merge", "--ff-only", "--quiet", "FETCH_HEAD"); err != nil {
		return false, err
	}
	after, err := b.head(ctx, path)
	if err != nil {
		return false, err
	}
	return before != after, nil
}

func (b *GitBackend) head(ctx context.Context, path string) (string, error) {
	output, err := b.git(ctx, "-C", path, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// git runs a git command with prompts disabled, so a missing credential
// fails instead of waiting on a terminal.
func (b *GitBackend) git(ctx context.Context, args ...string) (string, error) {
	output, err := b.exec.ExecuteIn(ctx, system.ExecOptions{
		Env: []string{"GIT_TERMINAL_PROMPT=0"},
	}, "git", args...)
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(output)), err)
	}
	return string(output), nil
}
