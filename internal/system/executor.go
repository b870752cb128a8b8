package system

import (
	"context"
	"os"
	"os/exec"
	"strings"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/mythic-ctl/internal/logging"
)

// osExecutor implements CommandExecutor using real OS operations.
type osExecutor struct{}

func (e *osExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	return e.ExecuteIn(ctx, ExecOptions{}, name, args...)
}

func (e *osExecutor) ExecuteWithStdin(ctx context.Context, stdin string, name string, args ...string) ([]byte, error) {
	return e.ExecuteIn(ctx, ExecOptions{Stdin: stdin}, name, args...)
}

func (e *osExecutor) ExecuteIn(ctx context.Context, opts ExecOptions, name string, args ...string) ([]byte, error) {
	logging.Debug("running command",
		"cmd", CommandLine(name, args...),
		"dir", opts.Dir,
		"env", RedactEnv(opts.Env))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	if opts.Stdin != "" {
		cmd.Stdin = strings.NewReader(opts.Stdin)
	}
	return cmd.CombinedOutput()
}

func (e *osExecutor) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// CommandLine renders a command as a shell-quoted string for logs and messages.
func CommandLine(name string, args ...string) string {
	return shellquote.Join(append([]string{name}, args...)...)
}

// sensitiveMarkers flag environment keys whose values must not reach logs.
var sensitiveMarkers = []string{"SECRET", "PASSWORD", "TOKEN", "KEY"}

// RedactEnv returns env with the values of sensitive keys masked.
func RedactEnv(env []string) []string {
	out := make([]string, 0, len(env))
	for _, kv := range env {
		key, _, found := strings.Cut(kv, "=")
		if found && isSensitive(key) {
			out = append(out, key+"=<redacted>")
			continue
		}
		out = append(out, kv)
	}
	return out
}

func isSensitive(key string) bool {
	upper := strings.ToUpper(key)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
