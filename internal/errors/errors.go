package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes for mythic-ctl
const (
	ExitSuccess           = 0
	ExitGeneralError      = 1
	ExitInvalidArgument   = 2
	ExitTargetUnavailable = 3
	ExitRepositoryError   = 4
	ExitStackFailed       = 5
	ExitFirewallError     = 6
	ExitPrivilegeRequired = 7
	ExitConfigError       = 8
	ExitLockHeld          = 9
	ExitPluginFailure     = 10
)

// Kind names a failure category. It is printed in front of every fatal error.
type Kind string

const (
	KindGeneral           Kind = "Error"
	KindInvalidArgument   Kind = "InvalidArgument"
	KindTargetUnavailable Kind = "TargetUnavailable"
	KindSourceUnavailable Kind = "SourceUnavailable"
	KindLocalModified     Kind = "LocalModified"
	KindBuildFailed       Kind = "BuildFailed"
	KindStartFailed       Kind = "StartFailed"
	KindStopFailed        Kind = "StopFailed"
	KindBackendError      Kind = "BackendError"
	KindMalformed         Kind = "Malformed"
	KindNotFound          Kind = "NotFound"
	KindPrivilegeRequired Kind = "PrivilegeRequired"
	KindLockHeld          Kind = "LockHeld"
	KindPluginFailure     Kind = "PluginFailure"
)

// Error is the base error type for mythic-ctl
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *Error) ExitCode() int {
	return e.Code
}

// Is reports whether target is an *Error of the same kind.
// This lets callers write errors.Is(err, errors.ErrNotFound).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

// New creates a new Error
func New(kind Kind, code int, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an Error
func Wrap(kind Kind, code int, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Sentinels for errors.Is comparisons against a kind.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrMalformed         = &Error{Kind: KindMalformed}
	ErrLocalModified     = &Error{Kind: KindLocalModified}
	ErrSourceUnavailable = &Error{Kind: KindSourceUnavailable}
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}
	ErrBackend           = &Error{Kind: KindBackendError}
	ErrLockHeld          = &Error{Kind: KindLockHeld}
)

// Common error constructors

// InvalidArgument returns an error for bad user input
func InvalidArgument(message string) *Error {
	return New(KindInvalidArgument, ExitInvalidArgument, message)
}

// TargetUnavailable returns an error when the installation directory cannot be used
func TargetUnavailable(path string, cause error) *Error {
	return Wrap(KindTargetUnavailable, ExitTargetUnavailable, fmt.Sprintf("installation directory %s", path), cause)
}

// SourceUnavailable returns an error when a repository cannot be obtained
func SourceUnavailable(url string, cause error) *Error {
	return Wrap(KindSourceUnavailable, ExitRepositoryError, fmt.Sprintf("cannot obtain %s", url), cause)
}

// LocalModified returns an advisory error for a checkout that was not updated
func LocalModified(path, reason string) *Error {
	return New(KindLocalModified, ExitRepositoryError, fmt.Sprintf("%s: %s, update skipped", path, reason))
}

// BuildFailed returns an error carrying the build backend's output
func BuildFailed(output string, cause error) *Error {
	return Wrap(KindBuildFailed, ExitStackFailed, backendMessage("build failed", output), cause)
}

// StartFailed returns an error carrying the start backend's output
func StartFailed(output string, cause error) *Error {
	return Wrap(KindStartFailed, ExitStackFailed, backendMessage("start failed", output), cause)
}

// StopFailed returns an error for a stack that could not be stopped
func StopFailed(output string, cause error) *Error {
	return Wrap(KindStopFailed, ExitStackFailed, backendMessage("stop failed", output), cause)
}

// BackendError returns an error for a rejected firewall change
func BackendError(message string, cause error) *Error {
	return Wrap(KindBackendError, ExitFirewallError, message, cause)
}

// Malformed returns an error for an unparseable configuration file
func Malformed(path string, line int, text string) *Error {
	return New(KindMalformed, ExitConfigError, fmt.Sprintf("%s:%d: cannot split %q into key=value", path, line, text))
}

// NotFound returns an error for a missing file
func NotFound(path string) *Error {
	return New(KindNotFound, ExitConfigError, fmt.Sprintf("%s does not exist", path))
}

// ConfigError returns an error for tool settings issues
func ConfigError(message string, cause error) *Error {
	return Wrap(KindGeneral, ExitConfigError, message, cause)
}

// PrivilegeRequired returns an error when an operation needs root
func PrivilegeRequired(operation string) *Error {
	return New(KindPrivilegeRequired, ExitPrivilegeRequired, fmt.Sprintf("%s requires root privileges; re-run with sudo", operation))
}

// LockHeld returns an error when another invocation owns the target
func LockHeld(path string, pid int) *Error {
	if pid > 0 {
		return New(KindLockHeld, ExitLockHeld, fmt.Sprintf("another mythic-ctl (PID %d) holds %s", pid, path))
	}
	return New(KindLockHeld, ExitLockHeld, fmt.Sprintf("another mythic-ctl holds %s", path))
}

func backendMessage(prefix, output string) string {
	output = strings.TrimSpace(output)
	if output == "" {
		return prefix
	}
	return prefix + "\n" + output
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var pf *PartialFailure
	if errors.As(err, &pf) {
		return ExitPluginFailure
	}
	var e *Error
	if errors.As(err, &e) {
		return e.ExitCode()
	}
	return ExitGeneralError
}

// GetKind extracts the failure category from an error
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGeneral
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
