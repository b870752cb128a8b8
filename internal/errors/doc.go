// Package errors provides typed errors with exit codes for mythic-ctl.
//
// # Error Types
//
// Error is the base error type. It carries a failure Kind, which is printed
// in front of the message, and an exit code:
//
//	type Error struct {
//	    Kind    Kind   // Failure category (InvalidArgument, BuildFailed, ...)
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// PartialFailure aggregates (item, error) pairs for operations that attempt
// every item before reporting, such as plugin installation.
//
// # Exit Codes
//
//	ExitSuccess           = 0  // Success
//	ExitGeneralError      = 1  // General/unknown errors
//	ExitInvalidArgument   = 2  // Bad flag value, bad CIDR
//	ExitTargetUnavailable = 3  // Installation directory cannot be created or used
//	ExitRepositoryError   = 4  // Main repository could not be obtained
//	ExitStackFailed       = 5  // Build or start failed
//	ExitFirewallError     = 6  // Admin port restriction failed
//	ExitPrivilegeRequired = 7  // Not running as root
//	ExitConfigError       = 8  // Settings or .env problems
//	ExitLockHeld          = 9  // Another invocation owns the directory
//	ExitPluginFailure     = 10 // Some plugins failed
//
// # Matching
//
// Sentinels match any error of the same kind:
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    cfg = envfile.Defaults()
//	}
package errors
