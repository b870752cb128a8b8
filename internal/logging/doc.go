// Package logging provides logging utilities for mythic-ctl.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for diagnostics (via slog)
//   - User output: Formatted messages for the operator
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("running backend command", "cmd", "make", "dir", dir)
//	logging.Warn("fetch failed, keeping local checkout", "path", path, "error", err)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Building Mythic in %s...", dir)
//	logging.UserSuccess("Admin port %d restricted to %s", port, source)
//	logging.UserWarning("Plugin %s failed: %v", name, err)
//	logging.UserError("%v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: Stdout (os.Stdout unless redirected with SetOutput)
//   - UserWarning, UserError: Stderr
//
// # Status Indicators
//
// User functions prepend status indicators:
//   - ℹ (info)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
package logging
