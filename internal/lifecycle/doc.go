// Package lifecycle sequences one mythic-ctl invocation.
//
// An Intent is dispatched by priority: print wins over cleanup, which wins
// over the install flow. Only the install flow combines its options.
//
//	orch := lifecycle.New(deps)
//	report, err := orch.Run(ctx, lifecycle.Intent{Source: "203.0.113.7"})
//	if err != nil {
//	    // fatal: target, repository, build or start
//	}
//	if err := report.Err(); err != nil {
//	    // best effort step failed: firewall or plugins
//	}
//
// # Install Flow
//
//  1. Parse the trusted source (no side effects on failure)
//  2. Require privilege, create the target, take the lock
//  3. Ensure the main checkout and a container engine
//  4. Load .env (defaults when missing, set aside when malformed)
//  5. Overlay and persist
//  6. Build and start
//  7. Restrict the admin port (best effort)
//  8. Check out and install plugins (best effort)
//
// # Cleanup Flow
//
// Stop the stack, uninstall plugins, then delete the target only when the
// Confirmer answers yes and the stack is confirmed down.
//
// # State
//
// Probe derives observational labels (Uninitialized, Installed,
// Restricted, PluginsInstalled, CleanedUp) from the target directory, the
// stack, the firewall and the audit log. Nothing about state is persisted
// besides those artifacts.
package lifecycle
