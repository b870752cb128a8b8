// Package app provides the application context for mythic-ctl.
//
// This package builds the lifecycle orchestrator using the functional
// options pattern, enabling easy testing through dependency injection.
//
// # App Context
//
// The App struct holds the resolved paths, settings and privilege plus the
// three tool backends:
//
//	type App struct {
//	    Paths      *config.Paths      // Locations inside the target
//	    Settings   *config.Settings   // mythic-ctl.toml
//	    Privilege  system.Privilege   // Detected once in cmd
//	    Repository repository.Backend // git
//	    Stack      stack.Backend      // make, mythic-cli, docker
//	    Firewall   firewall.Backend   // iptables-restore
//	    ...
//	}
//
// # Creating an App
//
//	// Production usage
//	a := app.New(paths, system.DetectPrivilege(), app.WithSettings(settings))
//
//	// Testing with fakes
//	a := app.New(paths, system.Root(),
//	    app.WithRepositoryBackend(repository.NewFakeBackend()),
//	    app.WithStackBackend(stack.NewFakeBackend()),
//	    app.WithFirewallBackend(firewall.NewFakeBackend()),
//	    app.WithPlatform(platform.Debian),
//	)
//
//	report, err := a.Orchestrator(ctx).Run(ctx, intent)
package app
