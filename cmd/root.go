package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/mythic-ctl/internal/app"
	"github.com/firefly-engineering/mythic-ctl/internal/config"
	"github.com/firefly-engineering/mythic-ctl/internal/envfile"
	"github.com/firefly-engineering/mythic-ctl/internal/errors"
	"github.com/firefly-engineering/mythic-ctl/internal/lifecycle"
	"github.com/firefly-engineering/mythic-ctl/internal/logging"
	"github.com/firefly-engineering/mythic-ctl/internal/plugin"
	"github.com/firefly-engineering/mythic-ctl/internal/system"
	"github.com/firefly-engineering/mythic-ctl/internal/tui"
)

// options holds the parsed flags of one invocation.
type options struct {
	directory  string
	envs       []string
	sourceIP   string
	install    bool
	cleanup    bool
	print      bool
	plugins    []string
	configFile string
	verbose    bool
	jsonOutput bool

	// named maps an option key to its --<option> flag value.
	named map[string]*string
}

// appFactory builds the application for one run. Tests replace it.
var appFactory = func(cmd *cobra.Command, opts *options, paths *config.Paths, settings *config.Settings) *app.App {
	return app.New(paths, system.DetectPrivilege(),
		app.WithSettings(settings),
		app.WithConfirmer(tui.NewPrompt(cmd.InOrStdin(), cmd.ErrOrStderr())),
		app.WithProgress(newProgress(cmd.ErrOrStderr(), !opts.verbose)),
	)
}

// NewRootCmd creates the mythic-ctl command.
func NewRootCmd() *cobra.Command {
	opts := &options{named: make(map[string]*string)}

	cmd := &cobra.Command{
		Use:   "mythic-ctl [flags] [value...]",
		Short: "Install and manage a Mythic C2 server",
		Long: `mythic-ctl installs the Mythic C2 server into a directory and keeps it running.

Without flags it checks out or updates Mythic, writes .env and starts the stack.
  -e/--env       override configuration values (key=value, or key value pairs)
  -s/--source-ip allow only this address or CIDR to reach the admin portal
  -i/--install   also install the stock agents and C2 profiles
  -c/--cleanup   stop the stack, uninstall plugins and offer to delete the directory
  -p/--print     show the stored configuration and exit

--print wins over --cleanup, which wins over every install option.`,
		Example: `  sudo mythic-ctl -d /opt/mythic -s 203.0.113.7 -i
  sudo mythic-ctl -d /opt/mythic -e DEBUG_LEVEL debug hasura-port 8081
  mythic-ctl -d /opt/mythic -p`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(opts.verbose, opts.jsonOutput, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.directory, "directory", "d", ".", "Installation directory")
	flags.StringArrayVarP(&opts.envs, "env", "e", nil, "Override a configuration value: key=value, or key followed by the value (repeatable)")
	flags.StringVarP(&opts.sourceIP, "source-ip", "s", "", "Restrict the admin portal to this address or CIDR")
	flags.BoolVarP(&opts.install, "install", "i", false, "Install catalog plugins after the base install")
	flags.BoolVarP(&opts.cleanup, "cleanup", "c", false, "Stop Mythic, uninstall plugins and offer to delete the directory")
	flags.BoolVarP(&opts.print, "print", "p", false, "Print the stored configuration and exit")
	flags.StringSliceVar(&opts.plugins, "plugins", nil, "Plugins for --install and --cleanup (default all: "+strings.Join(plugin.Names(plugin.Catalog), ",")+")")
	flags.StringVar(&opts.configFile, "config", "", "Tool settings file (default <directory>/"+config.SettingsFileName+" if present)")

	for _, o := range envfile.Options {
		opts.named[o.Key] = flags.String(o.Flag(), "", optionUsage(o))
	}
	flags.SortFlags = false

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output logs in JSON format")
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.InvalidArgument(err.Error())
	})

	return cmd
}

func optionUsage(o envfile.Option) string {
	switch {
	case o.Secret:
		return o.Usage + " (generated on first install)"
	case o.Default != "":
		return fmt.Sprintf("%s (default %q)", o.Usage, o.Default)
	default:
		return o.Usage
	}
}

// Execute runs the root command. Interrupts cancel the running flow.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		logging.UserError("%v", err)
	}
	return err
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	overrides, err := opts.overrides(cmd, args)
	if err != nil {
		return err
	}

	paths, err := config.NewPaths(opts.directory)
	if err != nil {
		return errors.TargetUnavailable(opts.directory, err)
	}

	settingsFile, required := opts.configFile, opts.configFile != ""
	if !required {
		settingsFile = paths.SettingsFile
	}
	settings, err := config.LoadSettings(settingsFile, required)
	if err != nil {
		return err
	}

	names := settings.Plugins.Select
	if cmd.Flags().Changed("plugins") {
		names = opts.plugins
	}
	plugins, err := plugin.Select(names)
	if err != nil {
		return err
	}

	intent := lifecycle.Intent{
		Overrides:      overrides,
		Source:         opts.sourceIP,
		InstallPlugins: opts.install,
		Plugins:        plugins,
		Cleanup:        opts.cleanup,
		Print:          opts.print,
	}

	ctx := cmd.Context()
	report, err := appFactory(cmd, opts, paths, settings).Orchestrator().Run(ctx, intent)
	logging.Debug("run finished", "run_id", report.RunID, "flow", report.Flow)
	if err != nil {
		return err
	}

	if report.Flow == lifecycle.FlowPrint {
		fmt.Fprintln(cmd.OutOrStdout(), report.Rendered)
		return nil
	}
	return bestEffort(report)
}

// overrides collects the named option flags followed by --env values, so a
// --env for the same key wins. Positional arguments are only valid as the
// values of "--env key value" pairs.
func (o *options) overrides(cmd *cobra.Command, args []string) ([]envfile.Override, error) {
	var out []envfile.Override
	for _, opt := range envfile.Options {
		if cmd.Flags().Changed(opt.Flag()) {
			out = append(out, envfile.Override{Key: opt.Key, Value: *o.named[opt.Key]})
		}
	}

	pairs, rest, err := envfile.PairOverrides(o.envs, args)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, errors.InvalidArgument(fmt.Sprintf("unexpected argument %q", rest[0]))
	}
	return append(out, pairs...), nil
}

// bestEffort reports the failures of steps that do not fail the base
// install. The returned error carries their exit code.
func bestEffort(report *lifecycle.Report) error {
	if report.RestrictionErr != nil && report.PluginFailures.Len() > 0 {
		logging.UserWarning("%v", report.PluginFailures)
	}
	if report.Plugins != nil && len(report.Plugins.Skipped) > 0 && report.Flow == lifecycle.FlowCleanup {
		logging.UserInfo("Not installed: %s", strings.Join(report.Plugins.Skipped, ", "))
	}
	return report.Err()
}
