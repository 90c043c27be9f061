package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/wouterdebie/i2cssh/internal/config"
	"github.com/wouterdebie/i2cssh/internal/errors"
	"github.com/wouterdebie/i2cssh/internal/executor"
	"github.com/wouterdebie/i2cssh/internal/group"
	"github.com/wouterdebie/i2cssh/internal/inventory"
	"github.com/wouterdebie/i2cssh/internal/logging"
	"github.com/wouterdebie/i2cssh/internal/mux"
	"github.com/wouterdebie/i2cssh/internal/output"
	"github.com/wouterdebie/i2cssh/internal/progress"
	"github.com/wouterdebie/i2cssh/internal/ssh"
)

var (
	// Build-time variables (set via -ldflags)
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	// Settings flags (bound to viper)
	configFile string
	logLevel   string
	logFormat  string
	tmuxBinary string

	// Run flags
	dryRun     bool
	outputMode string
	quiet      bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(rewriteArgs(os.Args[1:]))
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "i2cssh: %v\n", err)
		stop()
		os.Exit(errors.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "i2cssh [flags] [hosts_or_cluster...]",
		Short: "Open ssh sessions to many hosts in a grid of tmux panes",
		Long: `i2cssh opens one ssh session per host in a grid of panes, optionally
mirroring keyboard input to all of them.

Hosts come from clusters in ~/.i2csshrc, from -m, from a file, or from the
positional arguments. Ranges like web[1..3] and lists like [db,app]1 expand
to several hosts.

Examples:
  # Every host of the "web" cluster, input broadcast to all panes
  i2cssh -b web

  # The web cluster as root, unless a host has its own login
  i2cssh root@web

  # Two clusters, each in its own tab
  i2cssh -t -c web,db

  # Ad-hoc hosts in a 2 row grid
  i2cssh -R 2 -m app[01..06]

  # Show what would be launched
  i2cssh --dry-run --output json -c web

Environment:
  ` + strings.Join(config.GetEnvVarNames(), ", ") + ` override --config,
  --log-level, --log-format and --tmux.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	fs := cmd.Flags()
	addHostFlags(fs)
	cmd.MarkFlagsMutuallyExclusive("rows", "columns")

	fs.StringVar(&configFile, "config", "", "Cluster config file (default ~/.i2csshrc)")
	fs.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&logFormat, "log-format", "auto", "Log format (auto, pretty, text, json)")
	fs.StringVar(&tmuxBinary, "tmux", "tmux", "tmux binary")
	fs.BoolVar(&dryRun, "dry-run", false, "Print the launch plan without opening panes")
	fs.StringVar(&outputMode, "output", string(output.TextMode), "Dry-run output format (text, json)")
	fs.BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	manager := config.NewManager()
	if err := manager.BindFlags(cmd.Flags()); err != nil {
		return errors.NewSetupError("failed to bind flags", err)
	}
	settings, err := manager.Load()
	if err != nil {
		return errors.NewSetupError("failed to load settings", err)
	}

	logger := logging.NewLogger(logging.Config{
		Level:  logging.LogLevel(settings.LogLevel),
		Format: logging.LogFormat(settings.LogFormat),
		Output: cmd.ErrOrStderr(),
		Quiet:  quiet,
	})

	file, err := config.LoadFile(settings.ConfigFile)
	if err != nil {
		return err
	}
	inv := inventory.New(file)
	logger.LogConfigLoad(file.Path, len(inv.Clusters()))
	logger.LogConfigWarning(file.Path, file.Dropped)

	plan, err := buildPlan(cmd, args, inv)
	if err != nil {
		return err
	}
	hosts := plan.Hosts()
	logger.LogGroupsResolved(len(plan.Groups), len(hosts), plan.TabSplit)

	for _, w := range ssh.NewChecker().Run(ctx, hosts) {
		logger.LogPreflightWarning(w.Check, w.String())
	}

	if dryRun {
		return printPlan(plan, cmd.OutOrStdout())
	}
	return launch(ctx, plan, settings, logger, cmd.ErrOrStderr())
}

// buildPlan resolves the command line against the config file.
func buildPlan(cmd *cobra.Command, args []string, inv inventory.Provider) (group.Plan, error) {
	fs := cmd.Flags()

	cli, err := commandLineOptions(fs)
	if err != nil {
		return group.Plan{}, errors.NewSetupError("invalid option", err)
	}
	clusters, err := listFlag(fs, "clusters")
	if err != nil {
		return group.Plan{}, errors.NewSetupError("invalid --clusters", err)
	}
	machines, err := listFlag(fs, "machines")
	if err != nil {
		return group.Plan{}, errors.NewSetupError("invalid --machines", err)
	}
	hostFile, err := fs.GetString("file")
	if err != nil {
		return group.Plan{}, errors.NewSetupError("invalid --file", err)
	}

	return group.NewBuilder(inv).Build(group.Request{
		Args:     args,
		Clusters: clusters,
		Machines: machines,
		File:     hostFile,
		CLI:      cli,
	})
}

func printPlan(plan group.Plan, w io.Writer) error {
	mode, err := output.ParseMode(outputMode)
	if err != nil {
		return errors.NewSetupError("invalid --output", err)
	}
	if err := output.NewFormatter(mode, w).Format(plan); err != nil {
		return errors.NewSetupError("cannot render plan", err)
	}
	return nil
}

func launch(ctx context.Context, plan group.Plan, settings *config.Settings, logger *logging.Logger, stderr io.Writer) error {
	panes := 0
	for _, g := range plan.Groups {
		panes += g.Geometry.Panes()
	}

	tracker := progress.NewTracker(panes, stderr, !logger.IsQuiet() && isTerminal(stderr))
	launcher := executor.NewLauncher(mux.NewTmux(settings.Tmux), logger, tracker)
	if _, err := launcher.Execute(ctx, plan); err != nil {
		logger.ErrorContext(ctx, "launch failed", "error", err)
		return err
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
