package main

import (
	"context"
	"io"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/codemod/cmd/codemod/commands"
	"github.com/walteh/codemod/cmd/codemod/opts"
	"github.com/walteh/codemod/pkg/assets"
	"github.com/walteh/codemod/pkg/config"
	"github.com/walteh/codemod/pkg/executor"
	"github.com/walteh/codemod/pkg/invocation"
	"github.com/walteh/codemod/pkg/log"
	"github.com/walteh/codemod/pkg/pipeline"
	"github.com/walteh/codemod/pkg/preflight"
	"github.com/walteh/codemod/pkg/report"
	"github.com/walteh/codemod/pkg/rules"
	"gitlab.com/tozd/go/errors"
)

var errInvalidTarget = errors.Base("invalid dir")

// runFlags are the flags of the root command
type runFlags struct {
	force     bool
	cpus      int
	extras    string
	style     bool
	gitignore string
	dry       bool
}

// deps are the collaborators of a run, replaced in tests
type deps struct {
	gate      func(version string) gateRunner
	runner    executor.CommandRunner
	workerBin func() (string, error)
	assetsDir func() (string, error)
	stdout    io.Writer
}

type gateRunner interface {
	Run(ctx context.Context, dir string, force bool) error
}

func defaultDeps() deps {
	return deps{
		gate:      func(version string) gateRunner { return preflight.NewGate(version) },
		runner:    executor.NewExecRunner(),
		workerBin: os.Executable,
		assetsDir: assets.DefaultDir,
		stdout:    os.Stdout,
	}
}

// newRootCmd builds the command tree
func newRootCmd(root *opts.RootOpts, d deps) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "codemod <targetDirectory>",
		Short: "Apply source rewriting rules across a Go codebase",
		Long: `codemod runs an ordered set of rewrite rules over every Go file in a
directory. Before anything is rewritten it checks that a newer release is not
available and that the working tree has no uncommitted changes.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(setupLogging(cmd.Context(), root, d.stdout))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) > 0 {
				target = args[0]
			}
			return run(cmd, root, d, flags, target)
		},
	}

	addRootFlags(cmd, root, &flags)

	cmd.AddCommand(
		commands.NewWorkerCmd(root),
		commands.NewRulesCmd(root),
		newVersionCmd(),
	)

	return cmd
}

// addRootFlags adds the flags of the root command
func addRootFlags(cmd *cobra.Command, root *opts.RootOpts, flags *runFlags) {
	cmd.PersistentFlags().StringVarP(&root.ConfigFile, "config", "c", "", "config file path (default: .codemod.{yaml,yml,hcl} in the working directory)")
	cmd.PersistentFlags().BoolVarP(&root.Debug, "debug", "d", false, "enable debug logging")

	cmd.Flags().BoolVar(&flags.force, "force", false, "skip the clean working tree check (dangerous)")
	cmd.Flags().IntVar(&flags.cpus, "cpus", 0, "worker concurrency (default: max(2, cores/3))")
	cmd.Flags().StringVar(&flags.extras, "extraScripts", "", "comma separated rules to run after the defaults")
	cmd.Flags().BoolVar(&flags.style, "style", false, "group imports on rewritten files")
	cmd.Flags().StringVar(&flags.gitignore, "gitignore", "", "extra gitignore-style file of paths to skip")
	cmd.Flags().BoolVar(&flags.dry, "dry", false, "report changes without writing files")
}

// setupLogging configures zerolog and the console logger based on flags
func setupLogging(ctx context.Context, root *opts.RootOpts, stdout io.Writer) context.Context {
	level := zerolog.WarnLevel
	if root.Debug {
		level = zerolog.DebugLevel
	}
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	// console lines are mirrored into the structured log only when debugging
	mirror := zerolog.Nop()
	if root.Debug {
		mirror = zlog
	}
	root.Console = log.NewWithZerolog(stdout, mirror)
	return log.NewContext(zlog.WithContext(ctx), root.Console)
}

// run is the root command: validate, gate, then drive the pipeline
func run(cmd *cobra.Command, root *opts.RootOpts, d deps, flags runFlags, target string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)
	console := log.FromContext(ctx)

	if st, err := os.Stat(target); target == "" || err != nil || !st.IsDir() {
		return errors.Errorf("%w: %q, please pass a valid dir", errInvalidTarget, target)
	}

	cfg, err := root.LoadConfig(ctx)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	merged := mergeFlags(cmd, cfg, flags)
	logger.Debug().Str("config", cfg.Location()).Stringer("settings", cfg).Msg("configuration loaded")

	if root.Run.Development() {
		console.Info("Development mode, skipping preflight checks")
	} else if err := d.gate(GetVersionInfo().Version).Run(ctx, target, flags.force); err != nil {
		return err
	}

	assetsDir, err := d.assetsDir()
	if err != nil {
		return err
	}
	paths, err := assets.Materialize(assetsDir)
	if err != nil {
		return errors.Errorf("preparing worker config: %w", err)
	}

	bin, err := d.workerBin()
	if err != nil {
		return errors.Errorf("locating worker binary: %w", err)
	}

	exec := executor.New(executor.Config{
		Rules:     rules.Default(cfg.RulesDir),
		Builder:   invocation.Builder{Cores: runtime.NumCPU(), Paths: paths},
		Runner:    d.runner,
		Console:   console,
		Run:       root.Run,
		WorkerBin: bin,
		ErrorLog:  cfg.ErrorLog,
		FactsLog:  cfg.FactsLog,
	})

	summary := report.NewSummary()
	console.Header("running rules on " + target)
	pipeline.New(rules.Builtin, exec, summary).Run(ctx, target, merged)

	return summary.Render(d.stdout)
}

// mergeFlags overlays flags that were set on the command line onto the config file values
func mergeFlags(cmd *cobra.Command, cfg *config.Config, flags runFlags) pipeline.Options {
	out := pipeline.Options{
		Options: invocation.Options{
			CPUs:      cfg.CPUs,
			Style:     cfg.Style,
			Gitignore: cfg.Gitignore,
			Dry:       flags.dry,
		},
		Extras: cfg.ExtraRulesString(),
		Parser: cfg.Parser,
	}

	changed := cmd.Flags().Changed
	if changed("cpus") {
		out.CPUs = flags.cpus
	}
	if changed("style") {
		out.Style = flags.style
	}
	if changed("gitignore") {
		out.Gitignore = flags.gitignore
	}
	if changed("extraScripts") {
		out.Extras = flags.extras
	}

	return out
}
