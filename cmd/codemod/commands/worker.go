package commands

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/codemod/cmd/codemod/opts"
	"github.com/walteh/codemod/pkg/executor"
	"github.com/walteh/codemod/pkg/invocation"
	"github.com/walteh/codemod/pkg/rules"
	"github.com/walteh/codemod/pkg/worker"
	"gitlab.com/tozd/go/errors"
)

// NewWorkerCmd creates the worker pool command started by the executor
func NewWorkerCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		wopts      worker.Options
		extensions string
	)

	cmd := &cobra.Command{
		Use:    "worker <target>",
		Short:  "Apply one rule to every file under a target",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := zerolog.Ctx(ctx)

			wopts.Target = args[0]
			wopts.Extensions = worker.SplitExtensions(extensions)

			facts := zerolog.Nop()
			if path := os.Getenv(executor.EnvFactsLog); path != "" {
				f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return errors.Errorf("opening facts log: %w", err)
				}
				defer f.Close()
				facts = zerolog.New(zerolog.SyncWriter(f)).With().Timestamp().Logger()
			}

			registry := rules.Default(os.Getenv(executor.EnvRulesDir))

			stats, err := worker.New(wopts, registry, opts.Console, facts).Run(ctx)
			if err != nil {
				return errors.Errorf("running worker: %w", err)
			}

			logger.Debug().
				Int("ok", stats.OK).
				Int("unmodified", stats.Unmodified).
				Int("skipped", stats.Skipped).
				Int("errors", stats.Errors).
				Msg("worker finished")
			return worker.CheckStats(stats)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&wopts.Verbose, "verbose", worker.VerboseErrors, "0 silent, 1 errors, 2 every file")
	flags.StringArrayVar(&wopts.IgnorePatterns, "ignore-pattern", nil, "glob of paths to leave alone (repeatable)")
	flags.IntVar(&wopts.CPUs, "cpus", 1, "number of files processed concurrently")
	flags.BoolVar(&wopts.NoFallback, "no-fallback", false, "do not retry with the fragment parser")
	flags.StringVar(&wopts.Parser, "parser", invocation.DefaultParser, "parser name")
	flags.StringVar(&wopts.ParserConfig, "parser-config", "", "YAML parser config")
	flags.StringVar(&extensions, "extensions", invocation.Extensions, "comma separated file extensions")
	flags.StringVar(&wopts.Transform, "transform", "", "rule to apply")
	flags.StringArrayVar(&wopts.IgnoreConfigs, "ignore-config", nil, "gitignore-style file (repeatable)")
	flags.BoolVar(&wopts.GroupImports, "group-imports", false, "group imports on rewritten files")
	flags.BoolVar(&wopts.Dry, "dry", false, "report changes without writing")

	return cmd
}
