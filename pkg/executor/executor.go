// Package executor runs a single rule against a target through the worker pool
// process and reports the result as an Outcome.
package executor

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/codemod/pkg/invocation"
	"github.com/walteh/codemod/pkg/log"
	"github.com/walteh/codemod/pkg/rules"
	"gitlab.com/tozd/go/errors"
)

// Environment handed to the worker process
const (
	EnvRulesDir = "CODEMOD_RULES_DIR"
	EnvFactsLog = "CODEMOD_FACTS_LOG"
)

// ✅ Outcome is the result of one rule run
type Outcome struct {
	Rule     string
	Err      error
	Duration time.Duration
}

// Failed reports whether the rule did not complete.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// 🔍 RuleResolver resolves rule identifiers before a worker is spawned
type RuleResolver interface {
	Lookup(id string) (rules.Rule, error)
	Dir() string
}

// ⚙️ Config wires an Executor
type Config struct {
	Rules   RuleResolver
	Builder invocation.Builder
	Runner  CommandRunner
	Console *log.Logger
	Run     RunConfig

	// WorkerBin is the binary started with the worker subcommand
	WorkerBin string
	// ErrorLog receives one entry per failure when Run.PersistErrors is set
	ErrorLog string
	// FactsLog is forwarded to the worker for rules that record facts
	FactsLog string
}

// 🏃 Executor starts worker processes for rules
type Executor struct {
	cfg Config
}

// 🏭 New creates an executor
func New(cfg Config) *Executor {
	if cfg.Runner == nil {
		cfg.Runner = NewExecRunner()
	}
	if cfg.Console == nil {
		cfg.Console = log.NewWithZerolog(os.Stdout, zerolog.Nop())
	}
	return &Executor{cfg: cfg}
}

// 🚀 Execute runs ruleID with parser over target. It never returns an error;
// failures are carried by the Outcome.
func (e *Executor) Execute(ctx context.Context, ruleID, parser, target string, opts invocation.Options) Outcome {
	start := time.Now()
	out := Outcome{Rule: ruleID}

	e.cfg.Console.Transform(ruleID)

	out.Err = e.execute(ctx, ruleID, parser, target, opts)
	out.Duration = time.Since(start)

	if out.Failed() {
		e.fail(ctx, target, out)
	}

	return out
}

func (e *Executor) execute(ctx context.Context, ruleID, parser, target string, opts invocation.Options) error {
	if _, err := e.cfg.Rules.Lookup(ruleID); err != nil {
		return errors.Errorf("resolving rule: %w", err)
	}

	cmd := Command{
		Path: e.cfg.WorkerBin,
		Args: append([]string{"worker", target}, e.cfg.Builder.Build(ruleID, parser, opts)...),
	}
	if dir := e.cfg.Rules.Dir(); dir != "" {
		cmd.Env = append(cmd.Env, EnvRulesDir+"="+dir)
	}
	if e.cfg.FactsLog != "" {
		cmd.Env = append(cmd.Env, EnvFactsLog+"="+e.cfg.FactsLog)
	}

	if e.cfg.Run.Verbose {
		e.cfg.Console.Infof("Running worker with: %s", cmd)
	}
	zerolog.Ctx(ctx).Debug().Str("rule", ruleID).Strs("args", cmd.Args).Msg("spawning worker")

	if err := e.cfg.Runner.Run(ctx, cmd); err != nil {
		return errors.Errorf("running worker: %w", err)
	}
	return nil
}

func (e *Executor) fail(ctx context.Context, target string, out Outcome) {
	e.cfg.Console.Errorf("%s: %v", out.Rule, out.Err)

	if !e.cfg.Run.PersistErrors || e.cfg.ErrorLog == "" {
		return
	}
	if err := appendError(e.cfg.ErrorLog, target, out); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", e.cfg.ErrorLog).Msg("writing error log")
	}
}

// appendError adds one JSON line for out to the error log at path
func appendError(path, target string, out Outcome) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Errorf("opening error log: %w", err)
	}
	defer f.Close()

	logger := zerolog.New(f).With().Timestamp().Logger()
	logger.Error().
		Err(out.Err).
		Str("rule", out.Rule).
		Str("target", target).
		Dur("duration", out.Duration).
		Msg("rule failed")

	return nil
}
