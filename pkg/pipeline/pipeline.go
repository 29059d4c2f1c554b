// Package pipeline drives the ordered rule set over a target directory.
package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/codemod/pkg/executor"
	"github.com/walteh/codemod/pkg/invocation"
)

// 🏃 Executor runs one rule
type Executor interface {
	Execute(ctx context.Context, ruleID, parser, target string, opts invocation.Options) executor.Outcome
}

// 👀 Observer receives every outcome in execution order
type Observer interface {
	Observe(ctx context.Context, out executor.Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, out executor.Outcome)

func (f ObserverFunc) Observe(ctx context.Context, out executor.Outcome) {
	f(ctx, out)
}

// 🔧 Options for one pipeline run
type Options struct {
	invocation.Options

	// Extras is the comma separated list appended to the builtin rules
	Extras string
	// Parser is handed to every rule, empty means the default parser
	Parser string
}

// 📋 RuleSet returns builtins followed by the comma separated extras, in order.
// Names are trimmed and blanks dropped; duplicates are kept.
func RuleSet(builtins []string, extras string) []string {
	set := make([]string, 0, len(builtins))
	set = append(set, builtins...)

	for _, name := range strings.Split(extras, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		set = append(set, name)
	}
	return set
}

// 🔗 Pipeline executes a rule set one rule at a time
type Pipeline struct {
	builtins []string
	exec     Executor
	observer Observer
}

// 🏭 New creates a pipeline over builtins
func New(builtins []string, exec Executor, observer Observer) *Pipeline {
	return &Pipeline{
		builtins: builtins,
		exec:     exec,
		observer: observer,
	}
}

// 🚀 Run applies every rule to target strictly in order. A failing rule never
// stops the rules after it; failures reach the observer.
func (p *Pipeline) Run(ctx context.Context, target string, opts Options) {
	rules := RuleSet(p.builtins, opts.Extras)

	logger := zerolog.Ctx(ctx).With().
		Str("run", uuid.NewString()).
		Str("target", target).
		Logger()
	ctx = logger.WithContext(ctx)

	logger.Debug().Strs("rules", rules).Msg("starting pipeline")

	for i, rule := range rules {
		out := p.exec.Execute(ctx, rule, opts.Parser, target, opts.Options)

		logger.Debug().
			Int("step", i+1).
			Str("rule", rule).
			Dur("duration", out.Duration).
			Bool("failed", out.Failed()).
			Msg("rule finished")

		if p.observer != nil {
			p.observer.Observe(ctx, out)
		}
	}
}
