package worker

import (
	"bytes"
	"context"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/codemod/pkg/log"
	"github.com/walteh/codemod/pkg/rules"
	"github.com/walteh/codemod/pkg/status"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// ErrFilesFailed is returned by CheckStats when a rule failed on at least one file
var ErrFilesFailed = errors.Base("files failed")

// 🔍 RuleResolver resolves the rule named by --transform
type RuleResolver interface {
	Lookup(id string) (rules.Rule, error)
}

// 🏊 Pool applies one rule across a target directory
type Pool struct {
	opts    Options
	rules   RuleResolver
	console *log.Logger
	facts   zerolog.Logger
}

// 🏭 New creates a pool. facts receives records from rules that only observe code.
func New(opts Options, resolver RuleResolver, console *log.Logger, facts zerolog.Logger) *Pool {
	return &Pool{
		opts:    opts,
		rules:   resolver,
		console: console,
		facts:   facts,
	}
}

// 🚀 Run processes every discovered file. The returned error is only set for setup
// failures; per-file failures are reported through the stats.
func (p *Pool) Run(ctx context.Context) (status.Stats, error) {
	logger := zerolog.Ctx(ctx)

	if err := p.opts.Validate(); err != nil {
		return status.Stats{}, err
	}

	rule, err := p.rules.Lookup(p.opts.Transform)
	if err != nil {
		return status.Stats{}, errors.Errorf("resolving transform: %w", err)
	}

	if _, err := GetParser(p.opts.Parser); err != nil {
		return status.Stats{}, err
	}

	cfg, err := LoadParserConfig(p.opts.ParserConfig)
	if err != nil {
		return status.Stats{}, err
	}

	matcher, err := NewMatcher(p.opts.IgnorePatterns, p.opts.IgnoreConfigs)
	if err != nil {
		return status.Stats{}, err
	}

	files, err := discover(p.opts.Target, p.opts.pattern())
	if err != nil {
		return status.Stats{}, err
	}

	logger.Debug().
		Str("target", p.opts.Target).
		Str("rule", rule.Name()).
		Int("files", len(files)).
		Int("cpus", p.opts.CPUs).
		Msg("starting worker pool")

	mgr := status.New(p.opts.Target, logger)
	mgr.StartOperation(ctx, len(files))

	if p.opts.Verbose >= VerboseFiles {
		p.console.StartRuleOperation(ctx, log.RuleOperation{
			Rule:   rule.Name(),
			Target: p.opts.Target,
			Parser: p.opts.Parser,
			CPUs:   p.opts.CPUs,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.CPUs)

	for _, rel := range files {
		g.Go(func() error {
			info := status.FileInfo{Path: rel, Status: status.StatusSkipped}
			if !matcher.Match(rel) {
				info = p.processFile(gctx, mgr, rule, cfg, rel)
			}
			mgr.TrackFile(gctx, info)
			p.report(gctx, rule.Name(), info)
			return nil
		})
	}

	// per-file goroutines never return errors
	_ = g.Wait()

	summary := mgr.FinishOperation(ctx)
	if p.opts.Verbose >= VerboseFiles {
		p.console.EndRuleOperation(ctx)
	}
	if p.opts.Verbose > VerboseSilent {
		p.console.Info(summary)
	}

	return mgr.Stats(), nil
}

// CheckStats turns per-file failures into an error so the worker exits non-zero
func CheckStats(stats status.Stats) error {
	if stats.Errors == 0 {
		return nil
	}
	return errors.Errorf("%w: %d of %d", ErrFilesFailed, stats.Errors, stats.Total())
}

func (p *Pool) report(ctx context.Context, rule string, info status.FileInfo) {
	switch {
	case p.opts.Verbose >= VerboseFiles:
	case p.opts.Verbose == VerboseErrors && info.Status == status.StatusError:
	default:
		return
	}
	p.console.LogFileResult(ctx, log.FileResult{
		Path:   info.Path,
		Rule:   rule,
		Status: info.Status,
		Err:    info.Err,
	})
}

func (p *Pool) processFile(ctx context.Context, mgr *status.Manager, rule rules.Rule, cfg ParserConfig, rel string) status.FileInfo {
	info := status.FileInfo{Path: rel, Status: status.StatusError}

	src, mode, err := mgr.ReadFile(ctx, rel)
	if err != nil {
		info.Err = err
		return info
	}

	fset := token.NewFileSet()
	source, err := parse(p.opts.Parser, !p.opts.NoFallback, fset, rel, src, cfg)
	if err != nil {
		info.Err = err
		return info
	}

	changed, err := rule.Apply(ctx, &rules.File{
		Path:  rel,
		Fset:  fset,
		AST:   source.AST,
		Facts: p.facts,
	})
	if err != nil {
		info.Err = errors.Errorf("applying %s: %w", rule.Name(), err)
		return info
	}
	if !changed {
		info.Status = status.StatusUnmodified
		return info
	}

	out, err := render(fset, rel, source, cfg, p.opts.GroupImports)
	if err != nil {
		info.Err = err
		return info
	}
	if bytes.Equal(out, src) {
		info.Status = status.StatusUnmodified
		return info
	}

	if !p.opts.Dry {
		if err := mgr.WriteFileAtomic(ctx, rel, out, mode); err != nil {
			info.Err = err
			return info
		}
	}

	info.Status = status.StatusOK
	return info
}

// discover lists files under target matching pattern, as slash separated relative paths
func discover(target, pattern string) ([]string, error) {
	st, err := os.Stat(target)
	if err != nil {
		return nil, errors.Errorf("reading target: %w", err)
	}
	if !st.IsDir() {
		return nil, errors.Errorf("target %s is not a directory", target)
	}

	var files []string
	err = doublestar.GlobWalk(os.DirFS(target), pattern, func(path string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		files = append(files, filepath.ToSlash(path))
		return nil
	}, doublestar.WithNoFollow())
	if err != nil {
		return nil, errors.Errorf("discovering files: %w", err)
	}
	return files, nil
}
