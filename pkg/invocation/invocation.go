// Package invocation builds the argument set handed to the worker pool for one rule.
package invocation

import (
	"strconv"
)

const (
	// DefaultParser is used when no parser is named
	DefaultParser = "go"

	// DependencyIgnorePattern keeps vendored dependencies out of every run
	DependencyIgnorePattern = "**/vendor/**"

	// Extensions handled by every run
	Extensions = "go"

	verbosity = 2
)

// 🔧 Options are the caller supplied knobs for one rule run
type Options struct {
	// CPUs is the worker concurrency, zero or less means DefaultCPUs
	CPUs int
	// Style enables import grouping on rewritten files
	Style bool
	// Gitignore is an extra ignore file handed to the worker
	Gitignore string
	// Dry disables writing rewritten files back
	Dry bool
}

// 📁 Paths are the fixed configuration files referenced by every run
type Paths struct {
	ParserConfig string
	IgnoreConfig string
}

// 🏗️ Builder produces worker argument sets
type Builder struct {
	// Cores is the number of available cores, used for the concurrency default
	Cores int
	Paths Paths
}

// DefaultCPUs returns max(2, ceil(cores/3)).
func DefaultCPUs(cores int) int {
	n := (cores + 2) / 3
	if n < 2 {
		return 2
	}
	return n
}

// 📝 Build returns the flat argument list for running rule with parser.
//
// Build performs no I/O; identical inputs always yield identical output.
func (b Builder) Build(rule, parser string, opts Options) []string {
	if parser == "" {
		parser = DefaultParser
	}

	cpus := opts.CPUs
	if cpus <= 0 {
		cpus = DefaultCPUs(b.Cores)
	}

	args := []string{
		"--verbose=" + strconv.Itoa(verbosity),
		"--ignore-pattern=" + DependencyIgnorePattern,
	}

	args = append(args, "--cpus", strconv.Itoa(cpus))

	// fragment parsing may reflow code it does not understand
	args = append(args, "--no-fallback")

	args = append(args, "--parser", parser)
	args = append(args, "--parser-config", b.Paths.ParserConfig)
	args = append(args, "--extensions="+Extensions)

	args = append(args, "--transform", rule)

	args = append(args, "--ignore-config", b.Paths.IgnoreConfig)

	if opts.Gitignore != "" {
		args = append(args, "--ignore-config", opts.Gitignore)
	}

	if opts.Style {
		args = append(args, "--group-imports")
	}

	if opts.Dry {
		args = append(args, "--dry")
	}

	return args
}
