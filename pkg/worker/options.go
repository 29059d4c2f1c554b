// Package worker is the out-of-process pool that applies one rule to every
// matching file under a target directory.
//
// The pool is started by the executor as `codemod worker <target> <args...>`
// with the argument set produced by the invocation builder.
package worker

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"gitlab.com/tozd/go/errors"
)

// Verbosity levels accepted by --verbose
const (
	VerboseSilent = 0
	VerboseErrors = 1
	VerboseFiles  = 2
)

// 🔧 Options configure one worker run
type Options struct {
	Target         string   `validate:"required"`
	Transform      string   `validate:"required"`
	Parser         string   `validate:"required"`
	ParserConfig   string   // optional YAML parser config
	IgnorePatterns []string // doublestar patterns relative to Target
	IgnoreConfigs  []string // gitignore-style files
	Extensions     []string `validate:"min=1,dive,required"`
	CPUs           int      `validate:"gte=1"`
	Verbose        int      `validate:"gte=0,lte=2"`
	NoFallback     bool
	GroupImports   bool
	Dry            bool
}

// SplitExtensions turns "go,tmpl" or ".go" into clean extensions without dots.
func SplitExtensions(raw string) []string {
	var exts []string
	for _, e := range strings.Split(raw, ",") {
		e = strings.TrimPrefix(strings.TrimSpace(e), ".")
		if e != "" {
			exts = append(exts, e)
		}
	}
	return exts
}

// 🔍 Validate checks the options before any file is touched
func (o *Options) Validate() error {
	if err := validator.New().Struct(o); err != nil {
		return errors.Errorf("invalid worker options: %w", err)
	}
	return nil
}

// pattern returns the discovery glob for the configured extensions
func (o *Options) pattern() string {
	if len(o.Extensions) == 1 {
		return "**/*." + o.Extensions[0]
	}
	return "**/*.{" + strings.Join(o.Extensions, ",") + "}"
}
