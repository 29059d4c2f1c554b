// Package rules holds the rewrite units applied by the worker pool and the
// registry that resolves rule identifiers to them.
package rules

import (
	"context"
	"go/ast"
	"go/token"

	"github.com/rs/zerolog"
)

// 📄 File is one parsed source file handed to a rule
type File struct {
	// Path is the file path as seen by the worker
	Path string
	Fset *token.FileSet
	AST  *ast.File
	// Facts receives records extracted by rules that only observe code
	Facts zerolog.Logger
}

// 🧩 Rule is a named, self-contained rewrite unit.
//
// Apply mutates f.AST in place and reports whether anything changed. A rule
// that returns false must leave the tree untouched.
type Rule interface {
	Name() string
	Apply(ctx context.Context, f *File) (changed bool, err error)
}

type funcRule struct {
	name  string
	apply func(ctx context.Context, f *File) (bool, error)
}

func (r *funcRule) Name() string {
	return r.name
}

func (r *funcRule) Apply(ctx context.Context, f *File) (bool, error) {
	return r.apply(ctx, f)
}

// NewFunc wraps a plain function as a Rule.
func NewFunc(name string, apply func(ctx context.Context, f *File) (bool, error)) Rule {
	return &funcRule{name: name, apply: apply}
}
