package rules

import (
	"bytes"
	"context"
	"go/ast"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/tools/go/ast/astutil"
	"gopkg.in/yaml.v3"
)

// 📜 DeclarativeSpec is the content of a rule file in the rules directory
//
//	rename_import {
//	  from = "github.com/old/log"
//	  to   = "github.com/new/log"
//	}
//
//	rename_selector {
//	  package = "github.com/new/log"
//	  from    = "Warn"
//	  to      = "Warning"
//	}
type DeclarativeSpec struct {
	RenameImports   []RenameImport   `hcl:"rename_import,block" yaml:"rename_import" validate:"dive"`
	RenameSelectors []RenameSelector `hcl:"rename_selector,block" yaml:"rename_selector" validate:"dive"`
}

// RenameImport rewrites an import path.
type RenameImport struct {
	From string `hcl:"from" yaml:"from" validate:"required"`
	To   string `hcl:"to" yaml:"to" validate:"required,nefield=From"`
}

// RenameSelector renames Package.From to Package.To.
type RenameSelector struct {
	Package string `hcl:"package" yaml:"package" validate:"required"`
	From    string `hcl:"from" yaml:"from" validate:"required"`
	To      string `hcl:"to" yaml:"to" validate:"required,nefield=From"`
}

var validate = validator.New()

// 📥 LoadDeclarative reads a rule file; the rule is named after the file
func LoadDeclarative(path string) (Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading rule file: %w", err)
	}

	var spec *DeclarativeSpec
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		spec, err = parseDeclarativeHCL(data, path)
	case ".yaml", ".yml":
		spec, err = parseDeclarativeYAML(data)
	default:
		return nil, errors.Errorf("unsupported rule file extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if len(spec.RenameImports) == 0 && len(spec.RenameSelectors) == 0 {
		return nil, errors.Errorf("rule file %s declares no rewrites", path)
	}

	if err := validate.Struct(spec); err != nil {
		return nil, errors.Errorf("validating rule file: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &declarativeRule{name: name, spec: *spec}, nil
}

func parseDeclarativeHCL(data []byte, filename string) (*DeclarativeSpec, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var spec DeclarativeSpec
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &spec)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &spec, nil
}

func parseDeclarativeYAML(data []byte) (*DeclarativeSpec, error) {
	var spec DeclarativeSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &spec, nil
}

type declarativeRule struct {
	name string
	spec DeclarativeSpec
}

func (r *declarativeRule) Name() string {
	return r.name
}

func (r *declarativeRule) Apply(ctx context.Context, f *File) (bool, error) {
	changed := false

	// selectors first, they are keyed on the import path before any rename
	for _, rs := range r.spec.RenameSelectors {
		if renameSelector(f.AST, rs) {
			changed = true
		}
	}

	for _, ri := range r.spec.RenameImports {
		if astutil.RewriteImport(f.Fset, f.AST, ri.From, ri.To) {
			changed = true
		}
	}

	return changed, nil
}

func renameSelector(file *ast.File, rs RenameSelector) bool {
	local := importLocalName(file, rs.Package)
	if local == "" {
		return false
	}

	changed := false
	ast.Inspect(file, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != rs.From {
			return true
		}
		x, ok := sel.X.(*ast.Ident)
		// a resolved object means a local shadows the package name
		if !ok || x.Name != local || x.Obj != nil {
			return true
		}
		sel.Sel.Name = rs.To
		changed = true
		return true
	})
	return changed
}

// importLocalName returns the name path is imported under, or "" when absent or blank
func importLocalName(file *ast.File, importPath string) string {
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil || p != importPath {
			continue
		}
		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				return ""
			}
			return imp.Name.Name
		}
		return assumedPackageName(p)
	}
	return ""
}

// assumedPackageName guesses the package name of an unnamed import:
// major version suffixes are skipped, a "go-" prefix is dropped and the
// name stops at the first character that cannot appear in an identifier.
//
//	github.com/rs/zerolog/v2   -> zerolog
//	gopkg.in/yaml.v3           -> yaml
//	github.com/mattn/go-isatty -> isatty
func assumedPackageName(importPath string) string {
	base := path.Base(importPath)
	if isMajorVersion(base) {
		if dir := path.Dir(importPath); dir != "." {
			base = path.Base(dir)
		}
	}
	base = strings.TrimPrefix(base, "go-")
	if i := strings.IndexFunc(base, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	}); i >= 0 {
		base = base[:i]
	}
	return base
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}
