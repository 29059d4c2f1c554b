package rules

import (
	"bytes"
	"context"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func parseTestFile(t *testing.T, name, src string, facts *bytes.Buffer) *File {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, name, src, parser.ParseComments)
	require.NoError(t, err, "parsing test source should succeed")

	return &File{
		Path:  name,
		Fset:  fset,
		AST:   file,
		Facts: zerolog.New(facts),
	}
}

func render(t *testing.T, f *File) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, format.Node(&buf, f.Fset, f.AST), "formatting should succeed")
	return buf.String()
}

func TestEveryModels(t *testing.T) {
	src := `package services

var Models = map[string]Endpoint{
	"user": {URL: "/api/user"},
	"team": {URL: "/api/team", Method: "GET"},
}

var health = Endpoint{Url: "/healthz"}

var ignored = Endpoint{URL: prefix + "/x"}
`
	var facts bytes.Buffer
	f := parseTestFile(t, "pkg/services/models.go", src, &facts)

	changed, err := EveryModels().Apply(context.Background(), f)
	require.NoError(t, err, "apply should succeed")
	assert.False(t, changed, "every-models never rewrites")

	out := facts.String()
	assert.Contains(t, out, `"message":"models.go-user-/api/user"`)
	assert.Contains(t, out, `"message":"models.go-team-/api/team"`)
	assert.Contains(t, out, `"message":"models.go-Endpoint-/healthz"`)
	assert.Equal(t, 3, strings.Count(out, "\n"), "non literal urls should not be recorded")
}

func TestEveryModelNoUsed(t *testing.T) {
	src := `package pages

import (
	"github.com/acme/app/services/models/account"
	billing "github.com/acme/app/services/models/invoice"
	"github.com/acme/app/util"
)

func load() {
	account.GetModel("profile")
	billing.GetModel("draft")
	util.GetModel("nope")
	account.GetModel(name)
}
`
	var facts bytes.Buffer
	f := parseTestFile(t, "pages/load.go", src, &facts)

	changed, err := EveryModelNoUsed().Apply(context.Background(), f)
	require.NoError(t, err, "apply should succeed")
	assert.False(t, changed, "every-model-no-used never rewrites")

	out := facts.String()
	assert.Contains(t, out, `"message":"account-profile"`)
	assert.Contains(t, out, `"message":"invoice-draft"`)
	assert.NotContains(t, out, "nope", "non models imports should be ignored")
	assert.Equal(t, 2, strings.Count(out, "\n"), "exactly two facts should be recorded")
}

func TestAnonymousFuncToNamed(t *testing.T) {
	src := `package handlers

// Handler serves things.
var Handler = func(a int) int {
	return a + 1
}

var counter = func() {}

var typed func() = func() {}

func reset() {
	counter = nil
}

var (
	one = 1
	// Two doubles.
	Two = func(x int) int { return x * 2 }
)
`
	var facts bytes.Buffer
	f := parseTestFile(t, "handlers.go", src, &facts)

	changed, err := AnonymousFuncToNamed().Apply(context.Background(), f)
	require.NoError(t, err, "apply should succeed")
	require.True(t, changed, "function literals should be rewritten")

	out := render(t, f)
	assert.Contains(t, out, "func Handler(a int) int {")
	assert.Contains(t, out, "// Handler serves things.")
	assert.Contains(t, out, "// Two doubles.\nfunc Two(x int) int", "grouped doc comments move with the function")
	assert.Equal(t, 1, strings.Count(out, "// Two doubles."))
	assert.Contains(t, out, "var counter = func() {}", "reassigned vars must be kept")
	assert.Contains(t, out, "var typed func() = func() {}", "typed vars must be kept")
	assert.Contains(t, out, "one = 1")
	assert.NotContains(t, out, "var Handler")

	_, err = parser.ParseFile(token.NewFileSet(), "out.go", out, 0)
	assert.NoError(t, err, "rewritten source should still parse")
}

func TestAnonymousFuncToNamedUnchanged(t *testing.T) {
	src := `package p

var x = 1

func f() {}
`
	var facts bytes.Buffer
	f := parseTestFile(t, "p.go", src, &facts)

	changed, err := AnonymousFuncToNamed().Apply(context.Background(), f)
	require.NoError(t, err)
	assert.False(t, changed, "nothing to rewrite")
}

const declarativeSource = `package main

import (
	"fmt"

	oldlog "github.com/old/log"
)

func main() {
	oldlog.Warn("x")
	fmt.Println()
}
`

func TestDeclarativeRules(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "hcl",
			file: "move-log.hcl",
			content: `
rename_selector {
  package = "github.com/old/log"
  from    = "Warn"
  to      = "Warning"
}

rename_import {
  from = "github.com/old/log"
  to   = "github.com/new/log"
}
`,
		},
		{
			name: "yaml",
			file: "move-log.yaml",
			content: `
rename_selector:
  - package: github.com/old/log
    from: Warn
    to: Warning
rename_import:
  - from: github.com/old/log
    to: github.com/new/log
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.content), 0644))

			reg := Default(dir)
			rule, err := reg.Lookup("move-log")
			require.NoError(t, err, "declarative rule should resolve")
			assert.Equal(t, "move-log", rule.Name())

			var facts bytes.Buffer
			f := parseTestFile(t, "main.go", declarativeSource, &facts)

			changed, err := rule.Apply(context.Background(), f)
			require.NoError(t, err)
			require.True(t, changed)

			out := render(t, f)
			assert.Contains(t, out, `oldlog "github.com/new/log"`)
			assert.Contains(t, out, `oldlog.Warning("x")`)
			assert.NotContains(t, out, "github.com/old/log")
		})
	}
}

func TestRenameSelectorImportNames(t *testing.T) {
	tests := []struct {
		name    string
		imp     string
		call    string
		pkg     string
		want    string
		changed bool
	}{
		{
			name:    "major_version_suffix",
			imp:     `"github.com/rs/zerolog/v2"`,
			call:    "zerolog.Warn()",
			pkg:     "github.com/rs/zerolog/v2",
			want:    "zerolog.Warning()",
			changed: true,
		},
		{
			name:    "gopkg_in_version",
			imp:     `"gopkg.in/yaml.v3"`,
			call:    "yaml.Warn()",
			pkg:     "gopkg.in/yaml.v3",
			want:    "yaml.Warning()",
			changed: true,
		},
		{
			name:    "go_prefix",
			imp:     `"github.com/mattn/go-isatty"`,
			call:    "isatty.Warn()",
			pkg:     "github.com/mattn/go-isatty",
			want:    "isatty.Warning()",
			changed: true,
		},
		{
			name:    "named_import",
			imp:     `zl "github.com/rs/zerolog/v2"`,
			call:    "zl.Warn()",
			pkg:     "github.com/rs/zerolog/v2",
			want:    "zl.Warning()",
			changed: true,
		},
		{
			name:    "other_package",
			imp:     `"github.com/rs/zerolog/v2"`,
			call:    "zerolog.Warn()",
			pkg:     "github.com/rs/zerolog",
			want:    "zerolog.Warn()",
			changed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "package main\n\nimport " + tt.imp + "\n\nfunc main() {\n\t" + tt.call + "\n}\n"

			var facts bytes.Buffer
			f := parseTestFile(t, "main.go", src, &facts)

			rule := &declarativeRule{name: "rename", spec: DeclarativeSpec{
				RenameSelectors: []RenameSelector{{Package: tt.pkg, From: "Warn", To: "Warning"}},
			}}

			changed, err := rule.Apply(context.Background(), f)
			require.NoError(t, err)
			assert.Equal(t, tt.changed, changed)
			assert.Contains(t, render(t, f), tt.want)
		})
	}
}

func TestAssumedPackageName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "fmt", want: "fmt"},
		{path: "github.com/rs/zerolog", want: "zerolog"},
		{path: "github.com/rs/zerolog/v2", want: "zerolog"},
		{path: "github.com/google/go-github/v60/github", want: "github"},
		{path: "github.com/bmatcuk/doublestar/v4", want: "doublestar"},
		{path: "gopkg.in/yaml.v3", want: "yaml"},
		{path: "github.com/mattn/go-isatty", want: "isatty"},
		{path: "v2", want: "v2"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, assumedPackageName(tt.path), "path=%s", tt.path)
	}
}

func TestLoadDeclarativeErrors(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		content     string
		errContains string
	}{
		{
			name:        "empty_rule",
			file:        "empty.hcl",
			content:     "",
			errContains: "declares no rewrites",
		},
		{
			name: "missing_to",
			file: "bad.yaml",
			content: `
rename_import:
  - from: a/b
`,
			errContains: "validating rule file",
		},
		{
			name: "unknown_field",
			file: "typo.yaml",
			content: `
rename_imports:
  - from: a/b
    to: c/d
`,
			errContains: "parsing YAML",
		},
		{
			name:        "bad_extension",
			file:        "rule.json",
			content:     "{}",
			errContains: "unsupported rule file extension",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadDeclarative(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestRegistry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.yml"), []byte("rename_import:\n  - from: a\n    to: b\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	reg := Default(dir)

	t.Run("builtin_lookup", func(t *testing.T) {
		for _, id := range Builtin {
			rule, err := reg.Lookup(id)
			require.NoError(t, err, "builtin %s should resolve", id)
			assert.Equal(t, id, rule.Name())
		}
	})

	t.Run("unknown_rule", func(t *testing.T) {
		_, err := reg.Lookup("does-not-exist")
		assert.True(t, errors.Is(err, ErrUnknownRule), "unknown rule should wrap ErrUnknownRule")
	})

	t.Run("path_traversal", func(t *testing.T) {
		_, err := reg.Lookup("../extra")
		assert.True(t, errors.Is(err, ErrUnknownRule), "ids with separators should not resolve")
	})

	t.Run("duplicate_registration", func(t *testing.T) {
		err := reg.Register(EveryModels())
		assert.True(t, errors.Is(err, ErrDuplicateRule))
	})

	t.Run("names", func(t *testing.T) {
		names, err := reg.Names()
		require.NoError(t, err)
		assert.Equal(t, []string{
			"anonymous-component-to-realname",
			"every-model-no-used",
			"every-models",
			"extra",
		}, names)
	})
}
