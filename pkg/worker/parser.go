package worker

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🧾 ParserConfig tunes parsing and printing
type ParserConfig struct {
	Comments  bool `yaml:"comments"`
	AllErrors bool `yaml:"all_errors"`
	TabWidth  int  `yaml:"tab_width" validate:"gte=1,lte=16"`
	UseSpaces bool `yaml:"use_spaces"`
}

// DefaultParserConfig matches gofmt.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		Comments:  true,
		TabWidth:  8,
		UseSpaces: true,
	}
}

// 📖 LoadParserConfig reads a YAML parser config, unset fields keep their defaults
func LoadParserConfig(path string) (ParserConfig, error) {
	cfg := DefaultParserConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Errorf("reading parser config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, errors.Errorf("parsing parser config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, errors.Errorf("validating parser config: %w", err)
	}

	return cfg, nil
}

func (c ParserConfig) mode() parser.Mode {
	var mode parser.Mode
	if c.Comments {
		mode |= parser.ParseComments
	}
	if c.AllErrors {
		mode |= parser.AllErrors
	}
	return mode
}

// 🌳 Source is a parsed file ready for a rule
type Source struct {
	AST *ast.File
	// Synthetic is set when the parser added a package clause that printing must drop
	Synthetic bool
}

// 🔌 Parser turns file contents into a syntax tree
type Parser interface {
	Name() string
	Parse(fset *token.FileSet, filename string, src []byte, cfg ParserConfig) (*Source, error)
}

// FallbackParser is tried when the requested parser fails and fallback is enabled
const FallbackParser = "go-fragment"

var parsers = map[string]Parser{}

// 📝 RegisterParser adds p to the parser table
func RegisterParser(p Parser) {
	parsers[p.Name()] = p
}

// 🎯 GetParser returns the parser registered under name
func GetParser(name string) (Parser, error) {
	p, ok := parsers[name]
	if !ok {
		return nil, errors.Errorf("unknown parser %q", name)
	}
	return p, nil
}

// ParserNames lists registered parsers.
func ParserNames() []string {
	names := make([]string, 0, len(parsers))
	for name := range parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterParser(goParser{})
	RegisterParser(fragmentParser{})
}

type goParser struct{}

func (goParser) Name() string { return "go" }

func (goParser) Parse(fset *token.FileSet, filename string, src []byte, cfg ParserConfig) (*Source, error) {
	file, err := parser.ParseFile(fset, filename, src, cfg.mode())
	if err != nil {
		return nil, err
	}
	return &Source{AST: file}, nil
}

// fragmentHeader is prepended to sources without a package clause
const fragmentHeader = "package fragment\n\n"

// fragmentParser accepts declaration-only snippets such as generated partials
type fragmentParser struct{}

func (fragmentParser) Name() string { return "go-fragment" }

func (fragmentParser) Parse(fset *token.FileSet, filename string, src []byte, cfg ParserConfig) (*Source, error) {
	file, err := parser.ParseFile(fset, filename, src, cfg.mode())
	if err == nil {
		return &Source{AST: file}, nil
	}

	wrapped := append([]byte(fragmentHeader), src...)
	file, werr := parser.ParseFile(fset, filename, wrapped, cfg.mode())
	if werr != nil {
		// report the error against the original source
		return nil, err
	}
	return &Source{AST: file, Synthetic: true}, nil
}

// parse runs the named parser, retrying with FallbackParser when allowed
func parse(name string, fallback bool, fset *token.FileSet, filename string, src []byte, cfg ParserConfig) (*Source, error) {
	p, err := GetParser(name)
	if err != nil {
		return nil, err
	}

	source, err := p.Parse(fset, filename, src, cfg)
	if err == nil {
		return source, nil
	}
	if !fallback || name == FallbackParser {
		return nil, errors.Errorf("parsing with %s: %w", name, err)
	}

	fb, ferr := GetParser(FallbackParser)
	if ferr != nil {
		return nil, errors.Errorf("parsing with %s: %w", name, err)
	}
	source, ferr = fb.Parse(fset, filename, src, cfg)
	if ferr != nil {
		return nil, errors.Errorf("parsing with %s: %w", name, err)
	}
	return source, nil
}
