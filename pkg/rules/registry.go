package rules

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// Builtin is the ordered rule set every run starts with.
var Builtin = []string{
	// EveryModels collects model endpoint urls
	"every-models",
}

// declarativeExts are tried in order when resolving a rule from the rules directory
var declarativeExts = []string{".hcl", ".yaml", ".yml"}

var (
	ErrUnknownRule   = errors.Base("unknown rule")
	ErrDuplicateRule = errors.Base("rule already registered")
)

// 🗂️ Registry resolves rule identifiers to implementations
type Registry struct {
	rules map[string]Rule
	dir   string
}

// 🏭 NewRegistry creates an empty registry. dir is the rules directory searched for
// declarative rules, it may be empty.
func NewRegistry(dir string) *Registry {
	return &Registry{
		rules: make(map[string]Rule),
		dir:   dir,
	}
}

// 🏭 Default returns a registry with every compiled-in rule registered
func Default(dir string) *Registry {
	r := NewRegistry(dir)
	for _, rule := range []Rule{
		EveryModels(),
		EveryModelNoUsed(),
		AnonymousFuncToNamed(),
	} {
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds rule under its name. Names are immutable once registered.
func (r *Registry) Register(rule Rule) error {
	name := rule.Name()
	if _, ok := r.rules[name]; ok {
		return errors.Errorf("%w: %s", ErrDuplicateRule, name)
	}
	r.rules[name] = rule
	return nil
}

// Dir returns the rules directory.
func (r *Registry) Dir() string {
	return r.dir
}

// 🔍 Lookup resolves id, first in the compiled-in table then in the rules directory
func (r *Registry) Lookup(id string) (Rule, error) {
	if rule, ok := r.rules[id]; ok {
		return rule, nil
	}

	if r.dir == "" || !validID(id) {
		return nil, errors.Errorf("%w: %s", ErrUnknownRule, id)
	}

	for _, ext := range declarativeExts {
		path := filepath.Join(r.dir, id+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		rule, err := LoadDeclarative(path)
		if err != nil {
			return nil, errors.Errorf("loading rule %s: %w", id, err)
		}
		return rule, nil
	}

	return nil, errors.Errorf("%w: %s", ErrUnknownRule, id)
}

// 📋 Names lists compiled-in rules followed by declarative rules found in the rules directory
func (r *Registry) Names() ([]string, error) {
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)

	if r.dir == "" {
		return names, nil
	}

	matches, err := doublestar.Glob(os.DirFS(r.dir), "*.{hcl,yaml,yml}")
	if err != nil {
		return nil, errors.Errorf("listing rules directory: %w", err)
	}
	sort.Strings(matches)

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		seen[name] = true
	}
	for _, m := range matches {
		id := strings.TrimSuffix(m, filepath.Ext(m))
		if seen[id] {
			continue
		}
		seen[id] = true
		names = append(names, id)
	}

	return names, nil
}

func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
