package worker

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

type ignoreRule struct {
	pattern string
	negate  bool
}

// 🙈 Matcher decides which discovered paths are left alone
type Matcher struct {
	rules []ignoreRule
}

// 🏭 NewMatcher builds a matcher from raw doublestar patterns and gitignore-style files.
// Later rules win, so a negated line re-includes a path excluded earlier.
func NewMatcher(patterns []string, files []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		if err := m.add(p, false); err != nil {
			return nil, err
		}
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Errorf("reading ignore config %s: %w", file, err)
		}
		if err := m.addGitignore(data); err != nil {
			return nil, errors.Errorf("parsing ignore config %s: %w", file, err)
		}
	}

	return m, nil
}

func (m *Matcher) add(pattern string, negate bool) error {
	if !doublestar.ValidatePattern(pattern) {
		return errors.Errorf("invalid ignore pattern %q", pattern)
	}
	m.rules = append(m.rules, ignoreRule{pattern: pattern, negate: negate})
	return nil
}

func (m *Matcher) addGitignore(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		negate := false
		if strings.HasPrefix(line, "!") {
			negate = true
			line = line[1:]
		}

		for _, p := range gitignorePatterns(line) {
			if err := m.add(p, negate); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

// gitignorePatterns converts one gitignore line into doublestar patterns.
//
//	vendor/     -> **/vendor/**
//	*.pb.go     -> **/*.pb.go, **/*.pb.go/**
//	/gen/x.go   -> gen/x.go, gen/x.go/**
func gitignorePatterns(line string) []string {
	dirOnly := strings.HasSuffix(line, "/")
	line = strings.TrimSuffix(line, "/")

	anchored := strings.Contains(line, "/")
	line = strings.TrimPrefix(line, "/")
	if !anchored && !strings.HasPrefix(line, "**/") {
		line = "**/" + line
	}

	if dirOnly {
		return []string{line + "/**"}
	}
	return []string{line, line + "/**"}
}

// Match reports whether rel, a slash separated path relative to the target, is ignored.
func (m *Matcher) Match(rel string) bool {
	ignored := false
	for _, r := range m.rules {
		if doublestar.MatchUnvalidated(r.pattern, rel) {
			ignored = !r.negate
		}
	}
	return ignored
}
