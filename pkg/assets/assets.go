// Package assets carries the fixed configuration files referenced by every worker run.
package assets

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"

	"github.com/walteh/codemod/pkg/invocation"
	"gitlab.com/tozd/go/errors"
)

const (
	ParserConfigName = "parser.yaml"
	IgnoreConfigName = "codemod.ignore"
)

//go:embed parser.yaml
var parserConfig []byte

//go:embed codemod.ignore
var ignoreConfig []byte

// DefaultDir is the cache directory the files are materialized into.
func DefaultDir() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Errorf("locating user cache dir: %w", err)
	}
	return filepath.Join(cache, "codemod"), nil
}

// 📦 Materialize writes the embedded files into dir unless an identical copy is
// already there, and returns their paths.
func Materialize(dir string) (invocation.Paths, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return invocation.Paths{}, errors.Errorf("creating assets dir: %w", err)
	}

	paths := invocation.Paths{
		ParserConfig: filepath.Join(dir, ParserConfigName),
		IgnoreConfig: filepath.Join(dir, IgnoreConfigName),
	}

	for path, content := range map[string][]byte{
		paths.ParserConfig: parserConfig,
		paths.IgnoreConfig: ignoreConfig,
	} {
		if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, content) {
			continue
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return invocation.Paths{}, errors.Errorf("writing %s: %w", filepath.Base(path), err)
		}
	}

	return paths, nil
}
