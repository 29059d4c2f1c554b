// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte, filename string) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// FileNames are searched in order by Find
var FileNames = []string{".codemod.yaml", ".codemod.yml", ".codemod.hcl"}

// 📚 Config represents the project configuration file
type Config struct {
	CPUs       int      `yaml:"cpus" hcl:"cpus,optional" validate:"gte=0"`
	Parser     string   `yaml:"parser" hcl:"parser,optional" validate:"omitempty,oneof=go go-fragment"`
	ExtraRules []string `yaml:"extra_rules" hcl:"extra_rules,optional" validate:"dive,required"`
	Gitignore  string   `yaml:"gitignore" hcl:"gitignore,optional"`
	Style      bool     `yaml:"style" hcl:"style,optional"`
	RulesDir   string   `yaml:"rules_dir" hcl:"rules_dir,optional"`
	ErrorLog   string   `yaml:"error_log" hcl:"error_log,optional"`
	FactsLog   string   `yaml:"facts_log" hcl:"facts_log,optional"`

	location string
}

// Defaults are used when no file is found and fill unset fields of loaded files.
const (
	DefaultErrorLog = "codemod.error.log"
	DefaultFactsLog = "codemod.facts.log"
	DefaultRulesDir = ".codemod/rules"
)

// 🏭 Default returns the configuration used without a project file
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.ErrorLog == "" {
		cfg.ErrorLog = DefaultErrorLog
	}
	if cfg.FactsLog == "" {
		cfg.FactsLog = DefaultFactsLog
	}
	if cfg.RulesDir == "" {
		cfg.RulesDir = DefaultRulesDir
	}
}

// Location returns the file the config was loaded from, empty for defaults.
func (cfg *Config) Location() string {
	return cfg.location
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data, path)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	cfg.location = path
	cfg.applyDefaults()
	cfg.resolve(filepath.Dir(path))

	return cfg, nil
}

// 🔎 Find loads the first project file found in dir, or the defaults when none exists
func Find(ctx context.Context, dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(ctx, path)
		}
	}
	zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("no config file found, using defaults")
	return Default(), nil
}

var validate = validator.New()

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return errors.Errorf("invalid config: %w", err)
	}
	return nil
}

// resolve makes file paths relative to the config file's directory
func (cfg *Config) resolve(base string) {
	for _, p := range []*string{&cfg.Gitignore, &cfg.RulesDir, &cfg.ErrorLog, &cfg.FactsLog} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// 📝 ExtraRulesString returns the extra rules in the --extraScripts form
func (cfg *Config) ExtraRulesString() string {
	return strings.Join(cfg.ExtraRules, ",")
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	parser := cfg.Parser
	if parser == "" {
		parser = "go"
	}
	return fmt.Sprintf("parser=%s cpus=%d rules=[%s] style=%t", parser, cfg.CPUs, cfg.ExtraRulesString(), cfg.Style)
}
