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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/codemod/cmd/codemod/opts"
	"github.com/walteh/codemod/pkg/executor"
	"github.com/walteh/codemod/pkg/preflight"
	"github.com/walteh/codemod/pkg/worker"
	"gitlab.com/tozd/go/errors"
)

// MockRunner is a mock implementation of executor.CommandRunner
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, cmd executor.Command) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

type gateFunc func(ctx context.Context, dir string, force bool) error

func (f gateFunc) Run(ctx context.Context, dir string, force bool) error {
	return f(ctx, dir, force)
}

type harness struct {
	root   *opts.RootOpts
	runner *MockRunner
	stdout *bytes.Buffer
	gated  int
	gate   error
	dir    string
}

func newHarness(t *testing.T, run executor.RunConfig) *harness {
	t.Helper()
	color.NoColor = true
	pterm.DisableColor()
	t.Cleanup(func() {
		color.NoColor = false
		pterm.EnableColor()
	})

	return &harness{
		root:   &opts.RootOpts{Run: run},
		runner: &MockRunner{},
		stdout: &bytes.Buffer{},
		dir:    t.TempDir(),
	}
}

func (h *harness) execute(args ...string) error {
	d := deps{
		gate: func(version string) gateRunner {
			return gateFunc(func(ctx context.Context, dir string, force bool) error {
				h.gated++
				return h.gate
			})
		},
		runner:    h.runner,
		workerBin: func() (string, error) { return "/bin/codemod", nil },
		assetsDir: func() (string, error) { return filepath.Join(h.dir, "assets"), nil },
		stdout:    h.stdout,
	}

	cmd := newRootCmd(h.root, d)
	cmd.SetArgs(args)
	cmd.SetOut(h.stdout)
	return cmd.ExecuteContext(context.Background())
}

func (h *harness) writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, ".codemod.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func hasArgs(cmd executor.Command, want ...string) bool {
	for i := range cmd.Args {
		if slices.Equal(cmd.Args[i:min(i+len(want), len(cmd.Args))], want) {
			return true
		}
	}
	return false
}

func TestInvalidTarget(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing_argument", args: nil},
		{name: "missing_directory", args: []string{"/does/not/exist"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, executor.RunConfig{})
			cfg := h.writeConfig(t, "cpus: 2\n")

			file := filepath.Join(h.dir, "file.go")
			require.NoError(t, os.WriteFile(file, []byte("package x\n"), 0644))

			err := h.execute(append(tt.args, "--config", cfg)...)
			assert.ErrorIs(t, err, errInvalidTarget)
			assert.Zero(t, h.gated, "preflight should not run")
			h.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)

			err = h.execute(file, "--config", cfg)
			assert.ErrorIs(t, err, errInvalidTarget, "files are not valid targets")
		})
	}
}

func TestPreflightFailureStopsRun(t *testing.T) {
	h := newHarness(t, executor.RunConfig{})
	cfg := h.writeConfig(t, "")
	h.gate = errors.Errorf("%w: commit or stash them first", preflight.ErrDirtyTree)

	err := h.execute(h.dir, "--config", cfg)
	assert.ErrorIs(t, err, preflight.ErrDirtyTree)
	assert.Equal(t, 1, h.gated)
	h.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestRunAllRules(t *testing.T) {
	h := newHarness(t, executor.RunConfig{})

	rulesDir := filepath.Join(h.dir, "rules")
	require.NoError(t, os.MkdirAll(rulesDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(rulesDir, "move-log.hcl"), []byte(`
rename_import {
  from = "log"
  to   = "github.com/rs/zerolog/log"
}
`), 0644))
	cfg := h.writeConfig(t, "cpus: 3\nrules_dir: rules\n")

	var order []string
	h.runner.On("Run", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			cmd := args.Get(1).(executor.Command)
			i := slices.Index(cmd.Args, "--transform")
			order = append(order, cmd.Args[i+1])
		}).
		Return(nil)

	err := h.execute(h.dir, "--config", cfg, "--extraScripts=move-log, no-such-rule ,anonymous-component-to-realname")
	require.NoError(t, err, "rule failures do not fail the run")

	assert.Equal(t, 1, h.gated, "preflight runs once")
	assert.Equal(t, []string{"every-models", "move-log", "anonymous-component-to-realname"}, order, "known rules run in order")

	out := h.stdout.String()
	assert.Contains(t, out, "Transform every-models")
	assert.Contains(t, out, "Transform no-such-rule")
	assert.Contains(t, out, "4 rules, 1 failed", "summary should count the unknown rule")
}

func TestFlagsOverrideConfig(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantArgs [][]string
		absent   []string
	}{
		{
			name:     "config_values",
			wantArgs: [][]string{{"--cpus", "3"}, {"--group-imports"}},
			absent:   []string{"--dry"},
		},
		{
			name:     "flag_values",
			args:     []string{"--cpus=7", "--style=false", "--dry"},
			wantArgs: [][]string{{"--cpus", "7"}, {"--dry"}},
			absent:   []string{"--group-imports"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, executor.RunConfig{})
			cfg := h.writeConfig(t, "cpus: 3\nstyle: true\n")

			var seen []executor.Command
			h.runner.On("Run", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { seen = append(seen, args.Get(1).(executor.Command)) }).
				Return(nil)

			require.NoError(t, h.execute(append([]string{h.dir, "--config", cfg}, tt.args...)...))
			require.Len(t, seen, 1, "only the default rule runs")

			cmd := seen[0]
			assert.Equal(t, "/bin/codemod", cmd.Path)
			assert.Equal(t, []string{"worker", h.dir}, cmd.Args[:2])
			for _, want := range tt.wantArgs {
				assert.True(t, hasArgs(cmd, want...), "args should contain %v", want)
			}
			for _, flag := range tt.absent {
				assert.NotContains(t, cmd.Args, flag)
			}
			assert.True(t, hasArgs(cmd, "--parser-config", filepath.Join(h.dir, "assets", "parser.yaml")), "materialized assets are used")
		})
	}
}

func TestDevelopmentMode(t *testing.T) {
	h := newHarness(t, executor.RunConfig{Verbose: true, PersistErrors: true})
	h.gate = errors.New("must not be called")
	cfg := h.writeConfig(t, "error_log: errors.log\n")

	h.runner.On("Run", mock.Anything, mock.Anything).Return(errors.New("exit status 2"))

	require.NoError(t, h.execute(h.dir, "--config", cfg))
	assert.Zero(t, h.gated, "preflight is skipped in development mode")

	out := h.stdout.String()
	assert.Contains(t, out, "Development mode")
	assert.Contains(t, out, "Running worker with: /bin/codemod worker "+h.dir)

	data, err := os.ReadFile(filepath.Join(h.dir, "errors.log"))
	require.NoError(t, err, "failures are persisted")
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
	assert.Contains(t, string(data), "exit status 2")
}

func TestSubcommands(t *testing.T) {
	h := newHarness(t, executor.RunConfig{})

	require.NoError(t, h.execute("version"))
	assert.Contains(t, h.stdout.String(), "codemod version info")

	h.stdout.Reset()
	rulesDir := filepath.Join(h.dir, "rules")
	require.NoError(t, os.MkdirAll(rulesDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(rulesDir, "move-log.yaml"), []byte("rename_import:\n  - from: a\n    to: b\n"), 0644))
	cfg := h.writeConfig(t, "rules_dir: rules\n")

	require.NoError(t, h.execute("rules", "--config", cfg))
	out := h.stdout.String()
	assert.Contains(t, out, "every-models (default)")
	assert.Contains(t, out, "anonymous-component-to-realname")
	assert.Contains(t, out, "move-log")
}

func TestWorkerCommandFailedFiles(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr bool
	}{
		{
			name:  "all_files_parse",
			files: map[string]string{"a.go": "package a\n\nvar A = func() {}\n"},
		},
		{
			name: "broken_file",
			files: map[string]string{
				"a.go":      "package a\n\nvar A = func() {}\n",
				"broken.go": "package a\n\nfunc {",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, executor.RunConfig{})
			target := filepath.Join(h.dir, "src")
			for name, content := range tt.files {
				require.NoError(t, os.MkdirAll(target, 0755))
				require.NoError(t, os.WriteFile(filepath.Join(target, name), []byte(content), 0644))
			}
			t.Setenv(executor.EnvFactsLog, "")
			t.Setenv(executor.EnvRulesDir, "")

			err := h.execute("worker", target, "--transform", "anonymous-component-to-realname", "--no-fallback", "--verbose=1")
			if tt.wantErr {
				assert.ErrorIs(t, err, worker.ErrFilesFailed)
			} else {
				assert.NoError(t, err)
			}

			data, err := os.ReadFile(filepath.Join(target, "a.go"))
			require.NoError(t, err)
			assert.Contains(t, string(data), "func A()", "good files are rewritten either way")
		})
	}
}
