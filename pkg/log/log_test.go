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

package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/codemod/pkg/status"
	"gitlab.com/tozd/go/errors"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_rule_operation",
			op: func(t *testing.T, logger *Logger) {
				logger.StartRuleOperation(context.Background(), RuleOperation{
					Rule:   "every-models",
					Target: "./src",
					Parser: "go",
					CPUs:   2,
				})
				logger.EndRuleOperation(context.Background())
			},
			wantLogs: []string{
				"◆ every-models • ./src",
			},
		},
		{
			name: "log_transform_banner",
			op: func(t *testing.T, logger *Logger) {
				logger.Transform("every-models")
			},
			wantLogs: []string{
				"Transform every-models",
			},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Error("error message")
				logger.Success("success message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"❌ error message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("info %s", "test")
				logger.Warningf("warning %s", "test")
				logger.Errorf("error %s", "test")
				logger.Successf("success %s", "test")
			},
			wantLogs: []string{
				"ℹ️  info test",
				"⚠️  warning test",
				"❌ error test",
				"✅ success test",
			},
		},
		{
			name: "log_header",
			op: func(t *testing.T, logger *Logger) {
				logger.Header("running 2 rules")
			},
			wantLogs: []string{
				"codemod • running 2 rules",
			},
		},
		{
			name: "log_newline",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("first")
				logger.LogNewline()
				logger.Info("second")
			},
			wantLogs: []string{
				"ℹ️  first",
				"",
				"ℹ️  second",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewWithZerolog(buf, zerolog.Nop())

			tt.op(t, logger)

			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestLoggerContext(t *testing.T) {
	logger := New(io.Discard, zerolog.InfoLevel)

	ctx := NewContext(context.Background(), logger)

	got := FromContext(ctx)
	assert.Same(t, logger, got, "logger from context should be the same instance")

	assert.Panics(t, func() {
		FromContext(context.Background())
	}, "FromContext should panic when logger is missing")
}

func TestFileResultFormatting(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	row := func(symbol, path, st string) string {
		return fmt.Sprintf("    %s %-45s %-12s", symbol, path, st)
	}

	tests := []struct {
		name string
		res  FileResult
		want string
	}{
		{
			name: "rewritten_file",
			res:  FileResult{Path: "pkg/a.go", Rule: "r", Status: status.StatusOK},
			want: row("✓", "pkg/a.go", "ok"),
		},
		{
			name: "unmodified_file",
			res:  FileResult{Path: "pkg/b.go", Rule: "r", Status: status.StatusUnmodified},
			want: row("•", "pkg/b.go", "unmodified"),
		},
		{
			name: "skipped_file",
			res:  FileResult{Path: "pkg/c.go", Rule: "r", Status: status.StatusSkipped},
			want: row("-", "pkg/c.go", "skipped"),
		},
		{
			name: "failed_file",
			res:  FileResult{Path: "pkg/d.go", Rule: "r", Status: status.StatusError, Err: errors.New("boom")},
			want: row("✗", "pkg/d.go", "error") + "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewWithZerolog(buf, zerolog.Nop())

			logger.LogFileResult(context.Background(), tt.res)

			assert.Equal(t, tt.want, strings.TrimRight(buf.String(), "\n"), "formatted output should match")
		})
	}
}
