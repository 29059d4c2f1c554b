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

package status

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 FileStatus is the outcome of one rule on one file
type FileStatus int

const (
	StatusUnknown    FileStatus = iota
	StatusOK                    // Rule rewrote the file
	StatusUnmodified            // Rule ran and changed nothing
	StatusSkipped               // File was not handed to the rule
	StatusError                 // Reading, parsing, the rule or writing failed
)

// 🔤 String returns the string representation of the status
func (s FileStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnmodified:
		return "unmodified"
	case StatusSkipped:
		return "skipped"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// 📁 FileInfo represents the tracked result for one file
type FileInfo struct {
	Path   string     // Path relative to the base directory
	Status FileStatus // Result of the rule
	Err    error      // Set when Status is StatusError
}

// 📈 Stats counts results per status
type Stats struct {
	OK         int `json:"ok"`
	Unmodified int `json:"unmodified"`
	Skipped    int `json:"skipped"`
	Errors     int `json:"errors"`
}

// Total returns the number of tracked files.
func (s Stats) Total() int {
	return s.OK + s.Unmodified + s.Skipped + s.Errors
}

// 🎯 Manager tracks file results of one rule pass
type Manager struct {
	baseDir   string          // Base directory for relative paths
	logger    *zerolog.Logger // Logger for status updates
	formatter FileFormatter   // Formatter for status messages

	mu    sync.Mutex
	files map[string]FileInfo
	stats Stats
	total int
}

// 🏭 New creates a new status manager
func New(baseDir string, logger *zerolog.Logger) *Manager {
	return &Manager{
		baseDir:   filepath.Clean(baseDir),
		logger:    logger,
		formatter: NewDefaultFileFormatter(),
		files:     make(map[string]FileInfo),
	}
}

func (m *Manager) getAbsPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.baseDir, path)
}

// 📖 ReadFile reads a file relative to the base directory
func (m *Manager) ReadFile(ctx context.Context, path string) ([]byte, os.FileMode, error) {
	absPath := m.getAbsPath(path)

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, 0, errors.Errorf("stat file: %w", err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, 0, errors.Errorf("reading file: %w", err)
	}
	return content, info.Mode().Perm(), nil
}

// 💾 WriteFileAtomic writes content next to the target and renames it into place
func (m *Manager) WriteFileAtomic(ctx context.Context, path string, content []byte, mode os.FileMode) error {
	absPath := m.getAbsPath(path)

	tmp, err := os.CreateTemp(filepath.Dir(absPath), "."+filepath.Base(absPath)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("setting file mode: %w", err)
	}

	if err := os.Rename(tempPath, absPath); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// 📝 TrackFile records the result for one file
func (m *Manager) TrackFile(ctx context.Context, info FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.files[info.Path]; ok {
		m.count(prev.Status, -1)
	}
	m.files[info.Path] = info
	m.count(info.Status, 1)

	m.logger.Debug().
		Err(info.Err).
		Str("path", info.Path).
		Stringer("status", info.Status).
		Msg(m.formatter.FormatFile(info))
}

func (m *Manager) count(s FileStatus, delta int) {
	switch s {
	case StatusOK:
		m.stats.OK += delta
	case StatusUnmodified:
		m.stats.Unmodified += delta
	case StatusSkipped:
		m.stats.Skipped += delta
	case StatusError:
		m.stats.Errors += delta
	}
}

// 🔍 GetFileInfo returns the tracked result for path
func (m *Manager) GetFileInfo(ctx context.Context, path string) (FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.files[path]
	if !ok {
		return FileInfo{}, errors.Errorf("file not tracked: %s", path)
	}
	return info, nil
}

// 📋 ListFiles returns every tracked result sorted by path
func (m *Manager) ListFiles(ctx context.Context) []FileInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	files := make([]FileInfo, 0, len(m.files))
	for _, info := range m.files {
		files = append(files, info)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// 📈 Stats returns a snapshot of the counters
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// 🚦 StartOperation records how many files the pass will look at
func (m *Manager) StartOperation(ctx context.Context, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total = total
	m.logger.Info().Int("total", total).Msg(m.formatter.FormatProgress(0, total))
}

// 🏁 FinishOperation logs the final counters and returns the summary line
func (m *Manager) FinishOperation(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := m.formatter.FormatSummary(m.stats)
	m.logger.Info().
		Int("processed", m.stats.Total()).
		Int("total", m.total).
		Int("ok", m.stats.OK).
		Int("unmodified", m.stats.Unmodified).
		Int("skipped", m.stats.Skipped).
		Int("errors", m.stats.Errors).
		Msg(m.formatter.FormatProgress(m.stats.Total(), m.total))
	return summary
}
