package status

import (
	"fmt"
)

// FileFormatter defines how file results and progress should be formatted
type FileFormatter interface {
	// FormatFile formats the result of one file
	FormatFile(info FileInfo) string

	// FormatProgress formats a progress message
	FormatProgress(current, total int) string

	// FormatSummary formats the counters of a finished pass
	FormatSummary(stats Stats) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatFile formats a file result with emojis
func (f *DefaultFileFormatter) FormatFile(info FileInfo) string {
	switch info.Status {
	case StatusOK:
		return fmt.Sprintf("📝 Rewrote %s", info.Path)
	case StatusSkipped:
		return fmt.Sprintf("⏭️  Skipped %s", info.Path)
	case StatusError:
		if info.Err != nil {
			return fmt.Sprintf("❌ Failed %s: %v", info.Path, info.Err)
		}
		return fmt.Sprintf("❌ Failed %s", info.Path)
	default:
		return fmt.Sprintf("👍 Unchanged %s", info.Path)
	}
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFileFormatter) FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		percentage = 0
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}

// FormatSummary formats the result counters
func (f *DefaultFileFormatter) FormatSummary(stats Stats) string {
	return fmt.Sprintf("Results: %d errors, %d unmodified, %d skipped, %d ok",
		stats.Errors, stats.Unmodified, stats.Skipped, stats.OK)
}
