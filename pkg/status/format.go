package status

import (
	"fmt"
	"time"
)

// FileFormatter defines how operation progress and outcomes should be formatted
type FileFormatter interface {
	// FormatItem formats the outcome of one source item
	FormatItem(kind Kind, path, outcome string) string

	// FormatProgress formats a progress message
	FormatProgress(kind Kind, p Progress) string

	// FormatStatus formats the terminal line of an operation
	FormatStatus(kind Kind, s Status, p Progress) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatItem formats an item outcome with emojis
func (f *DefaultFileFormatter) FormatItem(kind Kind, path, outcome string) string {
	switch outcome {
	case "succeeded":
		switch kind {
		case KindMove:
			return fmt.Sprintf("🚚 Moved %s", path)
		case KindDelete:
			return fmt.Sprintf("🗑️  Removed %s", path)
		default:
			return fmt.Sprintf("✨ Copied %s", path)
		}
	case "conflict":
		return fmt.Sprintf("⚠️  Skipped %s (already exists)", path)
	case "failed":
		return fmt.Sprintf("❌ Failed %s", path)
	default:
		return fmt.Sprintf("👍 Untouched %s", path)
	}
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFileFormatter) FormatProgress(kind Kind, p Progress) string {
	percentage := p.Percent()
	if p.TotalFiles == 0 && p.FilesProcessed > 0 {
		percentage = 100
	}

	prefix := "⏳"
	if p.TotalFiles > 0 && p.FilesProcessed >= p.TotalFiles {
		prefix = "✅"
	}

	return fmt.Sprintf("%s %s: %d/%d files, %s/%s (%.0f%%)",
		prefix, kind, p.FilesProcessed, p.TotalFiles,
		FormatBytes(p.BytesProcessed), FormatBytes(p.TotalBytes), percentage)
}

// FormatStatus formats the terminal state of an operation
func (f *DefaultFileFormatter) FormatStatus(kind Kind, s Status, p Progress) string {
	elapsed := (time.Duration(p.ElapsedMs) * time.Millisecond).Round(time.Millisecond)
	switch s {
	case StatusDone:
		return fmt.Sprintf("✅ %s finished: %d files in %s", kind, p.FilesProcessed, elapsed)
	case StatusPartiallySucceeded:
		return fmt.Sprintf("⚠️  %s finished with problems: %d files in %s", kind, p.FilesProcessed, elapsed)
	case StatusCancelled:
		return fmt.Sprintf("🛑 %s cancelled after %d files", kind, p.FilesProcessed)
	case StatusFailed:
		return fmt.Sprintf("❌ %s failed", kind)
	default:
		return f.FormatProgress(kind, p)
	}
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}

// FormatBytes renders a byte count with a binary unit
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
