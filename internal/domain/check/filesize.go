package check

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hookwarden/hookwarden/internal/config"
	"github.com/hookwarden/hookwarden/internal/domain/policy"
)

// FileSize asks before an edit or write would leave a source file over the
// configured line limit. It is advisory: any internal failure degrades to
// no opinion rather than blocking.
type FileSize struct {
	cfg    config.Provider
	logger *slog.Logger
}

// NewFileSize creates the oversized-file check.
func NewFileSize(cfg config.Provider, logger *slog.Logger) *FileSize {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSize{cfg: cfg, logger: logger}
}

// Name implements policy.Check.
func (c *FileSize) Name() string { return "file_length_limit" }

// Evaluate implements policy.Check. Only Write/Edit events targeting a
// recognized source-code extension are considered; the boundary is
// inclusive, so a result of exactly max_lines is allowed.
func (c *FileSize) Evaluate(_ context.Context, event policy.ToolEvent) policy.CheckResult {
	if !event.IsFileWrite() {
		return policy.Allowed
	}
	conf := c.cfg.Config()
	if !conf.Hooks.FileLengthLimit {
		return policy.Allowed
	}
	if !conf.IsSourceFile(event.FilePath) {
		return policy.Allowed
	}

	lines := c.resultingLineCount(event)
	maxLines := conf.FileLengthLimit.MaxLines
	if lines <= maxLines {
		return policy.Allowed
	}

	return policy.AskFor(fmt.Sprintf(
		"**File length limit exceeded (%d lines > %d lines).**\n\n"+
			"The resulting file `%s` would be %d lines long.\n"+
			"To maintain code quality and modularity, files should be kept under %d lines.\n\n"+
			"Would you like me to:\n"+
			"1. Refactor the code into smaller, more modular files?\n"+
			"2. Proceed with the large file anyway?",
		lines, maxLines, event.FilePath, lines, maxLines))
}

// resultingLineCount computes the line count the file would have after the
// operation. A Write is the new content; an Edit applies the replacement to
// the current on-disk content. A missing or unreadable target, or a
// malformed edit, counts as zero (no opinion).
func (c *FileSize) resultingLineCount(event policy.ToolEvent) int {
	switch event.ToolName {
	case "Write":
		return countLines(event.Content)
	case "Edit":
		if event.OldString == "" {
			return 0
		}
		path := event.FilePath
		if !filepath.IsAbs(path) && event.CWD != "" {
			path = filepath.Join(event.CWD, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return 0
		}
		current := string(data)
		var result string
		if event.ReplaceAll {
			result = strings.ReplaceAll(current, event.OldString, event.NewString)
		} else {
			result = strings.Replace(current, event.OldString, event.NewString, 1)
		}
		return countLines(result)
	}
	return 0
}

// countLines counts lines the way splitlines does: a trailing newline does
// not start an extra line, and empty content has zero lines.
func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}
