// Package check implements the composable policy checks run by the engine.
//
// Shell-syntax recognition throughout this package is a best-effort
// classifier built on normalized-string and regexp matching, not a shell
// grammar. Rule tables are kept as declarative data so individual rules can
// be extended and tested independently of parsing.
package check

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hookwarden/hookwarden/internal/config"
	"github.com/hookwarden/hookwarden/internal/domain/policy"
	"github.com/hookwarden/hookwarden/internal/domain/shell"
)

// maxRepoWalkDepth bounds the parent traversal when locating the
// repository root for .gitignore bookkeeping.
const maxRepoWalkDepth = 50

// Deletion blocks rm commands and steers the agent toward a repository-local
// trash directory instead of permanent deletion.
type Deletion struct {
	cfg    config.Provider
	logger *slog.Logger
}

// NewDeletion creates the destructive-deletion check.
func NewDeletion(cfg config.Provider, logger *slog.Logger) *Deletion {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deletion{cfg: cfg, logger: logger}
}

// Name implements policy.Check.
func (c *Deletion) Name() string { return "rm_block" }

// Evaluate blocks any subcommand whose leading verb is rm, including path
// prefixed forms like /bin/rm. As a side effect it makes sure the trash
// directory and log file are ignored by the repository; that bookkeeping is
// best-effort and never influences the decision.
func (c *Deletion) Evaluate(_ context.Context, event policy.ToolEvent) policy.CheckResult {
	if !event.IsBash() {
		return policy.Allowed
	}
	conf := c.cfg.Config()
	if !conf.Hooks.RMBlock {
		return policy.Allowed
	}

	for _, sub := range shell.Split(event.Command) {
		if !isRemoveCommand(sub) {
			continue
		}
		if event.CWD != "" {
			ensureIgnoreEntries(event.CWD, conf.RMBlock.TrashDir, conf.RMBlock.LogFile)
		}
		return policy.BlockFor(deletionReason(conf.RMBlock))
	}
	return policy.Allowed
}

// isRemoveCommand reports whether the subcommand's first shell word is rm,
// with any absolute or relative path prefix stripped.
func isRemoveCommand(sub string) bool {
	word := shell.FirstWord(sub)
	if word == "" {
		return false
	}
	if strings.Contains(word, "/") {
		word = filepath.Base(word)
	}
	return word == "rm"
}

func deletionReason(conf config.RMBlockConfig) string {
	if !conf.RequireLog {
		return fmt.Sprintf(
			"Instead of using 'rm':\n"+
				"- MOVE files using `mv` to the %s directory in the CURRENT folder (create it if needed)",
			conf.TrashDir)
	}
	return fmt.Sprintf(
		"Instead of using 'rm':\n"+
			"- MOVE files using `mv` to the %s directory in the CURRENT folder (create it if needed),\n"+
			"- Add an entry in a markdown file called '%s' in the current directory, "+
			"where you show a one-liner with the file name, where it moved, and the reason to trash it, e.g.:\n\n"+
			"```\n"+
			"test_script.py - moved to %s/ - temporary test script\n"+
			"data/junk.txt - moved to %s/ - data file we don't need\n"+
			"```",
		conf.TrashDir, conf.LogFile, conf.TrashDir, conf.TrashDir)
}

// findRepoRoot walks parent directories from dir looking for a .git marker,
// bounded to maxRepoWalkDepth levels. Returns "" when not in a repository.
func findRepoRoot(dir string) string {
	current, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for range maxRepoWalkDepth {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
	return ""
}

// ensureIgnoreEntries appends the trash directory and log file to the
// repository root's .gitignore when they are not already listed. All
// failures are swallowed: this is a convenience, not a correctness
// requirement of the check.
func ensureIgnoreEntries(cwd, trashDir, logFile string) {
	root := findRepoRoot(cwd)
	if root == "" {
		return
	}
	ignorePath := filepath.Join(root, ".gitignore")

	existing := make(map[string]struct{})
	endsWithNewline := true
	if f, err := os.Open(ignorePath); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				existing[line] = struct{}{}
			}
		}
		f.Close()
		if scanner.Err() != nil {
			return
		}
		if data, err := os.ReadFile(ignorePath); err == nil && len(data) > 0 {
			last := data[len(data)-1]
			endsWithNewline = last == '\n' || last == '\r'
		}
	}

	_, hasTrash := existing[trashDir]
	_, hasTrashSlash := existing[trashDir+"/"]
	needsTrash := !hasTrash && !hasTrashSlash
	_, hasLog := existing[logFile]
	needsLog := !hasLog

	if !needsTrash && !needsLog {
		return
	}

	f, err := os.OpenFile(ignorePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	var b strings.Builder
	if !endsWithNewline {
		b.WriteString("\n")
	}
	b.WriteString("\n# Safety-hooks: trash directory and log file (anywhere in repo)\n")
	if needsTrash {
		b.WriteString(trashDir + "/\n")
	}
	if needsLog {
		b.WriteString(logFile + "\n")
	}
	_, _ = f.WriteString(b.String())
}
