// Package gitcli implements the repository status port by shelling out to
// the git binary. Every invocation is bounded by the configured query
// timeout so a wedged git process cannot stall an evaluation.
package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/hookwarden/hookwarden/internal/domain/vcs"
)

// Provider runs git subcommands against a working directory.
type Provider struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewProvider creates a git-backed status provider. A non-positive timeout
// falls back to 5 seconds.
func NewProvider(timeout time.Duration, logger *slog.Logger) *Provider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{timeout: timeout, logger: logger}
}

// Status implements vcs.StatusProvider. It runs one porcelain status query
// for all paths; clean tracked paths produce no output and are omitted.
func (p *Provider) Status(ctx context.Context, dir string, paths []string) ([]vcs.FileStatus, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	args := append([]string{"status", "--porcelain", "--"}, paths...)
	out, err := p.run(ctx, dir, args...)
	if err != nil {
		return nil, err
	}

	var statuses []vcs.FileStatus
	for _, line := range splitLines(out) {
		path, state, ok := parsePorcelainLine(line)
		if !ok {
			continue
		}
		statuses = append(statuses, vcs.FileStatus{Path: path, State: state})
	}
	return statuses, nil
}

// DryRunAdd implements vcs.StatusProvider using git add --dry-run, which
// prints one "add 'file'" line per file that would be staged.
func (p *Provider) DryRunAdd(ctx context.Context, dir, path string) ([]string, error) {
	out, err := p.run(ctx, dir, "add", "--dry-run", "--", path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range splitLines(out) {
		if f, ok := parseDryRunLine(line); ok {
			files = append(files, f)
		}
	}
	return files, nil
}

// Changes implements vcs.StatusProvider: the full porcelain status of the
// working tree, one line per changed path.
func (p *Provider) Changes(ctx context.Context, dir string) ([]string, error) {
	out, err := p.run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// run executes git with the provider timeout applied on top of ctx.
func (p *Provider) run(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	p.logger.Debug("git query", "args", args, "elapsed", time.Since(start), "error", err)
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("git %s: %s", args[0], msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout.String(), nil
}

// parsePorcelainLine decodes one "XY path" porcelain v1 line. A '?' in the
// two-character status code means untracked; every other code is treated as
// modified (staged or unstaged, renamed, deleted).
func parsePorcelainLine(line string) (string, vcs.FileState, bool) {
	if len(line) < 4 {
		return "", 0, false
	}
	code, path := line[:2], strings.TrimSpace(line[3:])
	if path == "" {
		return "", 0, false
	}
	// Renames report "old -> new"; the new path is what gets staged.
	if i := strings.Index(path, " -> "); i >= 0 {
		path = path[i+4:]
	}
	path = strings.Trim(path, `"`)

	if strings.Contains(code, "?") {
		return path, vcs.Untracked, true
	}
	return path, vcs.Modified, true
}

// parseDryRunLine decodes one "add 'file'" line from git add --dry-run.
func parseDryRunLine(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "add '")
	if !ok {
		return "", false
	}
	file, ok := strings.CutSuffix(rest, "'")
	if !ok {
		return "", false
	}
	return file, true
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Compile-time interface verification.
var _ vcs.StatusProvider = (*Provider)(nil)
