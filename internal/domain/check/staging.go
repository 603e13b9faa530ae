package check

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hookwarden/hookwarden/internal/config"
	"github.com/hookwarden/hookwarden/internal/domain/policy"
	"github.com/hookwarden/hookwarden/internal/domain/shell"
	"github.com/hookwarden/hookwarden/internal/domain/vcs"
)

// maxListedFiles caps how many file names a reason spells out before
// summarizing the remainder as a count.
const maxListedFiles = 5

var (
	// allFlagPatterns match the "stage everything" flag family.
	allFlagPatterns = []string{
		`-[a-zA-Z]*[Aa][a-zA-Z]*(\s|$)`, // flags containing 'A' or 'a'
		`--all(\s|$)`,
	}
	// dotAddPatterns match current- and parent-directory staging.
	dotAddPatterns = []string{
		`\.(\s|$)`,
		`\.\./[.\w/]*(\s|$)`,
	}

	directoryAddPattern = regexp.MustCompile(`(?i)^git\s+add\s+([^-\s]\S*)/$`)
	commitPattern       = regexp.MustCompile(`(?i)^git\s+commit\s+`)
	aFlagPattern        = regexp.MustCompile(`-[a-zA-Z]*a[a-zA-Z]*`)
	mFlagPattern        = regexp.MustCompile(`-[a-zA-Z]*m[a-zA-Z]*`)
)

const wildcardBlockReason = `BLOCKED: Wildcard patterns are not allowed in git add!
DO NOT use wildcards like 'git add *.py' or 'git add *'
Instead, use:
- 'git add <file>' to stage specific files
- 'git ls-files -m "*.py" | xargs git add' if you really need pattern matching

This restriction prevents accidentally staging unwanted files.`

const dangerousAddBlockReason = `BLOCKED: Dangerous git add pattern detected!
DO NOT use:
- 'git add -A', 'git add -a', 'git add --all' (adds ALL files)
- 'git add .' (adds entire current directory)
- 'git add ../' or similar parent directory patterns
- 'git add *' (wildcard patterns)

Instead, use:
- 'git add <file>' to stage specific files
- 'git add <dir>' to stage a specific directory (with confirmation)
- 'git add -u' to stage all modified/deleted files (but not untracked)

This restriction prevents accidentally staging unwanted files.`

const commitWithoutMessageReason = `Avoid 'git commit -a' without a message flag. ` +
	`Use 'git commit -a -m "message"' instead so no interactive editor opens.`

// Staging blocks dangerous git add patterns and asks before modified
// (as opposed to untracked) files are staged.
type Staging struct {
	cfg    config.Provider
	repo   vcs.StatusProvider
	logger *slog.Logger
}

// NewStaging creates the staging-safety check.
func NewStaging(cfg config.Provider, repo vcs.StatusProvider, logger *slog.Logger) *Staging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Staging{cfg: cfg, repo: repo, logger: logger}
}

// Name implements policy.Check.
func (c *Staging) Name() string { return "git_add_block" }

// Evaluate scans every subcommand even after finding an Ask, because a
// later subcommand might escalate to Block; the first Ask is returned only
// when no subcommand blocks.
func (c *Staging) Evaluate(ctx context.Context, event policy.ToolEvent) policy.CheckResult {
	if !event.IsBash() {
		return policy.Allowed
	}
	conf := c.cfg.Config()
	if !conf.Hooks.GitAddBlock {
		return policy.Allowed
	}

	var firstAsk *policy.CheckResult
	for _, sub := range shell.Split(event.Command) {
		result := c.evaluateSubcommand(ctx, sub, event.CWD, conf)
		switch result.Decision {
		case policy.Block:
			return result
		case policy.Ask:
			if firstAsk == nil {
				r := result
				firstAsk = &r
			}
		}
	}
	if firstAsk != nil {
		return *firstAsk
	}
	return policy.Allowed
}

// evaluateSubcommand applies the staging rules in fixed priority order;
// the first matching rule decides for this subcommand.
func (c *Staging) evaluateSubcommand(ctx context.Context, sub, cwd string, conf *config.Config) policy.CheckResult {
	cmd := shell.Normalize(sub)

	// Dry runs are always allowed: the check itself relies on them to
	// probe staged files and must not recurse into blocking.
	if strings.Contains(cmd, "--dry-run") || hasIsolatedFlag(cmd, "-n") {
		return policy.Allowed
	}

	if !conf.GitAddBlock.AllowWildcards && strings.HasPrefix(cmd, "git add") && strings.Contains(cmd, "*") {
		return policy.BlockFor(wildcardBlockReason)
	}

	if result := checkDangerousAddPatterns(cmd, conf); result.Decision != policy.Allow {
		return result
	}

	if m := directoryAddPattern.FindStringSubmatch(cmd); m != nil {
		return c.checkDirectoryAdd(ctx, m[1], cwd)
	}

	if conf.Hooks.GitCommitAsk && commitPattern.MatchString(cmd) {
		if aFlagPattern.MatchString(cmd) && !mFlagPattern.MatchString(cmd) {
			return policy.BlockFor(commitWithoutMessageReason)
		}
	}

	if strings.HasPrefix(cmd, "git add") {
		return c.checkFileAdd(ctx, cmd, cwd)
	}

	return policy.Allowed
}

// checkDangerousAddPatterns applies the configured hard-block regex classes
// anchored to "git add".
func checkDangerousAddPatterns(cmd string, conf *config.Config) policy.CheckResult {
	var classes []string
	if !conf.GitAddBlock.AllowAllFlag {
		classes = append(classes, allFlagPatterns...)
	}
	if !conf.GitAddBlock.AllowDotAdd {
		classes = append(classes, dotAddPatterns...)
	}
	if len(classes) == 0 {
		return policy.Allowed
	}

	pattern := `(?i)^git\s+add\s+(?:.*\s+)?(` + strings.Join(classes, "|") + `)`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return policy.Allowed
	}
	if re.MatchString(cmd) {
		return policy.BlockFor(dangerousAddBlockReason)
	}
	return policy.Allowed
}

// checkDirectoryAdd handles "git add <dir>/": a dry run determines which
// files would be staged, then one status query classifies them. Only
// untracked files (or nothing at all) stage silently; modified files ask.
// A failed query degrades to Ask, never to a silent allow.
func (c *Staging) checkDirectoryAdd(ctx context.Context, dir, cwd string) policy.CheckResult {
	files, err := c.repo.DryRunAdd(ctx, cwd, dir+"/")
	if err != nil {
		c.logger.Debug("dry-run add failed", "dir", dir, "error", err)
		return policy.AskFor(fmt.Sprintf("Staging directory %s/ (couldn't verify file status)", dir))
	}
	if len(files) == 0 {
		return policy.Allowed
	}

	statuses, err := c.repo.Status(ctx, cwd, files)
	if err != nil {
		c.logger.Debug("status query failed", "dir", dir, "error", err)
		return policy.AskFor(fmt.Sprintf("Staging directory %s/ (couldn't verify file status)", dir))
	}
	_, modified := vcs.Classify(statuses)
	if len(modified) == 0 {
		return policy.Allowed
	}
	return policy.AskFor(fmt.Sprintf("Staging directory %s/ with modified files: %s", dir, cappedFileList(modified)))
}

// checkFileAdd handles a plain "git add <file...>": any named file whose
// status is modified (not untracked) requires confirmation.
func (c *Staging) checkFileAdd(ctx context.Context, cmd, cwd string) policy.CheckResult {
	files := addedPaths(cmd)
	if len(files) == 0 {
		return policy.Allowed
	}

	statuses, err := c.repo.Status(ctx, cwd, files)
	if err != nil {
		c.logger.Debug("status query failed", "files", files, "error", err)
		return policy.AskFor("Staging files (couldn't verify file status)")
	}
	_, modified := vcs.Classify(statuses)
	if len(modified) == 0 {
		return policy.Allowed
	}
	return policy.AskFor("Staging modified files: " + cappedFileList(modified))
}

// addedPaths extracts the non-flag arguments of a normalized git add command.
func addedPaths(cmd string) []string {
	parts := strings.Fields(cmd)
	if len(parts) < 3 || parts[0] != "git" || parts[1] != "add" {
		return nil
	}
	var files []string
	for _, p := range parts[2:] {
		if !strings.HasPrefix(p, "-") {
			files = append(files, p)
		}
	}
	return files
}

// cappedFileList renders up to maxListedFiles names, summarizing the rest.
func cappedFileList(files []string) string {
	if len(files) <= maxListedFiles {
		return strings.Join(files, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(files[:maxListedFiles], ", "), len(files)-maxListedFiles)
}

// hasIsolatedFlag reports whether flag appears as its own token.
func hasIsolatedFlag(cmd, flag string) bool {
	for _, tok := range strings.Fields(cmd) {
		if tok == flag {
			return true
		}
	}
	return false
}
