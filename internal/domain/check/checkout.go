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
)

// maxListedChanges caps how many changed paths the dirty-tree warning shows.
const maxListedChanges = 10

// checkoutPattern is one static dangerous-checkout rule: a regex paired
// with an explanation and the config toggle that controls it.
type checkoutPattern struct {
	re      *regexp.Regexp
	message string
	// forceRule selects the force_protection toggle; otherwise the rule is
	// governed by dot_protection.
	forceRule bool
}

var checkoutPatterns = []checkoutPattern{
	{
		re:        regexp.MustCompile(`\bgit\s+checkout\s+(-f|--force)\b`),
		message:   "'git checkout -f' FORCES checkout and DISCARDS all uncommitted changes!",
		forceRule: true,
	},
	{
		re:      regexp.MustCompile(`\bgit\s+checkout\s+\.`),
		message: "'git checkout .' will DISCARD ALL changes in current directory!",
	},
	{
		re:      regexp.MustCompile(`\bgit\s+checkout\s+.*\s+--\s+\.`),
		message: "This will DISCARD ALL changes in current directory!",
	},
	{
		re:      regexp.MustCompile(`\bgit\s+checkout\s+.*\s+--\s+`),
		message: "This will overwrite your local file with version from another branch/commit!",
	},
}

// Checkout guards branch switching: force and path-restore forms are
// blocked outright, and switching with a dirty working tree asks first.
type Checkout struct {
	cfg    config.Provider
	repo   changeLister
	logger *slog.Logger
}

// changeLister is the slice of vcs.StatusProvider this check needs.
type changeLister interface {
	Changes(ctx context.Context, dir string) ([]string, error)
}

// NewCheckout creates the checkout-safety check.
func NewCheckout(cfg config.Provider, repo changeLister, logger *slog.Logger) *Checkout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checkout{cfg: cfg, repo: repo, logger: logger}
}

// Name implements policy.Check.
func (c *Checkout) Name() string { return "git_checkout" }

// Evaluate returns the first non-allow verdict across the subcommands.
func (c *Checkout) Evaluate(ctx context.Context, event policy.ToolEvent) policy.CheckResult {
	if !event.IsBash() {
		return policy.Allowed
	}
	conf := c.cfg.Config()
	if !conf.Hooks.GitCheckoutBlock {
		return policy.Allowed
	}

	for _, sub := range shell.Split(event.Command) {
		if result := c.evaluateSubcommand(ctx, sub, event.CWD, conf); result.Decision != policy.Allow {
			return result
		}
	}
	return policy.Allowed
}

func (c *Checkout) evaluateSubcommand(ctx context.Context, sub, cwd string, conf *config.Config) policy.CheckResult {
	cmd := shell.Normalize(sub)
	if !strings.HasPrefix(cmd, "git checkout") {
		return policy.Allowed
	}

	// Branch creation and help output never touch existing work.
	if strings.Contains(cmd, "-b") || strings.Contains(cmd, "--help") || hasIsolatedFlag(cmd, "-h") {
		return policy.Allowed
	}

	for _, p := range checkoutPatterns {
		if p.forceRule && !conf.GitCheckout.ForceProtection {
			continue
		}
		if !p.forceRule && !conf.GitCheckout.DotProtection {
			continue
		}
		if p.re.MatchString(cmd) {
			return policy.BlockFor(fmt.Sprintf(
				"DANGEROUS COMMAND DETECTED!\n\n%s\n\n"+
					"This command will destroy uncommitted work without warning.\n\n"+
					"Safer alternatives:\n"+
					"- Use 'git stash' to save changes temporarily\n"+
					"- Use 'git diff' to see what would be lost\n"+
					"- Use 'git restore' for clearer syntax",
				p.message))
		}
	}

	// Dynamic rule: a dirty working tree means the checkout could clobber
	// work. Query failure errs on the side of caution.
	changes, err := c.repo.Changes(ctx, cwd)
	if err != nil {
		c.logger.Debug("working tree status failed", "error", err)
		return policy.AskFor(fmt.Sprintf(
			"Could not verify repository status: %v\nPlease manually check 'git status' before proceeding.", err))
	}
	if len(changes) == 0 {
		return policy.Allowed
	}
	return policy.AskFor(dirtyTreeWarning(cmd, changes))
}

// dirtyTreeWarning builds the uncommitted-changes prompt, listing up to
// maxListedChanges paths with a remainder count.
func dirtyTreeWarning(cmd string, changes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "WARNING: You have %d uncommitted change(s) that may be lost!\n\n", len(changes))
	b.WriteString("Modified files:\n")
	for i, change := range changes {
		if i == maxListedChanges {
			fmt.Fprintf(&b, " ... and %d more\n", len(changes)-maxListedChanges)
			break
		}
		fmt.Fprintf(&b, " %s\n", change)
	}
	b.WriteString("\nOptions:\n")
	b.WriteString("1. Stash changes: git stash\n")
	b.WriteString("2. Commit changes: git commit -am 'your message'\n")
	b.WriteString("3. Discard changes: git restore <file>\n")
	b.WriteString("4. Use 'git switch' instead for safer branch switching\n")

	if strings.Contains(cmd, "checkout .") || strings.Contains(cmd, "checkout -- .") {
		b.WriteString("\nDANGER: 'git checkout .' will DISCARD ALL local changes!")
	}
	return b.String()
}
