package check

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/hookwarden/hookwarden/internal/config"
	"github.com/hookwarden/hookwarden/internal/domain/policy"
	"github.com/hookwarden/hookwarden/internal/domain/shell"
)

// envAccessPatterns is the ordered rule table recognizing commands that
// would expose .env contents: direct readers and editors, redirections,
// search tools, and command substitution around a reader. The whole raw
// command is matched unsplit, because exposure can span operator-like
// characters through redirection and substitution.
var envAccessPatterns = []*regexp.Regexp{
	// Direct file reading
	regexp.MustCompile(`(?i)\bcat\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\bless\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\bmore\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\bhead\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\btail\s+.*\.env\b`),
	// Editors, both reading and writing
	regexp.MustCompile(`(?i)\bnano\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\bvi\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\bvim\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\bemacs\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\bcode\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\bsubl\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\batom\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\bgedit\s+.*\.env\b`),
	// Writing or modifying
	regexp.MustCompile(`(?i)>\s*\S*\.env\b`),
	regexp.MustCompile(`(?i)>>\s*\S*\.env\b`),
	regexp.MustCompile(`(?i)\becho\s+.*>\s*\S*\.env\b`),
	regexp.MustCompile(`(?i)\becho\s+.*>>\s*\S*\.env\b`),
	regexp.MustCompile(`(?i)\bprintf\s+.*>\s*\S*\.env\b`),
	regexp.MustCompile(`(?i)\bprintf\s+.*>>\s*\S*\.env\b`),
	regexp.MustCompile(`(?i)\bsed\s+.*-i.*\.env\b`),
	regexp.MustCompile(`(?i)\bawk\s+.*>\s*\S*\.env\b`),
	regexp.MustCompile(`(?i)\btee\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\bcp\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\bmv\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\btouch\s+.*\.env\b`),
	// Searching
	regexp.MustCompile(`(?i)\bgrep\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\brg\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\bag\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\back\s+.*\.env\b`),
	regexp.MustCompile(`(?i)\bfind\s+.*-name\s+["']?\.env`),
	// Indirect exposure via command substitution
	regexp.MustCompile(`(?i)\becho\s+.*\$\(.*cat\s+.*\.env.*\)`),
	regexp.MustCompile(`(?i)\bprintf\s+.*\$\(.*cat\s+.*\.env.*\)`),
	// Bare "env" file variants
	regexp.MustCompile(`(?i)\bcat\s+["']?env["']?\s*$`),
	regexp.MustCompile(`(?i)\bcat\s+["']?env["']?\s*[;&|]`),
	regexp.MustCompile(`(?i)\bless\s+["']?env["']?\s*$`),
	regexp.MustCompile(`(?i)\bless\s+["']?env["']?\s*[;&|]`),
	regexp.MustCompile(`(?i)>\s*["']?env["']?\s*$`),
	regexp.MustCompile(`(?i)>>\s*["']?env["']?\s*$`),
}

// envPathPatterns extract the concrete .env-like path from a matched
// command, quoted or not, so per-path ignore exemptions can apply.
var envPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)([^\s"']+\.env)\b`),
	regexp.MustCompile(`(?i)\.env(?:\.\w+)?`),
}

const secretAccessReason = "Blocked: Direct access to .env files is not allowed for security reasons.\n\n" +
	"• Reading .env files could expose sensitive values\n" +
	"• Writing/editing .env files should be done manually outside the agent session\n\n" +
	"For safe inspection, use the `env-safe` command:\n" +
	" • `env-safe list` - List all environment variable keys\n" +
	" • `env-safe list --status` - Show keys with defined/empty status\n" +
	" • `env-safe check KEY_NAME` - Check if a specific key exists\n" +
	" • `env-safe count` - Count variables in the file\n" +
	" • `env-safe validate` - Check .env file syntax\n" +
	" • `env-safe --help` - See all options\n\n" +
	"To modify .env files, please edit them manually outside of the agent session."

// Secrets blocks commands that would read, write, or search .env files.
type Secrets struct {
	cfg    config.Provider
	logger *slog.Logger
}

// NewSecrets creates the secret-file check.
func NewSecrets(cfg config.Provider, logger *slog.Logger) *Secrets {
	if logger == nil {
		logger = slog.Default()
	}
	return &Secrets{cfg: cfg, logger: logger}
}

// Name implements policy.Check.
func (c *Secrets) Name() string { return "env_protection" }

// Evaluate matches the whole (unsplit) command against the access rule
// table. When a pattern fires, the concrete path is extracted first and
// tested against the configured ignore regexes; only a non-exempt path
// blocks.
func (c *Secrets) Evaluate(_ context.Context, event policy.ToolEvent) policy.CheckResult {
	if !event.IsBash() {
		return policy.Allowed
	}
	conf := c.cfg.Config()
	if !conf.Hooks.EnvProtection {
		return policy.Allowed
	}

	cmd := shell.Normalize(event.Command)
	for _, re := range envAccessPatterns {
		if !re.MatchString(cmd) {
			continue
		}
		if path := extractEnvPath(cmd); path != "" && c.isIgnored(path, conf.EnvProtection.IgnorePatterns) {
			return policy.Allowed
		}
		return policy.BlockFor(secretAccessReason)
	}
	return policy.Allowed
}

// extractEnvPath pulls the .env-like path token out of the command.
func extractEnvPath(cmd string) string {
	for _, re := range envPathPatterns {
		m := re.FindStringSubmatch(cmd)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			return m[1]
		}
		return m[0]
	}
	return ""
}

// isIgnored reports whether the extracted path matches any configured
// ignore pattern. An invalid pattern is skipped; one bad entry must not
// disable the rest of the exemption list.
func (c *Secrets) isIgnored(path string, patterns []string) bool {
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			c.logger.Debug("skipping invalid ignore pattern", "pattern", p, "error", err)
			continue
		}
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
