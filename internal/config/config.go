// Package config provides the effective configuration for HookWarden.
//
// Configuration is merged from three layers: built-in defaults, an optional
// global file (~/.hook-warden/hook-warden.yaml), and an optional project
// file (./.hook-warden.yaml). Later layers override only the keys they
// explicitly set. A malformed or unreadable layer is skipped with a warning;
// it never aborts evaluation.
package config

import "path/filepath"

// Config is the immutable snapshot of recognized options after merge.
// One snapshot is used for the lifetime of an evaluation.
type Config struct {
	// Hooks enables or disables individual checks.
	Hooks HooksConfig `yaml:"enabled_hooks" mapstructure:"enabled_hooks"`

	// FileLengthLimit configures the oversized-file check.
	FileLengthLimit FileLengthLimitConfig `yaml:"file_length_limit" mapstructure:"file_length_limit"`

	// RMBlock configures the destructive-deletion check.
	RMBlock RMBlockConfig `yaml:"rm_block" mapstructure:"rm_block"`

	// GitAddBlock configures the staging-safety check.
	GitAddBlock GitAddBlockConfig `yaml:"git_add_block" mapstructure:"git_add_block"`

	// GitCheckout configures the checkout-safety check.
	GitCheckout GitCheckoutConfig `yaml:"git_checkout" mapstructure:"git_checkout"`

	// EnvProtection configures the secret-file check.
	EnvProtection EnvProtectionConfig `yaml:"env_protection" mapstructure:"env_protection"`

	// CustomRules are user-defined CEL rules evaluated after the built-in
	// checks. Rules are evaluated in order; first match wins.
	CustomRules []CustomRuleConfig `yaml:"custom_rules" mapstructure:"custom_rules" validate:"omitempty,dive"`

	// Audit configures the best-effort decision log.
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// Server configures the resident evaluator (hook-warden serve).
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Git configures repository status queries.
	Git GitConfig `yaml:"git" mapstructure:"git"`
}

// HooksConfig holds the per-check enable flags. All checks are enabled by
// default; the key names match the original safety-hooks plugin so existing
// config files keep working.
type HooksConfig struct {
	RMBlock          bool `yaml:"rm_block" mapstructure:"rm_block"`
	GitAddBlock      bool `yaml:"git_add_block" mapstructure:"git_add_block"`
	GitCheckoutBlock bool `yaml:"git_checkout_block" mapstructure:"git_checkout_block"`
	GitCommitAsk     bool `yaml:"git_commit_ask" mapstructure:"git_commit_ask"`
	GitPushPullAsk   bool `yaml:"git_push_pull_ask" mapstructure:"git_push_pull_ask"`
	EnvProtection    bool `yaml:"env_protection" mapstructure:"env_protection"`
	FileLengthLimit  bool `yaml:"file_length_limit" mapstructure:"file_length_limit"`
}

// FileLengthLimitConfig configures the oversized-file check.
type FileLengthLimitConfig struct {
	// MaxLines is the inclusive upper bound on a resulting file's line
	// count before the check asks for confirmation.
	MaxLines int `yaml:"max_lines" mapstructure:"max_lines" validate:"min=1"`

	// Extensions restricts the check to the given file extensions.
	// Empty, or a list containing "auto", selects the built-in
	// source-code extension set.
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
}

// RMBlockConfig configures the destructive-deletion check.
type RMBlockConfig struct {
	// TrashDir is the repository-local holding area suggested instead of
	// permanent deletion.
	TrashDir string `yaml:"trash_dir" mapstructure:"trash_dir" validate:"required"`

	// RequireLog asks the agent to record each trashed file in LogFile.
	RequireLog bool `yaml:"require_log" mapstructure:"require_log"`

	// LogFile is the markdown file that records trashed files.
	LogFile string `yaml:"log_file" mapstructure:"log_file" validate:"required"`
}

// GitAddBlockConfig configures the staging-safety check.
type GitAddBlockConfig struct {
	AllowWildcards bool `yaml:"allow_wildcards" mapstructure:"allow_wildcards"`
	AllowDotAdd    bool `yaml:"allow_dot_add" mapstructure:"allow_dot_add"`
	AllowAllFlag   bool `yaml:"allow_all_flag" mapstructure:"allow_all_flag"`
}

// GitCheckoutConfig configures the checkout-safety check.
type GitCheckoutConfig struct {
	ForceProtection bool `yaml:"force_protection" mapstructure:"force_protection"`
	DotProtection   bool `yaml:"dot_protection" mapstructure:"dot_protection"`
}

// EnvProtectionConfig configures the secret-file check.
type EnvProtectionConfig struct {
	// IgnorePatterns are regexes for .env-like paths that are exempt from
	// blocking (e.g. `\.env\.example$`). An invalid pattern is skipped; it
	// does not disable the rest of the list.
	IgnorePatterns []string `yaml:"ignore_patterns" mapstructure:"ignore_patterns"`
}

// CustomRuleConfig is one user-defined policy rule. The condition is a CEL
// expression over the variables tool, command, file_path, and cwd.
type CustomRuleConfig struct {
	Name      string `yaml:"name" mapstructure:"name" validate:"required"`
	Condition string `yaml:"condition" mapstructure:"condition" validate:"required"`
	Action    string `yaml:"action" mapstructure:"action" validate:"required,oneof=allow ask block"`
	Reason    string `yaml:"reason" mapstructure:"reason"`
}

// AuditConfig configures the decision log.
type AuditConfig struct {
	// Enabled turns the decision log on. Off by default.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Dir is the directory for JSON Lines decision files. Defaults to
	// ~/.hook-warden/audit.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// RetentionDays is how long decision files are kept.
	RetentionDays int `yaml:"retention_days" mapstructure:"retention_days" validate:"omitempty,min=1"`

	// AllDecisions also records allow decisions, not just ask/block.
	AllDecisions bool `yaml:"all_decisions" mapstructure:"all_decisions"`
}

// ServerConfig configures the resident evaluator.
type ServerConfig struct {
	// HTTPAddr is the listen address for hook-warden serve.
	// Defaults to localhost only.
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level: debug, info, warn, error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// GitConfig configures repository status queries.
type GitConfig struct {
	// QueryTimeout bounds each git subprocess call (e.g. "5s"). A timed-out
	// query is treated as a verification failure, never a silent allow.
	QueryTimeout string `yaml:"query_timeout" mapstructure:"query_timeout" validate:"omitempty"`
}

// Default returns the fully defaulted configuration, equivalent to merging
// with no config files present.
func Default() *Config {
	return &Config{
		Hooks: HooksConfig{
			RMBlock:          true,
			GitAddBlock:      true,
			GitCheckoutBlock: true,
			GitCommitAsk:     true,
			GitPushPullAsk:   true,
			EnvProtection:    true,
			FileLengthLimit:  true,
		},
		FileLengthLimit: FileLengthLimitConfig{MaxLines: 10000},
		RMBlock: RMBlockConfig{
			TrashDir:   "TRASH",
			RequireLog: true,
			LogFile:    "TRASH-FILES.md",
		},
		GitCheckout: GitCheckoutConfig{
			ForceProtection: true,
			DotProtection:   true,
		},
		Audit: AuditConfig{
			RetentionDays: 7,
		},
		Server: ServerConfig{
			HTTPAddr: "127.0.0.1:8129",
			LogLevel: "info",
		},
		Git: GitConfig{QueryTimeout: "5s"},
	}
}

// SourceExtensions returns the extension set checked by the file-length
// limit, lowercased with leading dots. The "auto" sentinel (or an empty
// list) selects the built-in source-code set.
func (c *Config) SourceExtensions() map[string]struct{} {
	if len(c.FileLengthLimit.Extensions) == 0 {
		return defaultSourceExtensions
	}
	for _, ext := range c.FileLengthLimit.Extensions {
		if ext == "auto" {
			return defaultSourceExtensions
		}
	}
	set := make(map[string]struct{}, len(c.FileLengthLimit.Extensions))
	for _, ext := range c.FileLengthLimit.Extensions {
		set[normalizeExt(ext)] = struct{}{}
	}
	return set
}

// IsSourceFile reports whether path has an extension in the configured set.
func (c *Config) IsSourceFile(path string) bool {
	if path == "" {
		return false
	}
	ext := normalizeExt(filepath.Ext(path))
	if ext == "" {
		return false
	}
	_, ok := c.SourceExtensions()[ext]
	return ok
}
