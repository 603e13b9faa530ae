package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// GlobalConfigPath returns the user-level config file path
// (~/.hook-warden/hook-warden.yaml). Empty when the home directory cannot
// be determined.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".hook-warden", "hook-warden.yaml")
}

// ProjectConfigPath returns the project-level config file path
// (.hook-warden.yaml in dir, or in the current directory when dir is empty).
func ProjectConfigPath(dir string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, ".hook-warden.yaml")
}

// setViperDefaults seeds the built-in defaults, so an absent key in both
// config layers falls through to them during unmarshal.
func setViperDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("enabled_hooks.rm_block", d.Hooks.RMBlock)
	v.SetDefault("enabled_hooks.git_add_block", d.Hooks.GitAddBlock)
	v.SetDefault("enabled_hooks.git_checkout_block", d.Hooks.GitCheckoutBlock)
	v.SetDefault("enabled_hooks.git_commit_ask", d.Hooks.GitCommitAsk)
	v.SetDefault("enabled_hooks.git_push_pull_ask", d.Hooks.GitPushPullAsk)
	v.SetDefault("enabled_hooks.env_protection", d.Hooks.EnvProtection)
	v.SetDefault("enabled_hooks.file_length_limit", d.Hooks.FileLengthLimit)

	v.SetDefault("file_length_limit.max_lines", d.FileLengthLimit.MaxLines)

	v.SetDefault("rm_block.trash_dir", d.RMBlock.TrashDir)
	v.SetDefault("rm_block.require_log", d.RMBlock.RequireLog)
	v.SetDefault("rm_block.log_file", d.RMBlock.LogFile)

	v.SetDefault("git_add_block.allow_wildcards", d.GitAddBlock.AllowWildcards)
	v.SetDefault("git_add_block.allow_dot_add", d.GitAddBlock.AllowDotAdd)
	v.SetDefault("git_add_block.allow_all_flag", d.GitAddBlock.AllowAllFlag)

	v.SetDefault("git_checkout.force_protection", d.GitCheckout.ForceProtection)
	v.SetDefault("git_checkout.dot_protection", d.GitCheckout.DotProtection)

	v.SetDefault("audit.enabled", d.Audit.Enabled)
	v.SetDefault("audit.retention_days", d.Audit.RetentionDays)

	v.SetDefault("server.http_addr", d.Server.HTTPAddr)
	v.SetDefault("server.log_level", d.Server.LogLevel)

	v.SetDefault("git.query_timeout", d.Git.QueryTimeout)
}

// Load merges defaults, the global file, and the project file, in that
// order. A missing file is fine; a malformed file is skipped with a warning
// and the merge continues with the layers that parsed. A config that fails
// validation falls back to the built-in defaults. Load never fails.
func Load(globalPath, projectPath string, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}

	v := viper.New()
	setViperDefaults(v)

	// Environment override support: HOOK_WARDEN_GIT_ADD_BLOCK_ALLOW_WILDCARDS etc.
	v.SetEnvPrefix("HOOK_WARDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if globalPath != "" {
		if _, err := os.Stat(globalPath); err == nil {
			v.SetConfigFile(globalPath)
			if err := v.ReadInConfig(); err != nil {
				logger.Warn("skipping malformed global config", "path", globalPath, "error", err)
			}
		}
	}
	if projectPath != "" {
		if _, err := os.Stat(projectPath); err == nil {
			v.SetConfigFile(projectPath)
			if err := v.MergeInConfig(); err != nil {
				logger.Warn("skipping malformed project config", "path", projectPath, "error", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logger.Warn("config unmarshal failed, using defaults", "error", err)
		return Default()
	}

	if err := cfg.Validate(); err != nil {
		logger.Warn("config validation failed, using defaults", "error", err)
		return Default()
	}

	return &cfg
}

// QueryTimeout returns the parsed git query timeout, defaulting to 5s when
// unset or malformed.
func (c *Config) QueryTimeout() time.Duration {
	d, err := time.ParseDuration(c.Git.QueryTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// Provider supplies the effective configuration to the engine and checks.
// Production uses FileProvider; tests use StaticProvider.
type Provider interface {
	// Config returns the effective configuration. Never nil.
	Config() *Config
	// Invalidate drops any cached configuration so the next Config call
	// re-reads the files. Call after a config file is edited.
	Invalidate()
}

// FileProvider resolves configuration from the global and project files,
// caching the merged result for the lifetime of the process. The cache is
// mutex-guarded so a resident engine can serve concurrent evaluations.
type FileProvider struct {
	GlobalPath  string
	ProjectPath string

	mu     sync.Mutex
	cached *Config
	logger *slog.Logger
}

// NewFileProvider creates a provider over the standard config locations,
// with the project file resolved against dir (or the current directory).
func NewFileProvider(dir string, logger *slog.Logger) *FileProvider {
	return &FileProvider{
		GlobalPath:  GlobalConfigPath(),
		ProjectPath: ProjectConfigPath(dir),
		logger:      logger,
	}
}

// Config returns the cached configuration, loading it on first access.
func (p *FileProvider) Config() *Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached == nil {
		p.cached = Load(p.GlobalPath, p.ProjectPath, p.logger)
	}
	return p.cached
}

// Invalidate drops the cached configuration.
func (p *FileProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = nil
}

// StaticProvider serves a fixed configuration. Intended for tests.
type StaticProvider struct {
	C *Config
}

// Config returns the fixed configuration, or the defaults when nil.
func (p *StaticProvider) Config() *Config {
	if p.C == nil {
		return Default()
	}
	return p.C
}

// Invalidate is a no-op for a static configuration.
func (p *StaticProvider) Invalidate() {}
