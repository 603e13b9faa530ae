package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hookwarden/hookwarden/internal/adapter/inbound/hookio"
	"github.com/hookwarden/hookwarden/internal/adapter/outbound/audit"
	"github.com/hookwarden/hookwarden/internal/adapter/outbound/gitcli"
	"github.com/hookwarden/hookwarden/internal/config"
	domainaudit "github.com/hookwarden/hookwarden/internal/domain/audit"
	"github.com/hookwarden/hookwarden/internal/domain/policy"
	"github.com/hookwarden/hookwarden/internal/service"
)

var legacyOutput bool

var hookCmd = &cobra.Command{
	Use:           "hook",
	Short:         "Internal: PreToolUse hook entry point",
	Hidden:        true,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runHook,
}

func init() {
	hookCmd.Flags().BoolVar(&legacyOutput, "legacy-output", false, "emit the top-level decision format instead of hookSpecificOutput")
	rootCmd.AddCommand(hookCmd)
}

// runHook evaluates one event from stdin. It always returns nil: a crashed
// or confused hook must read as allow, never break the agent's tool loop.
func runHook(cmd *cobra.Command, args []string) error {
	event, ok := hookio.DecodeEvent(os.Stdin)
	if !ok {
		return nil
	}

	// Project config resolves against the event's working directory, so a
	// per-repo .hook-warden.yaml applies to commands run in that repo.
	logger := newLogger(os.Getenv("HOOK_WARDEN_LOG_LEVEL"))
	provider := configProvider(event.CWD, logger)
	conf := provider.Config()

	repo := gitcli.NewProvider(conf.QueryTimeout(), logger)
	engine := policy.NewEngine(service.BuildChecks(provider, repo, logger), logger)
	trail := openTrail(conf, logger)
	defer func() { _ = trail.Close() }()

	svc := service.NewEvaluationService(engine, provider, trail, logger)
	resp := svc.Evaluate(cmd.Context(), event)

	decision := parseDecision(resp.Decision)
	if legacyOutput {
		return ignoreWriteError(hookio.WriteLegacyDecision(os.Stdout, decision, resp.Reason), logger)
	}
	return ignoreWriteError(hookio.WriteDecision(os.Stdout, decision, resp.Reason), logger)
}

// openTrail builds the decision store, falling back to a no-op one when the
// trail is disabled or cannot be opened.
func openTrail(conf *config.Config, logger *slog.Logger) domainaudit.Store {
	if !conf.Audit.Enabled {
		return domainaudit.NopStore{}
	}

	dir := conf.Audit.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Warn("decision trail disabled: no home directory", "error", err)
			return domainaudit.NopStore{}
		}
		dir = filepath.Join(home, ".hook-warden", "audit")
	}

	store, err := audit.NewFileStore(audit.FileStoreConfig{
		Dir:           dir,
		RetentionDays: conf.Audit.RetentionDays,
	}, logger)
	if err != nil {
		logger.Warn("decision trail disabled", "error", err)
		return domainaudit.NopStore{}
	}
	return store
}

func parseDecision(s string) policy.Decision {
	switch s {
	case "block":
		return policy.Block
	case "ask":
		return policy.Ask
	default:
		return policy.Allow
	}
}

// ignoreWriteError logs a failed stdout write but keeps the exit code zero.
func ignoreWriteError(err error, logger *slog.Logger) error {
	if err != nil {
		logger.Warn("writing decision failed", "error", err)
	}
	return nil
}
