package service

import (
	"log/slog"

	"github.com/hookwarden/hookwarden/internal/config"
	"github.com/hookwarden/hookwarden/internal/domain/check"
	"github.com/hookwarden/hookwarden/internal/domain/policy"
	"github.com/hookwarden/hookwarden/internal/domain/vcs"
)

// BuildChecks assembles the standard check set in evaluation order. Custom
// rules run last so built-in protections cannot be shadowed by a user rule
// (an explicit allow rule only short-circuits other custom rules).
func BuildChecks(cfg config.Provider, repo vcs.StatusProvider, logger *slog.Logger) []policy.Check {
	return []policy.Check{
		check.NewDeletion(cfg, logger),
		check.NewStaging(cfg, repo, logger),
		check.NewCheckout(cfg, repo, logger),
		check.NewRemoteSync(cfg),
		check.NewSecrets(cfg, logger),
		check.NewFileSize(cfg, logger),
		check.NewCustom(cfg, logger),
	}
}
