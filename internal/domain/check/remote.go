package check

import (
	"context"
	"strings"

	"github.com/hookwarden/hookwarden/internal/config"
	"github.com/hookwarden/hookwarden/internal/domain/policy"
	"github.com/hookwarden/hookwarden/internal/domain/shell"
)

// RemoteSync asks for approval before any git push or git pull. There is no
// distinction between destinations; the first matching subcommand wins.
type RemoteSync struct {
	cfg config.Provider
}

// NewRemoteSync creates the remote-sync check.
func NewRemoteSync(cfg config.Provider) *RemoteSync {
	return &RemoteSync{cfg: cfg}
}

// Name implements policy.Check.
func (c *RemoteSync) Name() string { return "git_push_pull_ask" }

// Evaluate implements policy.Check.
func (c *RemoteSync) Evaluate(_ context.Context, event policy.ToolEvent) policy.CheckResult {
	if !event.IsBash() {
		return policy.Allowed
	}
	if !c.cfg.Config().Hooks.GitPushPullAsk {
		return policy.Allowed
	}

	for _, sub := range shell.Split(event.Command) {
		cmd := shell.Normalize(sub)
		if strings.HasPrefix(cmd, "git push") {
			return policy.AskFor("Git push requires your approval.")
		}
		if strings.HasPrefix(cmd, "git pull") {
			return policy.AskFor("Git pull requires your approval.")
		}
	}
	return policy.Allowed
}
