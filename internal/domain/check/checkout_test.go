package check

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hookwarden/hookwarden/internal/config"
	"github.com/hookwarden/hookwarden/internal/domain/policy"
)

func TestCheckout_BlocksForce(t *testing.T) {
	c := NewCheckout(provider(nil), &fakeRepo{}, testLogger())

	for _, cmd := range []string{"git checkout -f main", "git checkout --force main"} {
		result := c.Evaluate(context.Background(), bashEvent(cmd))
		if result.Decision != policy.Block {
			t.Errorf("Evaluate(%q) = %v, want Block", cmd, result.Decision)
			continue
		}
		if !strings.Contains(result.Reason, "git stash") {
			t.Errorf("Evaluate(%q) reason should suggest stashing:\n%s", cmd, result.Reason)
		}
	}
}

func TestCheckout_BlocksDotForms(t *testing.T) {
	c := NewCheckout(provider(nil), &fakeRepo{}, testLogger())

	for _, cmd := range []string{
		"git checkout .",
		"git checkout main -- .",
		"git checkout main -- path/file.go",
	} {
		if result := c.Evaluate(context.Background(), bashEvent(cmd)); result.Decision != policy.Block {
			t.Errorf("Evaluate(%q) = %v, want Block", cmd, result.Decision)
		}
	}
}

func TestCheckout_BranchCreationAllowed(t *testing.T) {
	// -b never touches existing work even with a dirty tree.
	repo := &fakeRepo{changes: []string{"main.go"}}
	c := NewCheckout(provider(nil), repo, testLogger())

	for _, cmd := range []string{"git checkout -b feature", "git checkout --help", "git checkout -h"} {
		if result := c.Evaluate(context.Background(), bashEvent(cmd)); result.Decision != policy.Allow {
			t.Errorf("Evaluate(%q) = %v, want Allow", cmd, result.Decision)
		}
	}
}

func TestCheckout_CleanTreeAllowsSwitch(t *testing.T) {
	c := NewCheckout(provider(nil), &fakeRepo{}, testLogger())
	if result := c.Evaluate(context.Background(), bashEvent("git checkout main")); result.Decision != policy.Allow {
		t.Errorf("clean tree switch = %v, want Allow (reason %q)", result.Decision, result.Reason)
	}
}

func TestCheckout_DirtyTreeAsks(t *testing.T) {
	repo := &fakeRepo{changes: []string{"main.go", "util.go"}}
	c := NewCheckout(provider(nil), repo, testLogger())

	result := c.Evaluate(context.Background(), bashEvent("git checkout main"))
	if result.Decision != policy.Ask {
		t.Fatalf("dirty tree switch = %v, want Ask", result.Decision)
	}
	for _, want := range []string{"2 uncommitted change(s)", "main.go", "git stash"} {
		if !strings.Contains(result.Reason, want) {
			t.Errorf("reason missing %q:\n%s", want, result.Reason)
		}
	}
}

func TestCheckout_DirtyTreeListTruncated(t *testing.T) {
	changes := make([]string, 14)
	for i := range changes {
		changes[i] = "file.go"
	}
	repo := &fakeRepo{changes: changes}
	c := NewCheckout(provider(nil), repo, testLogger())

	result := c.Evaluate(context.Background(), bashEvent("git checkout main"))
	if !strings.Contains(result.Reason, "... and 4 more") {
		t.Errorf("reason should truncate the list:\n%s", result.Reason)
	}
}

func TestCheckout_StatusErrorAsks(t *testing.T) {
	repo := &fakeRepo{changesErr: errors.New("not a git repository")}
	c := NewCheckout(provider(nil), repo, testLogger())

	result := c.Evaluate(context.Background(), bashEvent("git checkout main"))
	if result.Decision != policy.Ask {
		t.Fatalf("status failure = %v, want Ask", result.Decision)
	}
	if !strings.Contains(result.Reason, "git status") {
		t.Errorf("reason should tell the user to check manually:\n%s", result.Reason)
	}
}

func TestCheckout_Toggles(t *testing.T) {
	t.Run("hook disabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.Hooks.GitCheckoutBlock = false
		c := NewCheckout(provider(cfg), &fakeRepo{}, testLogger())
		if result := c.Evaluate(context.Background(), bashEvent("git checkout -f main")); result.Decision != policy.Allow {
			t.Errorf("disabled hook = %v, want Allow", result.Decision)
		}
	})
	t.Run("force protection off", func(t *testing.T) {
		cfg := config.Default()
		cfg.GitCheckout.ForceProtection = false
		c := NewCheckout(provider(cfg), &fakeRepo{}, testLogger())
		if result := c.Evaluate(context.Background(), bashEvent("git checkout -f main")); result.Decision != policy.Allow {
			t.Errorf("force_protection off = %v, want Allow (reason %q)", result.Decision, result.Reason)
		}
	})
	t.Run("dot protection off", func(t *testing.T) {
		cfg := config.Default()
		cfg.GitCheckout.DotProtection = false
		c := NewCheckout(provider(cfg), &fakeRepo{}, testLogger())
		if result := c.Evaluate(context.Background(), bashEvent("git checkout .")); result.Decision != policy.Allow {
			t.Errorf("dot_protection off = %v, want Allow (reason %q)", result.Decision, result.Reason)
		}
	})
}

func TestCheckout_IgnoresOtherCommands(t *testing.T) {
	c := NewCheckout(provider(nil), &fakeRepo{changes: []string{"x"}}, testLogger())
	for _, cmd := range []string{"git status", "ls", "git switch main"} {
		if result := c.Evaluate(context.Background(), bashEvent(cmd)); result.Decision != policy.Allow {
			t.Errorf("Evaluate(%q) = %v, want Allow", cmd, result.Decision)
		}
	}
}
