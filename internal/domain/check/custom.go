package check

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/hookwarden/hookwarden/internal/config"
	"github.com/hookwarden/hookwarden/internal/domain/policy"
)

// celCostBudget bounds CEL runtime cost so a pathological user rule cannot
// stall an evaluation.
const celCostBudget = 100_000

// compiledRule is one user rule ready for evaluation.
type compiledRule struct {
	name    string
	program cel.Program
	action  policy.Decision
	reason  string
}

// Custom evaluates the user-defined CEL rules from the configuration.
// Rules run in order; the first whose condition is true decides. An
// explicit allow rule short-circuits the remaining custom rules.
//
// Compiled programs are cached per config snapshot, so a resident engine
// only recompiles after the provider is invalidated.
type Custom struct {
	cfg    config.Provider
	logger *slog.Logger

	mu          sync.Mutex
	compiledFor *config.Config
	rules       []compiledRule
}

// NewCustom creates the custom-rules check.
func NewCustom(cfg config.Provider, logger *slog.Logger) *Custom {
	if logger == nil {
		logger = slog.Default()
	}
	return &Custom{cfg: cfg, logger: logger}
}

// Name implements policy.Check.
func (c *Custom) Name() string { return "custom_rules" }

// Evaluate implements policy.Check.
func (c *Custom) Evaluate(ctx context.Context, event policy.ToolEvent) policy.CheckResult {
	conf := c.cfg.Config()
	if len(conf.CustomRules) == 0 {
		return policy.Allowed
	}

	activation := map[string]any{
		"tool":      event.ToolName,
		"command":   event.Command,
		"file_path": event.FilePath,
		"cwd":       event.CWD,
	}

	for _, rule := range c.rulesFor(conf) {
		out, _, err := rule.program.ContextEval(ctx, activation)
		if err != nil {
			c.logger.Warn("custom rule evaluation failed", "rule", rule.name, "error", err)
			continue
		}
		if out != types.True {
			continue
		}
		switch rule.action {
		case policy.Allow:
			return policy.Allowed
		case policy.Ask:
			return policy.AskFor(ruleReason(rule))
		case policy.Block:
			return policy.BlockFor(ruleReason(rule))
		}
	}
	return policy.Allowed
}

func ruleReason(rule compiledRule) string {
	if rule.reason != "" {
		return rule.reason
	}
	return fmt.Sprintf("Matched custom rule %q.", rule.name)
}

// rulesFor returns the compiled rules for the given config snapshot,
// compiling once per snapshot. A rule that fails to compile is skipped
// with a warning; one bad rule must not disable the rest.
func (c *Custom) rulesFor(conf *config.Config) []compiledRule {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.compiledFor == conf {
		return c.rules
	}

	env, err := newRuleEnvironment()
	if err != nil {
		c.logger.Warn("custom rule environment unavailable", "error", err)
		c.compiledFor = conf
		c.rules = nil
		return nil
	}

	rules := make([]compiledRule, 0, len(conf.CustomRules))
	for _, rc := range conf.CustomRules {
		prg, err := compileRule(env, rc.Condition)
		if err != nil {
			c.logger.Warn("skipping custom rule", "rule", rc.Name, "error", err)
			continue
		}
		rules = append(rules, compiledRule{
			name:    rc.Name,
			program: prg,
			action:  parseAction(rc.Action),
			reason:  rc.Reason,
		})
	}
	c.compiledFor = conf
	c.rules = rules
	return rules
}

// newRuleEnvironment builds the CEL environment with the event variables
// exposed to user rules.
func newRuleEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("tool", cel.StringType),
		cel.Variable("command", cel.StringType),
		cel.Variable("file_path", cel.StringType),
		cel.Variable("cwd", cel.StringType),
	)
}

// compileRule parses, checks, and plans one condition.
func compileRule(env *cel.Env, condition string) (cel.Program, error) {
	ast, issues := env.Compile(condition)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile condition: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("condition must evaluate to bool, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(celCostBudget),
	)
	if err != nil {
		return nil, fmt.Errorf("plan condition: %w", err)
	}
	return prg, nil
}

// parseAction maps a validated config action to a decision.
func parseAction(action string) policy.Decision {
	switch action {
	case "block":
		return policy.Block
	case "ask":
		return policy.Ask
	default:
		return policy.Allow
	}
}
