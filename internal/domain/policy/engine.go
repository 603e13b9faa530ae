package policy

import (
	"context"
	"log/slog"
)

// Verdict is the engine's aggregated outcome for one event.
type Verdict struct {
	Decision Decision
	Reason   string
	// Check names the check that produced the decision (empty for Allow).
	Check string
}

// Engine runs the configured checks over an incoming event and aggregates
// their results into one decision.
//
// Aggregation: Block > Ask > Allow. The first Block found is authoritative
// and returned immediately; scanning for a later Ask cannot change it.
// When no check blocks, the first Ask wins. Per-subcommand scanning order
// is owned by each check, so "first offending subcommand" semantics are
// preserved inside the check itself.
type Engine struct {
	checks []Check
	logger *slog.Logger
}

// NewEngine creates an engine evaluating the given checks in order.
func NewEngine(checks []Check, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{checks: checks, logger: logger}
}

// Evaluate runs all checks against the event and returns the aggregated
// verdict. A check panicking or misbehaving must not crash the host, so the
// engine treats an empty check list as Allow and never returns an error:
// failure handling is pushed into the checks, which degrade to their
// documented conservative decision.
func (e *Engine) Evaluate(ctx context.Context, event ToolEvent) Verdict {
	verdict := Verdict{Decision: Allow}

	for _, c := range e.checks {
		result := c.Evaluate(ctx, event)
		switch result.Decision {
		case Block:
			e.logger.Debug("check blocked event", "check", c.Name(), "tool", event.ToolName)
			return Verdict{Decision: Block, Reason: result.Reason, Check: c.Name()}
		case Ask:
			if verdict.Decision < Ask {
				verdict = Verdict{Decision: Ask, Reason: result.Reason, Check: c.Name()}
			}
		}
	}

	return verdict
}
