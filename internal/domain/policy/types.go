// Package policy contains the domain types and the engine for safety-policy
// evaluation of agent tool calls.
package policy

import "context"

// Decision is the engine's verdict for a tool-invocation event.
// The ordering matters for aggregation: Block > Ask > Allow.
type Decision int

const (
	// Allow permits the tool call to proceed without interaction.
	Allow Decision = iota
	// Ask defers the tool call to the human for confirmation.
	Ask
	// Block rejects the tool call outright.
	Block
)

// String returns the lowercase decision name used in responses and logs.
func (d Decision) String() string {
	switch d {
	case Ask:
		return "ask"
	case Block:
		return "block"
	default:
		return "allow"
	}
}

// ToolEvent is the unit of work submitted to the engine: one tool invocation
// as reported by the host in a PreToolUse hook.
type ToolEvent struct {
	// ToolName is the host's tool identifier (e.g. "Bash", "Write", "Edit").
	ToolName string
	// Command is the raw shell command for Bash events.
	Command string
	// CWD is the working directory the tool runs in (may be empty).
	CWD string

	// FilePath is the target path for Write/Edit events.
	FilePath string
	// Content is the full new content for Write events.
	Content string
	// OldString/NewString describe an in-place replacement for Edit events.
	OldString string
	NewString string
	// ReplaceAll selects all occurrences instead of only the first.
	ReplaceAll bool
}

// IsBash reports whether the event is a shell command execution.
func (e ToolEvent) IsBash() bool { return e.ToolName == "Bash" }

// IsFileWrite reports whether the event is a full-content write or an
// in-place edit.
func (e ToolEvent) IsFileWrite() bool {
	return e.ToolName == "Write" || e.ToolName == "Edit"
}

// CheckResult is a single check's verdict for one event.
// A result with Decision = Allow never carries a reason.
type CheckResult struct {
	Decision Decision
	Reason   string
}

// Allowed is the zero-opinion result shared by all checks.
var Allowed = CheckResult{Decision: Allow}

// AskFor builds an Ask result with the given reason.
func AskFor(reason string) CheckResult {
	return CheckResult{Decision: Ask, Reason: reason}
}

// BlockFor builds a Block result with the given reason.
func BlockFor(reason string) CheckResult {
	return CheckResult{Decision: Block, Reason: reason}
}

// Check is one composable policy check. Implementations resolve the
// effective configuration through the provider they were constructed with,
// so tests can supply a fixed config while production uses the cached file
// resolver. Checks that consult the repository (staging, checkout) also
// receive a status provider at construction.
type Check interface {
	// Name identifies the check in logs, metrics, and audit records.
	Name() string
	// Evaluate returns the check's verdict for the event. A check that does
	// not apply to the event's tool type returns Allowed.
	Evaluate(ctx context.Context, event ToolEvent) CheckResult
}
