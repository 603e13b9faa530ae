// Package hookio decodes PreToolUse events from stdin and encodes decision
// responses to stdout. The process contract is strict: the hook always exits
// zero, and anything it cannot understand is a silent allow so a protocol
// change on the caller's side can never break the agent's tool loop.
package hookio

import (
	"encoding/json"
	"io"

	"github.com/hookwarden/hookwarden/internal/domain/policy"
)

// rawInput matches the JSON a PreToolUse hook receives on stdin.
type rawInput struct {
	HookEventName string          `json:"hook_event_name"`
	ToolName      string          `json:"tool_name"`
	ToolInput     json.RawMessage `json:"tool_input"`
	CWD           string          `json:"cwd"`
}

// toolInput is the union of the tool argument shapes the checks care about.
type toolInput struct {
	Command    string `json:"command"`
	FilePath   string `json:"file_path"`
	Content    string `json:"content"`
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all"`
	CWD        string `json:"cwd"`
}

// DecodeEvent reads one hook payload. ok is false when the payload is not a
// PreToolUse tool event (different event type, or unparseable input); those
// payloads are allowed without evaluation.
func DecodeEvent(r io.Reader) (event policy.ToolEvent, ok bool) {
	data, err := io.ReadAll(r)
	if err != nil {
		return policy.ToolEvent{}, false
	}

	var raw rawInput
	if err := json.Unmarshal(data, &raw); err != nil {
		return policy.ToolEvent{}, false
	}
	if raw.ToolName == "" {
		return policy.ToolEvent{}, false
	}
	if raw.HookEventName != "" && raw.HookEventName != "PreToolUse" {
		return policy.ToolEvent{}, false
	}

	var in toolInput
	if len(raw.ToolInput) > 0 {
		// A malformed tool_input still evaluates: tool name alone can match
		// custom rules.
		_ = json.Unmarshal(raw.ToolInput, &in)
	}

	cwd := raw.CWD
	if cwd == "" {
		cwd = in.CWD
	}

	return policy.ToolEvent{
		ToolName:   raw.ToolName,
		Command:    in.Command,
		CWD:        cwd,
		FilePath:   in.FilePath,
		Content:    in.Content,
		OldString:  in.OldString,
		NewString:  in.NewString,
		ReplaceAll: in.ReplaceAll,
	}, true
}

// hookOutput is the structured PreToolUse response.
type hookOutput struct {
	HookSpecificOutput struct {
		HookEventName            string `json:"hookEventName"`
		PermissionDecision       string `json:"permissionDecision"`
		PermissionDecisionReason string `json:"permissionDecisionReason,omitempty"`
	} `json:"hookSpecificOutput"`
}

// legacyOutput is the older top-level decision format.
type legacyOutput struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

// WriteDecision emits the verdict. Allow writes nothing: silence is the
// allow signal and keeps transcripts clean.
func WriteDecision(w io.Writer, decision policy.Decision, reason string) error {
	if decision == policy.Allow {
		return nil
	}

	var out hookOutput
	out.HookSpecificOutput.HookEventName = "PreToolUse"
	out.HookSpecificOutput.PermissionDecision = permission(decision)
	out.HookSpecificOutput.PermissionDecisionReason = reason
	return json.NewEncoder(w).Encode(out)
}

// WriteLegacyDecision emits the verdict in the older top-level format, for
// hosts that predate hookSpecificOutput.
func WriteLegacyDecision(w io.Writer, decision policy.Decision, reason string) error {
	if decision == policy.Allow {
		return nil
	}

	out := legacyOutput{Reason: reason}
	switch decision {
	case policy.Ask:
		out.Decision = "ask"
	default:
		out.Decision = "block"
	}
	return json.NewEncoder(w).Encode(out)
}

func permission(decision policy.Decision) string {
	switch decision {
	case policy.Ask:
		return "ask"
	case policy.Block:
		return "deny"
	default:
		return "allow"
	}
}
