// Package shell provides best-effort recognition of compound shell commands.
//
// This is intentionally not a shell grammar. The splitter knows just enough
// to break a command apart on unquoted compound operators so each segment
// can be policy-checked independently. Subshells, backticks, and $( ... )
// substitutions are treated as ordinary text: a compound command nested
// inside a substitution is invisible to the splitter.
package shell

import "strings"

// Operators recognized as subcommand boundaries, longest first so "&&" is
// matched before "&" would be (a bare "&" or "|" inside "||" never splits).
var operators = []string{"&&", "||", ";", "|"}

// Split decomposes a raw command into its subcommands in left-to-right
// order. Each subcommand is whitespace-trimmed and never empty; a command
// with no unquoted operator yields exactly one subcommand, and an empty or
// whitespace-only input yields none.
func Split(command string) []string {
	segments, _ := splitRetaining(command)
	return segments
}

// splitRetaining returns the trimmed non-empty segments plus the operator
// that followed each boundary (len(ops) == number of boundaries crossed,
// including those around dropped empty segments). The ops slice exists for
// reconstruction-style tests.
func splitRetaining(command string) (segments []string, ops []string) {
	var current strings.Builder
	inSingle := false
	inDouble := false

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			segments = append(segments, s)
		}
		current.Reset()
	}

	i := 0
	for i < len(command) {
		ch := command[i]

		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		}

		if !inSingle && !inDouble {
			if op := operatorAt(command, i); op != "" {
				flush()
				ops = append(ops, op)
				i += len(op)
				continue
			}
		}

		current.WriteByte(ch)
		i++
	}
	flush()
	return segments, ops
}

// operatorAt reports the compound operator starting at position i, or "".
// A single '&' is backgrounding, not a boundary, so only "&&" matches.
func operatorAt(s string, i int) string {
	for _, op := range operators {
		if strings.HasPrefix(s[i:], op) {
			return op
		}
	}
	return ""
}

// Normalize collapses all runs of whitespace in a subcommand into single
// spaces. Checks match patterns against the normalized form.
func Normalize(command string) string {
	return strings.Join(strings.Fields(command), " ")
}

// FirstWord returns the first whitespace-delimited token of a command, or
// "" for an empty command.
func FirstWord(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
