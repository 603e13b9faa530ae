// Package audit defines the decision trail: one record per evaluated tool
// event, persisted as JSON Lines by the outbound store.
package audit

import (
	"context"
	"time"
)

// Record is one evaluated event with its verdict.
type Record struct {
	// ID is a unique request identifier (UUID).
	ID string `json:"id"`
	// Time is when the evaluation finished, UTC.
	Time time.Time `json:"time"`
	// Tool is the mediated tool name (Bash, Write, Edit).
	Tool string `json:"tool"`
	// Command is the shell command for Bash events.
	Command string `json:"command,omitempty"`
	// FilePath is the target path for Write/Edit events.
	FilePath string `json:"file_path,omitempty"`
	CWD      string `json:"cwd,omitempty"`
	// Decision is the aggregated verdict: allow, ask, or block.
	Decision string `json:"decision"`
	// Check names the check that produced a non-allow decision.
	Check  string `json:"check,omitempty"`
	Reason string `json:"reason,omitempty"`
	// ElapsedMS is the evaluation latency in milliseconds.
	ElapsedMS float64 `json:"elapsed_ms"`
}

// Store persists decision records.
// Interface owned by the domain; the implementation handles rotation and
// retention.
type Store interface {
	// Append stores records. Must not block the evaluation path for long.
	Append(ctx context.Context, records ...Record) error

	// Flush forces pending records to storage. Called during shutdown.
	Flush(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// NopStore discards all records. Used when the trail is disabled.
type NopStore struct{}

func (NopStore) Append(context.Context, ...Record) error { return nil }
func (NopStore) Flush(context.Context) error             { return nil }
func (NopStore) Close() error                            { return nil }
