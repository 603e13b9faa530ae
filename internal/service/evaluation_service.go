// Package service contains application services.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hookwarden/hookwarden/internal/config"
	"github.com/hookwarden/hookwarden/internal/domain/audit"
	"github.com/hookwarden/hookwarden/internal/domain/policy"
)

// EvaluationResponse is the structured result of one evaluation.
type EvaluationResponse struct {
	RequestID string  `json:"request_id"`
	Decision  string  `json:"decision"`
	Check     string  `json:"check,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	LatencyMS float64 `json:"latency_ms"`
}

// EvaluationService runs tool events through the policy engine, records the
// decision trail, and reports latency. It is the one entry point shared by
// the hook adapter and the HTTP API.
type EvaluationService struct {
	engine *policy.Engine
	cfg    config.Provider
	trail  audit.Store
	logger *slog.Logger
}

// NewEvaluationService creates the service. A nil trail disables the
// decision log.
func NewEvaluationService(engine *policy.Engine, cfg config.Provider, trail audit.Store, logger *slog.Logger) *EvaluationService {
	if trail == nil {
		trail = audit.NopStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationService{engine: engine, cfg: cfg, trail: trail, logger: logger}
}

// Evaluate runs one event through the engine. It never returns an error:
// evaluation failure semantics live inside the checks, and trail write
// failures are logged but must not affect the verdict.
func (s *EvaluationService) Evaluate(ctx context.Context, event policy.ToolEvent) EvaluationResponse {
	requestID := uuid.New().String()
	start := time.Now()

	verdict := s.engine.Evaluate(ctx, event)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	s.logger.Info("evaluated tool event",
		"request_id", requestID,
		"tool", event.ToolName,
		"decision", verdict.Decision.String(),
		"check", verdict.Check,
		"latency_ms", elapsed,
	)
	s.record(ctx, requestID, event, verdict, elapsed)

	return EvaluationResponse{
		RequestID: requestID,
		Decision:  verdict.Decision.String(),
		Check:     verdict.Check,
		Reason:    verdict.Reason,
		LatencyMS: elapsed,
	}
}

// record appends to the decision trail when the config asks for it. By
// default only non-allow verdicts are recorded; all_decisions widens that.
func (s *EvaluationService) record(ctx context.Context, requestID string, event policy.ToolEvent, verdict policy.Verdict, elapsed float64) {
	conf := s.cfg.Config()
	if !conf.Audit.Enabled {
		return
	}
	if verdict.Decision == policy.Allow && !conf.Audit.AllDecisions {
		return
	}

	rec := audit.Record{
		ID:        requestID,
		Time:      time.Now().UTC(),
		Tool:      event.ToolName,
		Command:   event.Command,
		FilePath:  event.FilePath,
		CWD:       event.CWD,
		Decision:  verdict.Decision.String(),
		Check:     verdict.Check,
		Reason:    verdict.Reason,
		ElapsedMS: elapsed,
	}
	if err := s.trail.Append(ctx, rec); err != nil {
		s.logger.Warn("decision trail write failed", "request_id", requestID, "error", err)
	}
}
