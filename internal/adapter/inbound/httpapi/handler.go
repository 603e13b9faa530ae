package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hookwarden/hookwarden/internal/adapter/inbound/hookio"
	"github.com/hookwarden/hookwarden/internal/config"
	"github.com/hookwarden/hookwarden/internal/service"
)

// Handler routes the evaluator API.
type Handler struct {
	svc     *service.EvaluationService
	cfg     config.Provider
	metrics *Metrics
	logger  *slog.Logger
	version string
	mux     *http.ServeMux
}

// NewHandler wires the endpoints. The registry carries both the evaluator
// metrics and whatever the caller already registered.
func NewHandler(svc *service.EvaluationService, cfg config.Provider, reg *prometheus.Registry, logger *slog.Logger, version string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		svc:     svc,
		cfg:     cfg,
		metrics: NewMetrics(reg),
		logger:  logger,
		version: version,
		mux:     http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /v1/evaluate", h.handleEvaluate)
	h.mux.HandleFunc("POST /v1/config/invalidate", h.handleInvalidate)
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handleEvaluate accepts the same payload shape as the stdin hook and
// returns the structured verdict. Unlike the hook, malformed input is a 400
// here: an HTTP caller is a program that should be told it is broken.
func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	event, ok := hookio.DecodeEvent(http.MaxBytesReader(w, r.Body, 4<<20))
	if !ok {
		writeError(w, http.StatusBadRequest, "body must be a PreToolUse tool event")
		return
	}

	resp := h.svc.Evaluate(r.Context(), event)

	h.metrics.EvaluationsTotal.WithLabelValues(resp.Decision, checkLabel(resp.Check)).Inc()
	h.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, resp)
}

// handleInvalidate drops the cached configuration so the next evaluation
// re-reads the config files.
func (h *Handler) handleInvalidate(w http.ResponseWriter, _ *http.Request) {
	h.cfg.Invalidate()
	h.metrics.ConfigReloads.Inc()
	h.logger.Info("configuration cache invalidated")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// healthResponse is the JSON body of /healthz.
type healthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version,omitempty"`
	Goroutines int    `json:"goroutines"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "healthy",
		Version:    h.version,
		Goroutines: runtime.NumGoroutine(),
	})
}

// checkLabel keeps the metric label space bounded when no check decided.
func checkLabel(check string) string {
	if check == "" {
		return "none"
	}
	return check
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
