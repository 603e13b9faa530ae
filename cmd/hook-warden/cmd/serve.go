package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/hookwarden/hookwarden/internal/adapter/inbound/httpapi"
	"github.com/hookwarden/hookwarden/internal/adapter/outbound/gitcli"
	"github.com/hookwarden/hookwarden/internal/domain/policy"
	"github.com/hookwarden/hookwarden/internal/service"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resident evaluator over local HTTP",
	Long: `Run a long-lived evaluator that accepts PreToolUse events on
POST /v1/evaluate and returns decisions without per-event process startup.

The configuration is cached across evaluations; POST /v1/config/invalidate
drops the cache after a config file edit. Prometheus metrics are exposed
on GET /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.http_addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	bootLogger := newLogger("info")
	provider := configProvider("", bootLogger)
	conf := provider.Config()
	logger := newLogger(conf.Server.LogLevel)

	addr := serveAddr
	if addr == "" {
		addr = conf.Server.HTTPAddr
	}

	repo := gitcli.NewProvider(conf.QueryTimeout(), logger)
	engine := policy.NewEngine(service.BuildChecks(provider, repo, logger), logger)
	trail := openTrail(conf, logger)
	defer func() { _ = trail.Close() }()

	svc := service.NewEvaluationService(engine, provider, trail, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	handler := httpapi.NewHandler(svc, provider, reg, logger, Version)
	server := httpapi.NewServer(addr, handler, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return trail.Flush(shutdownCtx)
}
