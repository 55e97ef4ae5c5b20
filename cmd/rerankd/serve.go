package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/fyrsmithlabs/rerankd/internal/compressor"
	"github.com/fyrsmithlabs/rerankd/internal/config"
	httpserver "github.com/fyrsmithlabs/rerankd/internal/http"
	"github.com/fyrsmithlabs/rerankd/internal/logging"
	"github.com/fyrsmithlabs/rerankd/internal/pinecone"
	"github.com/fyrsmithlabs/rerankd/internal/reranker"
	"github.com/fyrsmithlabs/rerankd/internal/retriever"
	"github.com/fyrsmithlabs/rerankd/internal/telemetry"
	"github.com/fyrsmithlabs/rerankd/internal/vectorstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/rerankd"

func newServeCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the rerank HTTP service",
		Long: `Run the rerankd HTTP service until SIGINT or SIGTERM.

Endpoints:
  GET  /health           liveness
  GET  /metrics          Prometheus metrics
  POST /api/v1/rerank    rerank ID-carrying documents
  POST /api/v1/compress  rerank langchain-style documents
  POST /api/v1/search    vector search followed by rerank (needs vectorstore.url)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := global.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, logger)
		},
	}
}

// runServe wires the services and blocks until ctx is canceled, then shuts
// the server down within the configured timeout.
//
// Wiring order:
//  1. Telemetry (tracer and meter providers)
//  2. Pinecone client and compressor, with Prometheus collectors
//  3. Reranker facade and optional vector store retriever
//  4. HTTP server
func runServe(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	zl := logger.Underlying()

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version), zl)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			zl.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client, err := pinecone.NewClient(pinecone.FromSettings(cfg.Pinecone), zl)
	if err != nil {
		return fmt.Errorf("failed to create pinecone client: %w", err)
	}

	opts := append(compressor.FromSettings(cfg.Rerank),
		compressor.WithLogger(zl),
		compressor.WithMetrics(compressor.NewMetrics(reg)),
		compressor.WithTracer(tel.Tracer(instrumentationName)),
	)
	comp, err := compressor.New(client, opts...)
	if err != nil {
		return fmt.Errorf("failed to create compressor: %w", err)
	}

	deps := httpserver.Deps{
		Compressor: comp,
		Reranker:   reranker.NewCompressorReranker(comp),
		Gatherer:   reg,
		Metrics:    httpserver.NewHTTPMetrics(tel.MeterProvider(), zl),
		Tracer:     tel.Tracer(instrumentationName),
	}
	defer deps.Reranker.Close()

	if cfg.VectorStore.Enabled() {
		vs, err := vectorstore.FromSettings(cfg.VectorStore, zl)
		if err != nil {
			return fmt.Errorf("failed to create vector store: %w", err)
		}
		deps.Retriever = retriever.NewContextualCompression(vs.Retriever(cfg.VectorStore.K), comp, zl)
	}

	srv, err := httpserver.NewServer(deps, zl, &httpserver.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info(ctx, "starting rerankd",
		zap.String("version", version),
		zap.String("model", comp.Model()),
		zap.Bool("search_enabled", deps.Retriever != nil),
		zap.Bool("telemetry_enabled", tel.IsEnabled()),
		logging.Secret("pinecone_api_key", cfg.Pinecone.APIKey),
	)
	if deps.Retriever != nil {
		logger.Info(ctx, "vector store configured",
			zap.String("collection", cfg.VectorStore.Collection),
			logging.Secret("qdrant_api_key", cfg.VectorStore.APIKey),
			logging.Secret("embedding_api_key", cfg.VectorStore.EmbeddingAPIKey),
		)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	logger.Info(context.Background(), "rerankd stopped")
	return nil
}
