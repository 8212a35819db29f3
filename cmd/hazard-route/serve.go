package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/hazard-route-engine/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hazard-route-engine/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-route-engine/internal/config"
	"github.com/couchcryptid/hazard-route-engine/internal/dispatch"
	"github.com/couchcryptid/hazard-route-engine/internal/geograph"
	"github.com/couchcryptid/hazard-route-engine/internal/observability"
	"github.com/couchcryptid/hazard-route-engine/internal/pipeline"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Answer request envelopes from Kafka until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := observability.NewLogger(observability.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})
	metrics := observability.NewMetrics()

	g, err := loadGraph(cfg)
	if err != nil {
		logger.Error("graph load failed", "graph_file", cfg.GraphFile, "error", err)
		return err
	}
	holder := geograph.NewHolder(nil)
	publish(holder, g, metrics)
	logger.Info("graph loaded",
		"graph_file", cfg.GraphFile,
		"version", g.Version(),
		"nodes", g.Stats().Nodes,
		"edges", g.Stats().Edges,
	)

	var handler dispatch.Handler = dispatch.NewEngine(holder, cfg.HazardModel(), cfg.RequestTimeout, logger, metrics)
	if cfg.ResultCacheSize > 0 {
		cached, err := dispatch.NewCachedEngine(handler, holder, cfg.ResultCacheSize, metrics)
		if err != nil {
			return err
		}
		handler = cached
		logger.Info("result cache enabled", "size", cfg.ResultCacheSize)
	} else {
		logger.Info("result cache disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	processor := pipeline.NewProcessor(handler, logger)

	p := pipeline.New(reader, processor, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.AllReady(holder, p), holder, logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if cfg.GraphWatch {
		go watchGraph(ctx, cfg.GraphFile, holder, metrics, logger)
	}

	// Start request worker.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("request worker error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// watchGraph reloads the definition file on change. A failed reload keeps
// the previous graph.
func watchGraph(ctx context.Context, path string, holder *geograph.Holder, metrics *observability.Metrics, logger *slog.Logger) {
	err := geograph.Watch(ctx, path, logger, func(g *geograph.Graph) {
		publish(holder, g, metrics)
		metrics.GraphReloads.WithLabelValues("success").Inc()
	}, func(error) {
		metrics.GraphReloads.WithLabelValues("error").Inc()
	})
	if err != nil {
		logger.Error("graph watcher stopped", "path", path, "error", err)
	}
}

func publish(holder *geograph.Holder, g *geograph.Graph, metrics *observability.Metrics) {
	holder.Swap(g)
	stats := g.Stats()
	metrics.GraphNodes.Set(float64(stats.Nodes))
	metrics.GraphEdges.Set(float64(stats.Edges))
}
