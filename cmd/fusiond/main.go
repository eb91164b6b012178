package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/flood-risk-fusion/internal/adapter/catalog"
	httpadapter "github.com/couchcryptid/flood-risk-fusion/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flood-risk-fusion/internal/adapter/kafka"
	"github.com/couchcryptid/flood-risk-fusion/internal/adapter/nwm"
	"github.com/couchcryptid/flood-risk-fusion/internal/adapter/svi"
	"github.com/couchcryptid/flood-risk-fusion/internal/config"
	"github.com/couchcryptid/flood-risk-fusion/internal/fusion"
	"github.com/couchcryptid/flood-risk-fusion/internal/observability"
	"github.com/couchcryptid/flood-risk-fusion/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	engineCfg, err := config.LoadEngineConfig(cfg.EngineConfigPath)
	if err != nil {
		logger.Error("failed to load engine config", "error", err)
		os.Exit(1)
	}

	static, err := catalog.Load(cfg.StaticDataPath)
	if err != nil {
		logger.Error("failed to load reach catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("reach catalog loaded", "reaches", len(static.Reaches), "grid", static.Grid.String())

	vuln, err := svi.LoadRaster(cfg.SVIRasterPath)
	if err != nil {
		logger.Error("failed to load svi raster", "error", err)
		os.Exit(1)
	}
	logger.Info("svi raster loaded", "grid", vuln.Grid.String())

	engine, err := fusion.NewEngine(static, engineCfg, logger, clock)
	if err != nil {
		logger.Error("failed to build fusion engine", "error", err)
		os.Exit(1)
	}

	// Forecast source: NWM object-store poller when configured, Kafka otherwise.
	var source pipeline.CycleSource
	var reader *kafkaadapter.Reader
	if cfg.NWMEnabled {
		client := nwm.NewClient(cfg.NWMBaseURL, cfg.NWMHUC, cfg.NWMTimeout, cfg.NWMRPS, logger)
		source = nwm.NewPoller(client, cfg.NWMCacheSize, cfg.PollInterval, clock, logger)
		logger.Info("nwm forecast source enabled", "base_url", cfg.NWMBaseURL, "huc", cfg.NWMHUC)
	} else {
		reader = kafkaadapter.NewReader(cfg, logger)
		source = reader
		logger.Info("kafka forecast source enabled", "topic", cfg.KafkaSourceTopic)
	}
	writer := kafkaadapter.NewWriter(cfg, logger)

	p := pipeline.New(source, engine, writer, vuln, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start fusion pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
