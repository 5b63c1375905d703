// Package main implements the climacast server.
// The server loads the trained model (or trains the demonstration fallback),
// then serves predictions over HTTP and gRPC together with the web form and
// charts.
package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/HatiCode/climacast/cmd/server/config"
	"github.com/HatiCode/climacast/cmd/server/logger"
	"github.com/HatiCode/climacast/cmd/server/metrics"
	"github.com/HatiCode/climacast/cmd/server/router"
	"github.com/HatiCode/climacast/pkg/httpx"
	"github.com/HatiCode/climacast/pkg/pipeline"
	"github.com/HatiCode/climacast/pkg/predictor"
	"github.com/HatiCode/climacast/pkg/rpc"
	"github.com/HatiCode/climacast/pkg/storage"
)

func main() {
	cfg := config.ParseFlags()
	log := logger.New(cfg)
	slog.SetDefault(log)
	m := metrics.New()

	log.Info("starting climacast server",
		"version", "v0.1.0",
		"listen", cfg.Listen,
		"grpc_listen", cfg.GRPCListen,
	)

	storeCfg := storage.Config{
		Backend:  cfg.ArtifactBackend,
		Path:     cfg.ArtifactPath,
		RedisURL: cfg.RedisURL,
		RedisKey: cfg.RedisKey,
	}
	series := router.SampleSeries()

	var pipe *pipeline.Config
	if cfg.PipelineConfig != "" {
		var err error
		pipe, err = pipeline.LoadConfig(cfg.PipelineConfig)
		if err != nil {
			log.Error("failed to load pipeline config", "path", cfg.PipelineConfig, "error", err)
			os.Exit(1)
		}
		storeCfg = pipe.Artifact
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), cfg.InitTimeout)
	store, err := storage.Open(initCtx, storeCfg, log)
	if err != nil {
		cancelInit()
		log.Error("failed to open artifact store", "error", err)
		os.Exit(1)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	p, err := predictor.Init(initCtx, store, log)
	if err != nil {
		cancelInit()
		log.Error("failed to initialise predictor", "error", err)
		os.Exit(1)
	}
	m.SetModel(p)
	log.Info("model ready",
		"model", p.ModelName(),
		"source", p.Source(),
		"features", p.Features(),
		"run_id", p.RunID(),
	)

	if pipe != nil {
		frame, err := pipeline.Prepare(initCtx, pipe, nil, log)
		if err != nil {
			log.Warn("cannot chart configured sources, using demonstration data", "error", err)
		} else {
			series = router.Series{Frame: frame, CO2Column: pipe.CO2Column, TempColumn: pipe.TempColumn}
		}
	}
	cancelInit()

	grpcServer := grpc.NewServer()

	rpc.RegisterPredictorServer(grpcServer, rpc.NewServer(p, m, log))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(rpc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCListen)
	if err != nil {
		log.Error("failed to listen", "error", err)
		os.Exit(1)
	}

	go func() {
		log.Info("grpc server listening", "address", cfg.GRPCListen)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server failed", "error", err)
			os.Exit(1)
		}
	}()

	mux := router.SetupRoutes(p, series, m, log)
	handler := httpx.RecoveryMiddleware(log)(httpx.LoggingMiddleware(log)(mux))
	httpServer := httpx.NewServer(cfg.Listen, handler, log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			log.Error("http server failed", "error", err)
		}
	}

	log.Info("shutting down grpc server")
	healthServer.Shutdown()
	grpcServer.GracefulStop()

	log.Info("shutting down http server")
	if err := httpServer.Stop(cfg.ShutdownTimeout); err != nil {
		log.Error("http server shutdown error", "error", err)
	}

	log.Info("shutdown complete")
}
