// Package main implements the climacast trainer.
// The trainer runs the pipeline once: collect the configured sources, prepare
// the feature frame, validate walk-forward, refit on every row and persist the
// artifact. It prints a summary and exits non-zero on any failure.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HatiCode/climacast/cmd/trainer/config"
	"github.com/HatiCode/climacast/cmd/trainer/logger"
	"github.com/HatiCode/climacast/cmd/trainer/metrics"
	"github.com/HatiCode/climacast/pkg/pipeline"
	"github.com/HatiCode/climacast/pkg/storage"
	"github.com/HatiCode/climacast/pkg/training"
)

func main() {
	cfg := config.ParseFlags()
	log := logger.New(cfg)
	slog.SetDefault(log)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := run(ctx, cfg, log)
	if err != nil {
		m.RecordFailure(time.Now())
	} else {
		m.RecordSuccess(res, time.Now())
	}

	if cfg.PushGatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if perr := m.Push(pushCtx, cfg.PushGatewayURL, cfg.PushJob); perr != nil {
			log.Warn("failed to push metrics", "error", perr)
		}
		cancel()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Training failed: %v\n", err)
		stop()
		os.Exit(1)
	}

	printSummary(os.Stdout, res)
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) (training.Result, error) {
	pipe, err := pipeline.LoadConfig(cfg.PipelineConfig)
	if err != nil {
		return training.Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	log.Info("starting climacast trainer",
		"version", "v0.1.0",
		"config", cfg.PipelineConfig,
		"sources", len(pipe.DataSources),
		"model", pipe.Model.Type,
		"splits", pipe.Training.Splits,
	)

	store, err := storage.Open(ctx, pipe.Artifact, log)
	if err != nil {
		return training.Result{}, err
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	client := &http.Client{Timeout: cfg.FetchTimeout}
	return pipeline.Run(ctx, pipe, store, client, log)
}

func printSummary(w io.Writer, res training.Result) {
	fmt.Fprintln(w, "Training complete")
	fmt.Fprintf(w, "Run:      %s\n", res.RunID)
	fmt.Fprintf(w, "Model:    %s on %v -> %s\n", res.Model.Name(), res.Features, res.Target)
	fmt.Fprintf(w, "Rows:     %d\n", res.Rows)
	for _, f := range res.Folds {
		fmt.Fprintf(w, "Fold %d:   train %.0f-%.0f, test %.0f-%.0f, MAE %.4f, RMSE %.4f, R2 %.3f\n",
			f.Index, f.TrainFirst, f.TrainLast, f.TestFirst, f.TestLast, f.MAE, f.RMSE, f.R2)
	}
	fmt.Fprintf(w, "Mean MAE: %.2f\n", res.MeanError)
}
