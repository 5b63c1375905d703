package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/HatiCode/climacast/pkg/features"
	"github.com/HatiCode/climacast/pkg/models"
	"github.com/HatiCode/climacast/pkg/storage"
	"github.com/HatiCode/climacast/pkg/training"
)

// Prepare collects every configured source and returns the processed
// feature frame.
func Prepare(ctx context.Context, cfg *Config, client *http.Client, logger *slog.Logger) (models.FeatureFrame, error) {
	if logger == nil {
		logger = slog.Default()
	}

	srcs, err := cfg.Adapters(client)
	if err != nil {
		return models.FeatureFrame{}, err
	}
	raw, err := features.Load(ctx, srcs)
	if err != nil {
		return models.FeatureFrame{}, err
	}

	proc, err := features.NewProcessor(cfg.ProcessorOptions(), logger)
	if err != nil {
		return models.FeatureFrame{}, err
	}
	frame, err := proc.Prepare(raw)
	if err != nil {
		return models.FeatureFrame{}, err
	}
	logger.Info("prepared feature frame", "rows", frame.Len(), "columns", frame.Columns)
	return frame, nil
}

// Run executes one load, process, train and persist cycle. The final fit is
// saved to store only when every stage succeeds.
func Run(ctx context.Context, cfg *Config, store storage.Saver, client *http.Client, logger *slog.Logger) (training.Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	frame, err := Prepare(ctx, cfg, client, logger)
	if err != nil {
		return training.Result{}, err
	}

	cols := append(slices.Clone(cfg.Model.Features), cfg.Model.Target)
	if err := features.RequireColumns(frame, cols...); err != nil {
		return training.Result{}, err
	}

	factory, err := models.NewFactory(cfg.Model.Spec)
	if err != nil {
		return training.Result{}, fmt.Errorf("model: %w", err)
	}

	t := &training.Trainer{
		NewModel: factory,
		Splits:   cfg.Training.Splits,
		Store:    store,
		Logger:   logger,
	}
	return t.Train(ctx, frame, cfg.Model.Features, cfg.Model.Target)
}
