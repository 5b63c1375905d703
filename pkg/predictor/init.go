package predictor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/HatiCode/climacast/pkg/models"
	"github.com/HatiCode/climacast/pkg/storage"
	"github.com/HatiCode/climacast/pkg/training"
)

// Demonstration dataset bounds.
const (
	SampleFirstYear = 2000
	SampleLastYear  = 2010
	SampleCO2Low    = 369.0
	SampleCO2High   = 390.0
	SampleTempLow   = 0.4
	SampleTempHigh  = 0.72
)

// SampleFrame returns the fixed demonstration dataset: one row per year with
// CO2 and temperature anomaly linearly spaced between the sample bounds.
func SampleFrame() models.FeatureFrame {
	n := SampleLastYear - SampleFirstYear + 1
	co2 := floats.Span(make([]float64, n), SampleCO2Low, SampleCO2High)
	temp := floats.Span(make([]float64, n), SampleTempLow, SampleTempHigh)

	f := models.FeatureFrame{Key: "year", Columns: []string{"year", "co2", "temp_anomaly"}}
	for i := range n {
		f.Rows = append(f.Rows, map[string]float64{
			"year":         float64(SampleFirstYear + i),
			"co2":          co2[i],
			"temp_anomaly": temp[i],
		})
	}
	return f
}

// FallbackTrainer trains the demonstration model: a 50-tree forest, seed 42,
// on co2 -> temp_anomaly.
func FallbackTrainer(logger *slog.Logger) *training.Trainer {
	return &training.Trainer{
		NewModel: func() models.Regressor {
			return models.NewRandomForestRegressor(models.WithEstimators(50), models.WithSeed(42))
		},
		Logger: logger,
	}
}

// Init loads the persisted artifact. When it is missing or unreadable, Init
// trains the demonstration model through the regular Trainer instead of
// failing and reports SourceFallback. The fallback is saved to store only when
// no artifact exists yet, so a transient or corrupt load never overwrites a
// trained artifact. A save failure is logged and does not fail Init.
func Init(ctx context.Context, store storage.ArtifactStore, logger *slog.Logger) (*Predictor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	a, err := store.Load(ctx)
	if err == nil {
		p, verr := New(a, SourceArtifact)
		if verr == nil {
			logger.Info("loaded model artifact",
				"run_id", a.RunID,
				"model", a.Model.Name(),
				"features", a.Features,
				"trained_at", a.TrainedAt,
			)
			return p, nil
		}
		err = verr
	}

	missing := errors.Is(err, storage.ErrNotFound)
	if missing {
		logger.Warn("no model artifact, training fallback model")
	} else {
		logger.Warn("model artifact unusable, training fallback model", "error", err)
	}

	res, terr := FallbackTrainer(logger).Train(ctx, SampleFrame(), []string{"co2"}, "temp_anomaly")
	if terr != nil {
		return nil, fmt.Errorf("fallback training failed: %w (artifact: %v)", terr, err)
	}
	if missing {
		if serr := store.Save(ctx, res.Artifact(time.Now())); serr != nil {
			logger.Warn("failed to persist fallback model", "error", serr)
		}
	}

	return &Predictor{
		model:     res.Model,
		features:  res.Features,
		target:    res.Target,
		runID:     res.RunID,
		meanError: res.MeanError,
		source:    SourceFallback,
	}, nil
}
