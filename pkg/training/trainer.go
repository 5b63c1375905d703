// Package training fits regressors with walk-forward cross-validation and
// persists the final fit.
package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/HatiCode/climacast/pkg/models"
	"github.com/HatiCode/climacast/pkg/storage"
)

// DefaultSplits is the walk-forward fold count.
const DefaultSplits = 5

// InsufficientDataError reports a frame too short for the requested folds.
type InsufficientDataError struct {
	Rows   int
	Splits int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d rows cannot form %d walk-forward folds (need at least %d)",
		e.Rows, e.Splits, e.Splits+1)
}

// Fold is one walk-forward split over row positions. Train is [0, TrainEnd)
// and Test is [TestStart, TestEnd), with TrainEnd == TestStart.
type Fold struct {
	TrainEnd  int
	TestStart int
	TestEnd   int
}

// WalkForward returns the expanding-window splits for n ordered rows: each
// fold tests the next n/(splits+1) rows after everything it trains on.
func WalkForward(n, splits int) ([]Fold, error) {
	if splits < 1 {
		return nil, fmt.Errorf("splits must be positive, got %d", splits)
	}
	if n < splits+1 {
		return nil, &InsufficientDataError{Rows: n, Splits: splits}
	}
	testSize := n / (splits + 1)
	folds := make([]Fold, splits)
	for k := range splits {
		start := n - (splits-k)*testSize
		folds[k] = Fold{TrainEnd: start, TestStart: start, TestEnd: start + testSize}
	}
	return folds, nil
}

// FoldReport is the outcome of one fold. Key bounds are inclusive values of
// the frame's key column, e.g. years. R2 is NaN when the held-out targets are
// constant.
type FoldReport struct {
	Index      int
	TrainRows  int
	TestRows   int
	TrainFirst float64
	TrainLast  float64
	TestFirst  float64
	TestLast   float64
	MAE        float64
	RMSE       float64
	R2         float64
}

// Result is a completed training run.
type Result struct {
	RunID     string
	Model     models.Regressor
	Features  []string
	Target    string
	Rows      int
	Folds     []FoldReport
	MeanError float64
	Duration  time.Duration
}

// FoldErrors returns the per-fold MAE in fold order.
func (r Result) FoldErrors() []float64 {
	out := make([]float64, len(r.Folds))
	for i, f := range r.Folds {
		out[i] = f.MAE
	}
	return out
}

// Artifact bundles the production fit for storage.
func (r Result) Artifact(trainedAt time.Time) *storage.Artifact {
	return &storage.Artifact{
		Model:      r.Model,
		Features:   r.Features,
		Target:     r.Target,
		RunID:      r.RunID,
		TrainedAt:  trainedAt,
		Rows:       r.Rows,
		FoldErrors: r.FoldErrors(),
		MeanError:  r.MeanError,
	}
}

// Trainer runs walk-forward validation, refits on the whole frame and saves
// the refit.
type Trainer struct {
	// NewModel builds a fresh regressor for every fold and for the final fit.
	NewModel models.Factory
	// Splits defaults to DefaultSplits.
	Splits int
	// Store receives the final fit. Nil skips persistence.
	Store  storage.Saver
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Train validates, refits and persists. Nothing is saved unless every fold,
// the final fit and the encoding succeed.
func (t *Trainer) Train(ctx context.Context, frame models.FeatureFrame, features []string, target string) (Result, error) {
	if t.NewModel == nil {
		return Result{}, errors.New("trainer has no model factory")
	}
	if len(features) == 0 {
		return Result{}, errors.New("no feature columns")
	}
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := t.Now
	if now == nil {
		now = time.Now
	}
	splits := t.Splits
	if splits == 0 {
		splits = DefaultSplits
	}

	start := now()
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	X, err := frame.Matrix(features)
	if err != nil {
		return Result{}, fmt.Errorf("build feature matrix: %w", err)
	}
	y, err := frame.Column(target)
	if err != nil {
		return Result{}, fmt.Errorf("build target vector: %w", err)
	}
	keys := frame.Keys()

	folds, err := WalkForward(len(X), splits)
	if err != nil {
		return Result{}, err
	}

	reports := make([]FoldReport, 0, len(folds))
	maes := make([]float64, 0, len(folds))
	for i, f := range folds {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("fold %d: %w", i, err)
		}

		m := t.NewModel()
		if err := m.Fit(X[:f.TrainEnd], y[:f.TrainEnd]); err != nil {
			return Result{}, fmt.Errorf("fold %d: fit: %w", i, err)
		}
		pred, err := m.Predict(X[f.TestStart:f.TestEnd])
		if err != nil {
			return Result{}, fmt.Errorf("fold %d: predict: %w", i, err)
		}
		actual := y[f.TestStart:f.TestEnd]
		mae, err := models.MeanAbsoluteError(actual, pred)
		if err != nil {
			return Result{}, fmt.Errorf("fold %d: score: %w", i, err)
		}
		rmse, err := models.RootMeanSquaredError(actual, pred)
		if err != nil {
			return Result{}, fmt.Errorf("fold %d: score: %w", i, err)
		}
		r2, err := models.R2(actual, pred)
		if err != nil {
			return Result{}, fmt.Errorf("fold %d: score: %w", i, err)
		}

		r := FoldReport{
			Index:      i,
			TrainRows:  f.TrainEnd,
			TestRows:   f.TestEnd - f.TestStart,
			TrainFirst: keys[0],
			TrainLast:  keys[f.TrainEnd-1],
			TestFirst:  keys[f.TestStart],
			TestLast:   keys[f.TestEnd-1],
			MAE:        mae,
			RMSE:       rmse,
			R2:         r2,
		}
		reports = append(reports, r)
		maes = append(maes, mae)

		logger.Debug("fold complete",
			"fold", i,
			"train_rows", r.TrainRows,
			"test_rows", r.TestRows,
			"test_first", r.TestFirst,
			"test_last", r.TestLast,
			"mae", mae,
			"rmse", rmse,
			"r2", r2,
		)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("final fit: %w", err)
	}
	final := t.NewModel()
	if err := final.Fit(X, y); err != nil {
		return Result{}, fmt.Errorf("final fit: %w", err)
	}

	res := Result{
		RunID:     runID,
		Model:     final,
		Features:  append([]string(nil), features...),
		Target:    target,
		Rows:      len(X),
		Folds:     reports,
		MeanError: stat.Mean(maes, nil),
	}

	if t.Store != nil {
		if err := t.Store.Save(ctx, res.Artifact(now())); err != nil {
			return Result{}, fmt.Errorf("save artifact: %w", err)
		}
	}
	res.Duration = now().Sub(start)

	logger.Info("training complete",
		"model", final.Name(),
		"rows", res.Rows,
		"folds", len(reports),
		"mean_mae", res.MeanError,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
