// Package models defines the regression contract used by the trainer and the
// predictor, and the estimators that implement it.
package models

import (
	"encoding/gob"
	"errors"
	"fmt"
)

// ErrNotFitted is returned by Predict on an estimator that was never fitted.
var ErrNotFitted = errors.New("model is not fitted")

// FeatureFrame is the clean feature+target table produced by the features
// package. Rows are ordered by Key ascending, and every row holds a value for
// every entry of Columns.
type FeatureFrame struct {
	// Key is the name of the time column, e.g. "year".
	Key     string
	Columns []string
	Rows    []map[string]float64
}

// Len returns the number of rows.
func (f FeatureFrame) Len() int { return len(f.Rows) }

// Keys returns the time key of every row, in row order.
func (f FeatureFrame) Keys() []float64 {
	keys := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		keys[i] = row[f.Key]
	}
	return keys
}

// Column extracts one column as a vector.
func (f FeatureFrame) Column(name string) ([]float64, error) {
	out := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		v, ok := row[name]
		if !ok {
			return nil, fmt.Errorf("row %d: missing column %q", i, name)
		}
		out[i] = v
	}
	return out, nil
}

// Matrix extracts the named columns as a row-major design matrix.
func (f FeatureFrame) Matrix(columns []string) ([][]float64, error) {
	X := make([][]float64, len(f.Rows))
	for i, row := range f.Rows {
		x := make([]float64, len(columns))
		for j, name := range columns {
			v, ok := row[name]
			if !ok {
				return nil, fmt.Errorf("row %d: missing column %q", i, name)
			}
			x[j] = v
		}
		X[i] = x
	}
	return X, nil
}

// Regressor is a supervised estimator mapping a feature vector to a number.
//
// Implementations must be gob-encodable through their exported fields so the
// storage package can persist them as part of an artifact.
type Regressor interface {
	// Name returns the model identifier, e.g. "random_forest".
	Name() string

	// Fit trains the estimator from scratch on X (n x p) and y (n).
	// Any state from an earlier Fit is discarded.
	Fit(X [][]float64, y []float64) error

	// Predict returns one prediction per row of X.
	Predict(X [][]float64) ([]float64, error)
}

// Factory builds a fresh, unfitted regressor.
type Factory func() Regressor

func init() {
	gob.Register(&RandomForestRegressor{})
	gob.Register(&LinearRegressor{})
}

func validateXY(X [][]float64, y []float64) (int, error) {
	if len(X) == 0 {
		return 0, errors.New("empty X")
	}
	if len(y) != len(X) {
		return 0, fmt.Errorf("X and y length mismatch: %d != %d", len(X), len(y))
	}
	p := len(X[0])
	if p == 0 {
		return 0, errors.New("X has no features")
	}
	for i := range X {
		if len(X[i]) != p {
			return 0, fmt.Errorf("row %d has %d features, want %d", i, len(X[i]), p)
		}
	}
	return p, nil
}

// Spec selects and parameterises a regressor.
type Spec struct {
	Type        string `yaml:"type" validate:"omitempty,oneof=random_forest linear"`
	NEstimators int    `yaml:"n_estimators" validate:"gte=0"`
	MaxDepth    int    `yaml:"max_depth" validate:"gte=0"`
	MaxFeatures int    `yaml:"max_features" validate:"gte=0"`
	Seed        int64  `yaml:"seed"`
}

// NewFactory returns a Factory for spec. An empty Type means "random_forest".
func NewFactory(spec Spec) (Factory, error) {
	switch spec.Type {
	case "", "random_forest":
		opts := []ForestOption{WithSeed(spec.Seed), WithMaxDepth(spec.MaxDepth), WithMaxFeatures(spec.MaxFeatures)}
		if spec.NEstimators > 0 {
			opts = append(opts, WithEstimators(spec.NEstimators))
		}
		return func() Regressor { return NewRandomForestRegressor(opts...) }, nil
	case "linear":
		return func() Regressor { return NewLinearRegressor() }, nil
	default:
		return nil, fmt.Errorf("unknown model type %q", spec.Type)
	}
}
