// Package predictor serves a persisted regressor behind a named-feature
// inference call.
package predictor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/HatiCode/climacast/pkg/models"
	"github.com/HatiCode/climacast/pkg/storage"
)

// ValidationError reports inference input that cannot be coerced into the
// model's feature vector.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Source records how the predictor was initialised.
type Source string

const (
	SourceArtifact Source = "artifact"
	SourceFallback Source = "fallback"
)

// Predictor wraps a fitted model. It is immutable and safe for concurrent
// use.
type Predictor struct {
	model     models.Regressor
	features  []string
	target    string
	runID     string
	meanError float64
	source    Source
}

// New builds a Predictor from a loaded artifact.
func New(a *storage.Artifact, source Source) (*Predictor, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &Predictor{
		model:     a.Model,
		features:  append([]string(nil), a.Features...),
		target:    a.Target,
		runID:     a.RunID,
		meanError: a.MeanError,
		source:    source,
	}, nil
}

// Features returns the ordered feature names the model expects.
func (p *Predictor) Features() []string { return append([]string(nil), p.features...) }

// Target returns the name of the predicted column.
func (p *Predictor) Target() string { return p.target }

// RunID identifies the training run that produced the model.
func (p *Predictor) RunID() string { return p.runID }

// MeanError is the mean walk-forward MAE recorded when the model was trained.
func (p *Predictor) MeanError() float64 { return p.meanError }

// Source reports whether the model came from the artifact store or the
// in-process fallback.
func (p *Predictor) Source() Source { return p.source }

// ModelName returns the regressor identifier.
func (p *Predictor) ModelName() string { return p.model.Name() }

// Predict returns the prediction for a record of named features, rounded to
// two decimals. Every model feature must be present and finite; extra fields
// are ignored.
func (p *Predictor) Predict(features map[string]float64) (float64, error) {
	x := make([]float64, len(p.features))
	for i, name := range p.features {
		v, ok := features[name]
		if !ok {
			return 0, &ValidationError{Field: name, Reason: "is required"}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &ValidationError{Field: name, Reason: "must be a finite number"}
		}
		x[i] = v
	}

	out, err := p.model.Predict([][]float64{x})
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	return Round2(out[0]), nil
}

// PredictRaw coerces a decoded JSON object (numbers or numeric strings) and
// calls Predict.
func (p *Predictor) PredictRaw(input map[string]any) (float64, error) {
	if len(input) == 0 {
		return 0, &ValidationError{Reason: "empty feature record"}
	}
	features := make(map[string]float64, len(p.features))
	for _, name := range p.features {
		raw, ok := input[name]
		if !ok {
			return 0, &ValidationError{Field: name, Reason: "is required"}
		}
		v, err := toFloat64(raw)
		if err != nil {
			return 0, &ValidationError{Field: name, Reason: err.Error()}
		}
		features[name] = v
	}
	return p.Predict(features)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func toFloat64(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case interface{ Float64() (float64, error) }: // json.Number
		f, err := val.Float64()
		if err != nil {
			return 0, errors.New("must be a number")
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, errors.New("must be a number")
		}
		return f, nil
	case nil:
		return 0, errors.New("must not be null")
	default:
		return 0, fmt.Errorf("must be a number, got %T", v)
	}
}
