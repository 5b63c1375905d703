package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/HatiCode/climacast/pkg/models"
	"github.com/HatiCode/climacast/pkg/predictor"
	"github.com/HatiCode/climacast/pkg/storage"
)

// Shared metrics instance for all tests to avoid duplicate registration
var testMetrics = New()

func TestNew(t *testing.T) {
	m := testMetrics

	if m.PredictionsTotal == nil {
		t.Error("PredictionsTotal should not be nil")
	}
	if m.PredictionValue == nil {
		t.Error("PredictionValue should not be nil")
	}
	if m.ChartRenderDuration == nil {
		t.Error("ChartRenderDuration should not be nil")
	}
	if m.ModelFallback == nil {
		t.Error("ModelFallback should not be nil")
	}
	if m.ModelMeanError == nil {
		t.Error("ModelMeanError should not be nil")
	}
}

func TestObservePrediction(t *testing.T) {
	m := testMetrics

	m.ObservePrediction("http", nil)
	m.ObservePrediction("http", nil)
	m.ObservePrediction("grpc", &predictor.ValidationError{Field: "co2", Reason: "is required"})
	m.ObservePrediction("grpc", errors.New("boom"))

	if got := testutil.ToFloat64(m.PredictionsTotal.WithLabelValues("http", StatusOK)); got != 2 {
		t.Errorf("http ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.PredictionsTotal.WithLabelValues("grpc", StatusInvalid)); got != 1 {
		t.Errorf("grpc invalid = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PredictionsTotal.WithLabelValues("grpc", StatusError)); got != 1 {
		t.Errorf("grpc error = %v, want 1", got)
	}
}

func TestObservePredictionValue(t *testing.T) {
	m := testMetrics

	m.ObservePredictionValue(0.56)

	count := testutil.CollectAndCount(m.PredictionValue)
	if count != 1 {
		t.Errorf("expected 1 histogram, got %d", count)
	}
}

func TestObserveChartRender(t *testing.T) {
	m := testMetrics

	m.ObserveChartRender("timeline", 0.12)
	m.ObserveChartRender("correlation", 0.08)

	count := testutil.CollectAndCount(m.ChartRenderDuration)
	if count != 2 {
		t.Errorf("expected 2 series, got %d", count)
	}
}

func TestSetModel(t *testing.T) {
	m := testMetrics

	lin := models.NewLinearRegressor()
	if err := lin.Fit([][]float64{{1}, {2}, {3}}, []float64{2, 4, 6}); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	p, err := predictor.New(&storage.Artifact{
		Model:     lin,
		Features:  []string{"co2"},
		Target:    "temp_anomaly",
		TrainedAt: time.Now(),
		MeanError: 0.03,
	}, predictor.SourceArtifact)
	if err != nil {
		t.Fatalf("predictor.New() error = %v", err)
	}

	m.SetModel(p)

	if got := testutil.ToFloat64(m.ModelFallback); got != 0 {
		t.Errorf("ModelFallback = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.ModelMeanError); got != 0.03 {
		t.Errorf("ModelMeanError = %v, want 0.03", got)
	}
}
