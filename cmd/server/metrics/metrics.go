// Package metrics provides Prometheus metrics instrumentation for the server.
//
// Metrics exposed:
//   - climacast_predictions_total: Counter of predictions by transport and status
//   - climacast_prediction_value: Histogram of returned temperature anomalies
//   - climacast_chart_render_seconds: Histogram of chart rendering time by chart
//   - climacast_model_fallback: Gauge, 1 when the demonstration model is served
//   - climacast_model_mean_error: Gauge of the served model's mean validation error
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/HatiCode/climacast/pkg/predictor"
)

// Prediction statuses.
const (
	StatusOK      = "ok"
	StatusInvalid = "invalid"
	StatusError   = "error"
)

type Metrics struct {
	PredictionsTotal    *prometheus.CounterVec
	PredictionValue     prometheus.Histogram
	ChartRenderDuration *prometheus.HistogramVec
	ModelFallback       prometheus.Gauge
	ModelMeanError      prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		PredictionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "climacast_predictions_total",
			Help: "Total number of predictions by transport and status",
		}, []string{"transport", "status"}),

		PredictionValue: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "climacast_prediction_value",
			Help:    "Predicted temperature anomaly in degrees Celsius",
			Buckets: prometheus.LinearBuckets(-0.5, 0.25, 13),
		}),

		ChartRenderDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "climacast_chart_render_seconds",
			Help:    "Time spent rendering a chart",
			Buckets: prometheus.DefBuckets,
		}, []string{"chart"}),

		ModelFallback: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "climacast_model_fallback",
			Help: "1 when the demonstration fallback model is being served",
		}),

		ModelMeanError: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "climacast_model_mean_error",
			Help: "Mean walk-forward MAE of the served model",
		}),
	}
}

// ObservePrediction counts one prediction. It satisfies rpc.Observer.
func (m *Metrics) ObservePrediction(transport string, err error) {
	status := StatusOK
	switch {
	case predictor.IsValidation(err):
		status = StatusInvalid
	case err != nil:
		status = StatusError
	}
	m.PredictionsTotal.WithLabelValues(transport, status).Inc()
}

func (m *Metrics) ObservePredictionValue(v float64) {
	m.PredictionValue.Observe(v)
}

func (m *Metrics) ObserveChartRender(chart string, seconds float64) {
	m.ChartRenderDuration.WithLabelValues(chart).Observe(seconds)
}

// SetModel records which model is being served.
func (m *Metrics) SetModel(p *predictor.Predictor) {
	if p.Source() == predictor.SourceFallback {
		m.ModelFallback.Set(1)
	} else {
		m.ModelFallback.Set(0)
	}
	m.ModelMeanError.Set(p.MeanError())
}
