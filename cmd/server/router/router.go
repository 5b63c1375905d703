// Package router configures HTTP routes for the climacast server.
//
// Routes configured:
//   - GET  /                        - Prediction form with the anomaly timeline
//   - GET  /visualization           - Timeline and CO2 correlation charts
//   - POST /predict                 - JSON feature record in, {"prediction": x} out
//   - GET  /model                   - Metadata about the served model
//   - GET  /charts/timeline.png     - Temperature anomaly by year
//   - GET  /charts/correlation.png  - Temperature anomaly against CO2 with a trend line
//   - GET  /healthz                 - Health check endpoint (returns 200 OK)
//   - GET  /metrics                 - Prometheus metrics endpoint
package router

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/climacast/cmd/server/metrics"
	"github.com/HatiCode/climacast/pkg/charts"
	"github.com/HatiCode/climacast/pkg/client"
	"github.com/HatiCode/climacast/pkg/httpx"
	"github.com/HatiCode/climacast/pkg/models"
	"github.com/HatiCode/climacast/pkg/predictor"
)

const maxBodyBytes = 1 << 16

// Series is the data behind the chart endpoints.
type Series struct {
	Frame      models.FeatureFrame
	CO2Column  string
	TempColumn string
}

// SampleSeries charts the demonstration dataset.
func SampleSeries() Series {
	return Series{Frame: predictor.SampleFrame(), CO2Column: "co2", TempColumn: "temp_anomaly"}
}

// SetupRoutes configures HTTP endpoints for the server.
func SetupRoutes(p *predictor.Predictor, series Series, m *metrics.Metrics, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /{$}", handleIndex(p, logger))
	mux.Handle("GET /visualization", handleVisualization(logger))

	mux.HandleFunc("POST /predict", handlePredict(p, m, logger))
	mux.HandleFunc("GET /model", handleModel(p))

	mux.HandleFunc("GET /charts/timeline.png", handleChart("timeline", m, logger, func(buf *bytes.Buffer) error {
		return charts.Timeline(buf, series.Frame, series.TempColumn, "Global temperature anomaly")
	}))
	mux.HandleFunc("GET /charts/correlation.png", handleChart("correlation", m, logger, func(buf *bytes.Buffer) error {
		return charts.Correlation(buf, series.Frame, series.CO2Column, series.TempColumn, "CO2 vs temperature anomaly")
	}))

	mux.Handle("/healthz", httpx.HealthHandler())

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// handlePredict returns a handler for POST /predict.
func handlePredict(p *predictor.Predictor, m *metrics.Metrics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := httpx.ReadJSON(w, r, maxBodyBytes, &body); err != nil {
			m.ObservePrediction("http", &predictor.ValidationError{Field: "body", Reason: err.Error()})
			httpx.WriteError(w, http.StatusBadRequest, err)
			return
		}

		v, err := p.PredictRaw(body)
		m.ObservePrediction("http", err)
		if err != nil {
			if predictor.IsValidation(err) {
				httpx.WriteError(w, http.StatusBadRequest, err)
				return
			}
			logger.Error("prediction failed", "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		m.ObservePredictionValue(v)
		_ = httpx.WriteJSON(w, http.StatusOK, client.PredictResponse{Prediction: v})
	}
}

// handleModel returns a handler for GET /model.
func handleModel(p *predictor.Predictor) http.HandlerFunc {
	info := client.ModelInfo{
		Model:     p.ModelName(),
		Features:  p.Features(),
		Target:    p.Target(),
		RunID:     p.RunID(),
		Source:    string(p.Source()),
		MeanError: p.MeanError(),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		_ = httpx.WriteJSON(w, http.StatusOK, info)
	}
}

func handleChart(name string, m *metrics.Metrics, logger *slog.Logger, draw func(*bytes.Buffer) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var buf bytes.Buffer
		if err := draw(&buf); err != nil {
			logger.Error("chart rendering failed", "chart", name, "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, fmt.Sprintf("cannot render %s chart", name))
			return
		}
		m.ObserveChartRender(name, time.Since(start).Seconds())

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(buf.Bytes())
	}
}

func handleIndex(p *predictor.Predictor, logger *slog.Logger) http.Handler {
	data := struct {
		Features []string
		Target   string
		Fallback bool
	}{
		Features: p.Features(),
		Target:   p.Target(),
		Fallback: p.Source() == predictor.SourceFallback,
	}
	return renderPage(indexTemplate, data, logger)
}

func handleVisualization(logger *slog.Logger) http.Handler {
	return renderPage(visualizationTemplate, nil, logger)
}

func renderPage(tmpl *template.Template, data any, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			logger.Error("template rendering failed", "template", tmpl.Name(), "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})
}
