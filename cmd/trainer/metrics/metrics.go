// Package metrics records the outcome of a training run and pushes it to a
// Prometheus Pushgateway, since the trainer exits before it could be scraped.
//
// Metrics pushed:
//   - climacast_trainer_last_run_duration_seconds: Gauge of the last run's duration
//   - climacast_trainer_rows: Gauge of feature rows the last fit used
//   - climacast_trainer_mean_error: Gauge of the last run's mean walk-forward MAE
//   - climacast_trainer_fold_error: Gauge of each fold's MAE by fold index
//   - climacast_trainer_last_success_timestamp_seconds: Gauge, unix time of the last success
//   - climacast_trainer_last_failure_timestamp_seconds: Gauge, unix time of the last failure
package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/HatiCode/climacast/pkg/training"
)

type Metrics struct {
	registry *prometheus.Registry

	RunDuration prometheus.Gauge
	Rows        prometheus.Gauge
	MeanError   prometheus.Gauge
	FoldError   *prometheus.GaugeVec
	LastSuccess prometheus.Gauge
	LastFailure prometheus.Gauge
}

// New registers the trainer metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RunDuration: f.NewGauge(prometheus.GaugeOpts{
			Name: "climacast_trainer_last_run_duration_seconds",
			Help: "Duration of the last training run",
		}),

		Rows: f.NewGauge(prometheus.GaugeOpts{
			Name: "climacast_trainer_rows",
			Help: "Feature rows used by the last training run",
		}),

		MeanError: f.NewGauge(prometheus.GaugeOpts{
			Name: "climacast_trainer_mean_error",
			Help: "Mean walk-forward MAE of the last training run",
		}),

		FoldError: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "climacast_trainer_fold_error",
			Help: "Walk-forward MAE of each fold of the last training run",
		}, []string{"fold"}),

		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "climacast_trainer_last_success_timestamp_seconds",
			Help: "Unix time of the last successful training run",
		}),

		LastFailure: f.NewGauge(prometheus.GaugeOpts{
			Name: "climacast_trainer_last_failure_timestamp_seconds",
			Help: "Unix time of the last failed training run",
		}),
	}
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordSuccess(res training.Result, at time.Time) {
	m.RunDuration.Set(res.Duration.Seconds())
	m.Rows.Set(float64(res.Rows))
	m.MeanError.Set(res.MeanError)
	for _, f := range res.Folds {
		m.FoldError.WithLabelValues(strconv.Itoa(f.Index)).Set(f.MAE)
	}
	m.LastSuccess.Set(float64(at.Unix()))
}

func (m *Metrics) RecordFailure(at time.Time) {
	m.LastFailure.Set(float64(at.Unix()))
}

// Push adds the collected metrics to the job's group on the Pushgateway at
// url. Metrics the run did not touch keep their previous pushed values.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).AddContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
