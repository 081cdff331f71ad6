// Package metrics exposes dataset load telemetry as Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonMunkholm/dataengine/internal/core"
)

const (
	DatasetLabel = "dataset"
	FormatLabel  = "format"
	KindLabel    = "kind"
	Outcome      = "outcome"
	Succeeded    = "succeeded"
	Failed       = "failed"
)

// Observer records registry events. It implements core.Observer.
type Observer struct {
	loads        *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	records      *prometheus.GaugeVec
	fileDuration *prometheus.GaugeVec
	lastSuccess  prometheus.Gauge
}

var _ core.Observer = (*Observer)(nil)

// NewObserver creates the collectors and registers them with reg.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dataengine_loads_total",
				Help: "Number of catalog loads by kind and outcome",
			},
			[]string{KindLabel, Outcome},
		),
		loadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dataengine_load_duration_seconds",
				Help:    "Wall time of a full catalog load",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{KindLabel},
		),
		records: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dataengine_dataset_records",
				Help: "Records read by the most recent load of each dataset",
			},
			[]string{DatasetLabel, FormatLabel},
		),
		fileDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dataengine_dataset_read_seconds",
				Help: "Time spent reading and normalizing each dataset file",
			},
			[]string{DatasetLabel},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dataengine_last_successful_load_timestamp_seconds",
				Help: "Unix time of the last successful catalog load",
			},
		),
	}

	for _, c := range []prometheus.Collector{o.loads, o.loadDuration, o.records, o.fileDuration, o.lastSuccess} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func kind(reload bool) string {
	if reload {
		return "reload"
	}
	return "load"
}

func (o *Observer) LoadStarted(string, bool) {}

func (o *Observer) DatasetLoaded(file core.FileReport) {
	o.records.WithLabelValues(file.Name, file.Format).Set(float64(file.Records))
	o.fileDuration.WithLabelValues(file.Name).Set(file.Duration.Seconds())
}

func (o *Observer) LoadFinished(report *core.ImportReport, err error) {
	k := kind(report.Reload)
	o.loadDuration.WithLabelValues(k).Observe(report.Duration.Seconds())
	if err != nil {
		o.loads.WithLabelValues(k, Failed).Inc()
		return
	}
	o.loads.WithLabelValues(k, Succeeded).Inc()
	o.lastSuccess.Set(float64(report.StartedAt.Add(report.Duration).Unix()))
}
