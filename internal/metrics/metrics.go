// Package metrics exposes Prometheus collectors for feed updates.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rssdigest/domain"
)

const namespace = "rssdigest"

// Collector implements app.Observer.
type Collector struct {
	sourceUpdates  *prometheus.CounterVec
	sourceDuration prometheus.Histogram
	enrichments    *prometheus.CounterVec
	batchRuns      prometheus.Counter
	lastBatch      prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		sourceUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_updates_total",
			Help:      "Source update cycles by result.",
		}, []string{"result"}),
		sourceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_update_duration_seconds",
			Help:      "Duration of one source update cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		enrichments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichments_total",
			Help:      "Summarization calls by result.",
		}, []string{"result"}),
		batchRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_runs_total",
			Help:      "Finished update batches.",
		}),
		lastBatch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_batch_timestamp_seconds",
			Help:      "Unix time the last batch finished.",
		}),
	}
	for _, col := range []prometheus.Collector{c.sourceUpdates, c.sourceDuration, c.enrichments, c.batchRuns, c.lastBatch} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) SourceUpdated(_ string, ok bool, took time.Duration) {
	c.sourceUpdates.WithLabelValues(result(ok)).Inc()
	c.sourceDuration.Observe(took.Seconds())
}

func (c *Collector) EntriesEnriched(_ string, attempted, failed int) {
	c.enrichments.WithLabelValues("success").Add(float64(attempted - failed))
	c.enrichments.WithLabelValues("failure").Add(float64(failed))
}

func (c *Collector) BatchFinished(report domain.RunReport) {
	c.batchRuns.Inc()
	c.lastBatch.Set(float64(report.FinishedAt.Unix()))
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
