// Package prommetrics exports pikodb operation metrics to Prometheus.
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/pikodb"
)

// Compile-time check to ensure Collector satisfies the metrics interface.
var _ pikodb.MetricsCollector = (*Collector)(nil)

// Options configures a Collector.
type Options struct {
	// Namespace prefixes every metric name. Defaults to "pikodb".
	Namespace string

	// Buckets are the latency histogram buckets in seconds.
	Buckets []float64
}

// Collector is a pikodb.MetricsCollector backed by Prometheus metrics.
type Collector struct {
	opLatency    *prometheus.HistogramVec
	ops          *prometheus.CounterVec
	points       *prometheus.CounterVec
	results      prometheus.Counter
	loadedPoints prometheus.Gauge
}

// New creates a Collector and registers its metrics with reg.
// Pass prometheus.NewRegistry() to keep the metrics off the global registry.
func New(reg prometheus.Registerer, optFns ...func(o *Options)) (*Collector, error) {
	opts := Options{
		Namespace: "pikodb",
		Buckets:   prometheus.DefBuckets,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of store operations",
			Buckets:   opts.Buckets,
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "operations_total",
			Help:      "Total store operations",
		}, []string{"op", "status"}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "upserted_points_total",
			Help:      "Total points submitted to upsert batches",
		}, []string{"status"}),
		results: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "search_results_total",
			Help:      "Total points returned by queries",
		}),
		loadedPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: opts.Namespace,
			Name:      "loaded_points",
			Help:      "Points restored by the last snapshot load",
		}),
	}

	for _, m := range []prometheus.Collector{c.opLatency, c.ops, c.points, c.results, c.loadedPoints} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues(op, s).Observe(d.Seconds())
	c.ops.WithLabelValues(op, s).Inc()
}

// RecordUpsert implements pikodb.MetricsCollector.
func (c *Collector) RecordUpsert(count, applied int, d time.Duration) {
	s := "success"
	if applied < count {
		s = "error"
	}
	c.opLatency.WithLabelValues("upsert", s).Observe(d.Seconds())
	c.ops.WithLabelValues("upsert", s).Inc()
	c.points.WithLabelValues("applied").Add(float64(applied))
	c.points.WithLabelValues("rejected").Add(float64(count - applied))
}

// RecordSearch implements pikodb.MetricsCollector.
func (c *Collector) RecordSearch(_, results int, d time.Duration, err error) {
	c.observe("search", d, err)
	if err == nil {
		c.results.Add(float64(results))
	}
}

// RecordPersist implements pikodb.MetricsCollector.
func (c *Collector) RecordPersist(_ int, d time.Duration, err error) {
	c.observe("persist", d, err)
}

// RecordLoad implements pikodb.MetricsCollector.
func (c *Collector) RecordLoad(_, points int, d time.Duration, err error) {
	c.observe("load", d, err)
	if err == nil {
		c.loadedPoints.Set(float64(points))
	}
}
