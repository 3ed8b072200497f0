package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers the operational counters the dashboard and alerting
// care about: publish outcomes, batch item outcomes, auto-scheduled
// posts.
type Collector struct {
	registry        *prometheus.Registry
	publishAttempts *prometheus.CounterVec
	publishLatency  prometheus.Histogram
	batchItems      *prometheus.CounterVec
	scheduledPosts  prometheus.Counter
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		publishAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boothflow_publish_attempts_total",
			Help: "Publish attempts by outcome.",
		}, []string{"outcome"}),
		publishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "boothflow_publish_latency_seconds",
			Help:    "Latency of external publish calls.",
			Buckets: prometheus.DefBuckets,
		}),
		batchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boothflow_batch_items_total",
			Help: "Batch transform items by outcome.",
		}, []string{"outcome"}),
		scheduledPosts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boothflow_autoscheduled_posts_total",
			Help: "Posts created by the auto scheduler.",
		}),
	}

	registry.MustRegister(c.publishAttempts, c.publishLatency, c.batchItems, c.scheduledPosts)
	return c
}

func (c *Collector) RecordPublish(outcome string, duration time.Duration) {
	c.publishAttempts.WithLabelValues(outcome).Inc()
	c.publishLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordBatchItem(outcome string) {
	c.batchItems.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordAutoScheduled(count int) {
	c.scheduledPosts.Add(float64(count))
}

// Handler exposes the registry for the /metrics route.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
