package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	MemoriesSaved       *prometheus.CounterVec
	MemoriesDeleted     *prometheus.CounterVec
	MetadataExtractions *prometheus.CounterVec

	// Bus metrics
	CommandDuration *prometheus.HistogramVec
	QueryDuration   *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector with the given namespace.
// Each collector owns its registry so tests can build as many as they need.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		MemoriesSaved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memories_saved_total",
				Help:      "Total number of memories created or updated",
			},
			[]string{"kind", "operation"},
		),
		MemoriesDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memories_deleted_total",
				Help:      "Total number of memories deleted",
			},
			[]string{"kind"},
		),
		MetadataExtractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "metadata_extractions_total",
				Help:      "Total number of link metadata extractions by outcome",
			},
			[]string{"outcome"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Command handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command", "status"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query", "status"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.MemoriesSaved,
		c.MemoriesDeleted,
		c.MetadataExtractions,
		c.CommandDuration,
		c.QueryDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// RecordHTTP records one served request
func (c *Collector) RecordHTTP(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCommand records a command bus dispatch
func (c *Collector) RecordCommand(name string, err error, duration time.Duration) {
	c.CommandDuration.WithLabelValues(name, statusLabel(err)).Observe(duration.Seconds())
}

// RecordQuery records a query bus dispatch
func (c *Collector) RecordQuery(name string, err error, duration time.Duration) {
	c.QueryDuration.WithLabelValues(name, statusLabel(err)).Observe(duration.Seconds())
}

// Handler serves the collector's registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordMemorySaved counts a created or updated memory
func (c *Collector) RecordMemorySaved(kind, operation string) {
	c.MemoriesSaved.WithLabelValues(kind, operation).Inc()
}

// RecordMemoryDeleted counts a deleted memory
func (c *Collector) RecordMemoryDeleted(kind string) {
	c.MemoriesDeleted.WithLabelValues(kind).Inc()
}

// RecordMetadataExtraction counts a metadata extraction by outcome
func (c *Collector) RecordMetadataExtraction(outcome string) {
	c.MetadataExtractions.WithLabelValues(outcome).Inc()
}
