// Package metrics defines the Prometheus metric collectors used by the
// enrichment pipeline and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the pipeline.
type Metrics struct {
	TicketsProcessedTotal prometheus.Counter
	TicketsFailedTotal    *prometheus.CounterVec
	ProcessingDuration    prometheus.Histogram
	StageDuration         *prometheus.HistogramVec
	ReceiveBatchSize      prometheus.Histogram
	MessagesReceivedTotal prometheus.Counter
	MessagesDeletedTotal  prometheus.Counter
	EmptyPollsTotal       prometheus.Counter
	StoreWritesTotal      *prometheus.CounterVec
	EventsPublishedTotal  *prometheus.CounterVec
	InFlightMessages      prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		TicketsProcessedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tickets_processed_total",
				Help: "Total tickets enriched and stored successfully.",
			},
		),
		TicketsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickets_failed_total",
				Help: "Total tickets that failed, by pipeline stage.",
			},
			[]string{"stage"},
		),
		ProcessingDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ticket_processing_duration_seconds",
				Help:    "End-to-end per-ticket processing latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticket_stage_duration_seconds",
				Help:    "Per-stage latency in seconds (fetch, validate, enrich, store).",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"stage"},
		),
		ReceiveBatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "queue_receive_batch_size",
				Help:    "Number of messages returned per non-empty receive call.",
				Buckets: []float64{1, 2, 3, 5, 8, 10},
			},
		),
		MessagesReceivedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "queue_messages_received_total",
				Help: "Total messages received from the queue, including redeliveries.",
			},
		),
		MessagesDeletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "queue_messages_deleted_total",
				Help: "Total messages acknowledged and deleted from the queue.",
			},
		),
		EmptyPollsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "queue_empty_polls_total",
				Help: "Total receive calls that returned no messages.",
			},
		),
		StoreWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_writes_total",
				Help: "Total storage writes by target (object, row) and status.",
			},
			[]string{"target", "status"},
		),
		EventsPublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_events_published_total",
				Help: "Total analytics events published by status.",
			},
			[]string{"status"},
		),
		InFlightMessages: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "worker_in_flight_messages",
				Help: "Messages currently being processed by this worker.",
			},
		),
	}

	prometheus.MustRegister(
		m.TicketsProcessedTotal,
		m.TicketsFailedTotal,
		m.ProcessingDuration,
		m.StageDuration,
		m.ReceiveBatchSize,
		m.MessagesReceivedTotal,
		m.MessagesDeletedTotal,
		m.EmptyPollsTotal,
		m.StoreWritesTotal,
		m.EventsPublishedTotal,
		m.InFlightMessages,
	)
	return m
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
