package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	JobsTotal         *prometheus.CounterVec
	JobDuration       *prometheus.HistogramVec
	JobsInQueue       prometheus.Gauge
	ListingsExtracted *prometheus.CounterVec
	ListingsInserted  *prometheus.CounterVec
	ListingsDuplicate *prometheus.CounterVec
	ValidationErrors  *prometheus.CounterVec
	SchedulerEnqueued *prometheus.CounterVec
}

// New registers every metric on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		JobsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_jobs_total",
			Help: "Total number of processed crawl jobs.",
		}, []string{"provider", "status", "error_type"}), // status: success, failure
		JobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crawler_job_duration_seconds",
			Help:    "Duration of crawl jobs from dequeue to persistence.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"provider"}),
		JobsInQueue: f.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_jobs_in_queue",
			Help: "Current number of pending crawl jobs.",
		}),
		ListingsExtracted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_listings_extracted_total",
			Help: "Listings extracted from provider pages.",
		}, []string{"provider"}),
		ListingsInserted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_listings_inserted_total",
			Help: "Listings persisted as new rows.",
		}, []string{"provider"}),
		ListingsDuplicate: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_listings_duplicate_total",
			Help: "Listings skipped by the uniqueness constraint.",
		}, []string{"provider"}),
		ValidationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_validation_errors_total",
			Help: "Per-field validation errors in crawled batches.",
		}, []string{"provider"}),
		SchedulerEnqueued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_scheduler_enqueued_total",
			Help: "Jobs enqueued by the scheduler.",
		}, []string{"provider", "status"}),
	}
}
