// Package metrics holds the prometheus collectors shared by the sync
// subsystem. Collectors register on the default registry and are served by
// promhttp at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmms_sync_runs_total",
		Help: "Sync runs by type and final status.",
	}, []string{"sync_type", "status"})

	SyncRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmms_sync_records_total",
		Help: "Records handled by sync runs, by outcome (created, updated, failed).",
	}, []string{"sync_type", "outcome"})

	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cmms_sync_duration_seconds",
		Help:    "Wall time of a sync run.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800, 3600},
	}, []string{"sync_type"})

	FetchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmms_fetch_requests_total",
		Help: "Requests made to the plant system API, by endpoint and result.",
	}, []string{"endpoint", "result"})

	JobAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmms_job_attempts_total",
		Help: "Job attempts by job name and result.",
	}, []string{"job", "result"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cmms_job_queue_depth",
		Help: "Jobs waiting in the in-process queue.",
	})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmms_notifications_total",
		Help: "Operator notifications by level and channel.",
	}, []string{"level", "channel"})
)
