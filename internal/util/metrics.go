package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "items_created_total",
		Help: "Total number of items created individually",
	})

	ItemsImportedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "items_imported_total",
		Help: "Total number of items inserted through CSV import",
	})

	ImportRowErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "import_row_errors_total",
		Help: "Total number of rejected CSV import rows",
	}, []string{"reason"})

	ImportBatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "import_batch_latency_seconds",
		Help:    "Latency of bulk CSV import batches",
		Buckets: prometheus.DefBuckets,
	})

	ItemsAssignedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "items_assigned_total",
		Help: "Total number of items assigned to sellers",
	})

	ItemsUnassignedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "items_unassigned_total",
		Help: "Total number of items returned to available",
	})

	ItemsSplitTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "items_split_total",
		Help: "Total number of items split into copies",
	})

	VentasCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ventas_created_total",
		Help: "Total number of sale records created",
	})

	VentasApprovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ventas_approved_total",
		Help: "Total number of sales approved",
	})

	VentasRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ventas_rejected_total",
		Help: "Total number of sales rejected",
	})

	VentasFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ventas_failed_total",
		Help: "Total number of failed sale creations",
	}, []string{"reason"})

	VentaCreateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "venta_create_latency_seconds",
		Help:    "Latency of sale creation transactions",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
