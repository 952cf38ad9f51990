package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	DocumentsUploaded   prometheus.Counter
	PagesExtracted      prometheus.Counter
	Lookups             *prometheus.CounterVec
	ExtractionTime      prometheus.Histogram
	ConversionTime      prometheus.Histogram
	ErrorsCount         *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge
	AttachmentsIngested prometheus.Counter
}

// NewMetrics creates new prometheus metrics on the given registerer.
// Pass prometheus.DefaultRegisterer to expose them on /metrics.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		DocumentsUploaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_uploaded_total",
			Help:      "The total number of converted voucher documents",
		}),
		PagesExtracted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_extracted_total",
			Help:      "The total number of pages turned into text",
		}),
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_lookups_total",
			Help:      "Booking lookups by outcome",
		}, []string{"outcome"}),
		ExtractionTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_extraction_time_seconds",
			Help:      "Time taken to extract one booking from cached pages",
			Buckets:   prometheus.DefBuckets,
		}),
		ConversionTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_conversion_time_seconds",
			Help:      "Time taken to convert a PDF into page text",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Documents currently held in the session cache",
		}),
		AttachmentsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_attachments_ingested_total",
			Help:      "PDF attachments registered from the mailbox",
		}),
	}
}
