package metrics

import "github.com/prometheus/client_golang/prometheus"

// Redaction pipeline Prometheus metrics.
var (
	RedactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "redactions_total",
			Help:      "Completed redaction requests",
		},
		[]string{"kind"}, // "text" / "document"
	)

	DocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "documents_total",
			Help:      "Redacted documents by chosen representation and container format",
		},
		[]string{"mode", "format"},
	)

	DetectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "detections_total",
			Help:      "Text spans replaced by a placeholder",
		},
		[]string{"kind"},
	)

	SpansDiscardedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "spans_discarded_total",
			Help:      "Entity spans dropped because they overlapped another span or a placeholder",
		},
	)

	OCRWordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ocr_words_total",
			Help:      "OCR words by classification rule; rule is empty for kept words",
		},
		[]string{"rule"},
	)

	PageDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "page_duration_seconds",
			Help:      "Time to OCR, classify and mask one page",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	TextFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "text_fallbacks_total",
			Help:      "Documents routed to the image pipeline instead of text redaction",
		},
		[]string{"reason"}, // "error" / "too_short"
	)

	AuditWriteErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "audit_write_errors_total",
			Help:      "Audit records that could not be persisted",
		},
	)
)

// Recognizer Prometheus metrics.
var (
	RecognizerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "recognizer_requests_total",
			Help:      "Entity recognizer requests",
		},
		[]string{"provider", "status"},
	)

	RecognizerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "recognizer_request_duration_seconds",
			Help:      "Entity recognizer request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	RecognizerEntitiesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "recognizer_entities_total",
			Help:      "Entities returned by the recognizer",
		},
		[]string{"provider", "label"},
	)

	RecognizerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "recognizer_errors_total",
			Help:      "Entity recognizer errors",
		},
		[]string{"provider", "error_type"},
	)

	RecognizerCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "recognizer_cache_total",
			Help:      "Recognizer cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers redaction and recognizer metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		RedactionsTotal,
		DocumentsTotal,
		DetectionsTotal,
		SpansDiscardedTotal,
		OCRWordsTotal,
		PageDuration,
		TextFallbacksTotal,
		AuditWriteErrorsTotal,
		RecognizerRequestsTotal,
		RecognizerRequestDuration,
		RecognizerEntitiesTotal,
		RecognizerErrorsTotal,
		RecognizerCacheTotal,
	)
	pipelineMetricsRegistered = true
}
