package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	flushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "flusher",
		Name:      "flushes_total",
		Help:      "Count of write queue flushes.",
	}, []string{"queue"})
	flushRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "flusher",
		Name:      "records_total",
		Help:      "Count of records handed to the store, by outcome.",
	}, []string{"queue", "status"})
	flushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "flusher",
		Name:      "flush_duration_seconds",
		Help:      "Duration of a single flush.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"queue"})
	queueFill = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "flusher",
		Name:      "queue_fill_percent",
		Help:      "Pending records as a percentage of queue capacity.",
	}, []string{"queue"})
)

// Flusher tracks background flush activity per write queue.
type Flusher struct{}

// NewFlusher creates a Flusher metrics collector.
func NewFlusher() *Flusher {
	return &Flusher{}
}

// ObserveFlush records one flush of a queue.
func (m Flusher) ObserveFlush(queue string, written, failed int, started time.Time) {
	flushTotal.WithLabelValues(queue).Inc()
	flushRecordsTotal.WithLabelValues(queue, "success").Add(float64(written))
	flushRecordsTotal.WithLabelValues(queue, "error").Add(float64(failed))
	flushDuration.WithLabelValues(queue).Observe(time.Since(started).Seconds())
}

// SetFill publishes the current fill level of a queue.
func (m Flusher) SetFill(queue string, percent float64) {
	queueFill.WithLabelValues(queue).Set(percent)
}
