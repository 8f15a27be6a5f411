package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sourceCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "ledger_source",
		Name:      "calls_total",
		Help:      "Count of calls made by the ledger to its block source.",
	}, []string{"source", "network", "call", "status"})
	sourceCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "ledger_source",
		Name:      "call_duration_seconds",
		Help:      "Latency of block source calls, rate limiting included.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"source", "network", "call", "status"})
)

// SourceCalls records the calls made to one kind of block source.
type SourceCalls struct {
	source  string
	network model.Network
}

func NewSourceCalls(source string, network model.Network) *SourceCalls {
	if network == "" {
		network = "unknown"
	}
	return &SourceCalls{source: source, network: network}
}

func (m SourceCalls) Observe(call string, err error, started time.Time) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	sourceCallsTotal.WithLabelValues(m.source, string(m.network), call, status).Inc()
	sourceCallDuration.WithLabelValues(m.source, string(m.network), call, status).Observe(time.Since(started).Seconds())
}
