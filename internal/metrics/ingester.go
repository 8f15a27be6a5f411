package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingesterBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "ledger_ingester",
		Name:      "blocks_total",
		Help:      "Count of processed blocks.",
	}, []string{"network", "status"})

	ingesterBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "ledger_ingester",
		Name:      "block_duration_seconds",
		Help:      "Duration of processing a single block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	ingesterBlockTxs = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "ledger_ingester",
		Name:      "block_transactions",
		Help:      "Number of transactions per processed block.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 14), // 1..8192
	}, []string{"network"})

	ingesterRepairsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "ledger_ingester",
		Name:      "repairs_total",
		Help:      "Count of stored records corrected while reconciling.",
	}, []string{"network", "kind"})

	ingesterHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "ledger_ingester",
		Name:      "height",
		Help:      "Last block height handed to the store.",
	}, []string{"network"})

	ingesterTip = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "ledger_ingester",
		Name:      "source_tip",
		Help:      "Latest height reported by the block source.",
	}, []string{"network"})
)

type Ingester struct {
	network model.Network
}

func NewIngester(network model.Network) *Ingester {
	if network == "" {
		network = "unknown"
	}
	return &Ingester{network: network}
}

func (m Ingester) ObserveBlock(err error, height uint64, txs int, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ingesterBlocksTotal.WithLabelValues(string(m.network), status).Inc()
	ingesterBlockDuration.WithLabelValues(string(m.network), status).
		Observe(time.Since(started).Seconds())
	if err == nil {
		ingesterBlockTxs.WithLabelValues(string(m.network)).Observe(float64(txs))
		ingesterHeight.WithLabelValues(string(m.network)).Set(float64(height))
	}
}

func (m Ingester) ObserveRepair(kind string) {
	ingesterRepairsTotal.WithLabelValues(string(m.network), kind).Inc()
}

func (m Ingester) SetTip(height uint64) {
	ingesterTip.WithLabelValues(string(m.network)).Set(float64(height))
}
